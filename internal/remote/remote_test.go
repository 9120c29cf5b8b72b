package remote

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	obj, err := ParseURL("s3://prints/2024/left-index.MIN")
	require.NoError(t, err)
	assert.Equal(t, "prints", obj.Bucket)
	assert.Equal(t, "2024/left-index.MIN", obj.Key)
	assert.Equal(t, ".min", obj.Ext())
	assert.Equal(t, "s3://prints/2024/left-index.MIN", obj.String())

	for _, bad := range []string{"prints/a.min", "s3://", "s3://bucket", "s3://bucket/", "s3:///key", "s3://bucket/dir/"} {
		_, err := ParseURL(bad)
		assert.Error(t, err, bad)
	}
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("s3://b/k"))
	assert.False(t, IsURL("/tmp/s3://b/k"))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", ContentType("a/b.PNG"))
	assert.Equal(t, "text/plain; charset=utf-8", ContentType("a.sim"))
	assert.Equal(t, "application/octet-stream", ContentType("a.bin"))
}

func TestNew(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	c, err := New(Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	require.NoError(t, err)
	require.NotNil(t, c)

	_, err = c.Get(context.Background(), "not-a-url")
	assert.Error(t, err)
}

// TestRoundTrip runs against a real server when MINVIEW_TEST_S3_ENDPOINT
// and MINVIEW_TEST_S3_BUCKET are set.
func TestRoundTrip(t *testing.T) {
	endpoint := os.Getenv("MINVIEW_TEST_S3_ENDPOINT")
	bucket := os.Getenv("MINVIEW_TEST_S3_BUCKET")
	if endpoint == "" || bucket == "" {
		t.Skip("MINVIEW_TEST_S3_ENDPOINT and MINVIEW_TEST_S3_BUCKET not set")
	}

	c, err := New(Config{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("MINVIEW_TEST_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("MINVIEW_TEST_S3_SECRET_KEY"),
	})
	require.NoError(t, err)

	ctx := context.Background()
	url := "s3://" + bucket + "/minview-test/print.sim"
	require.NoError(t, c.Put(ctx, url, []byte("100 200 45.0 BIF 0.8"), ""))

	data, err := c.Get(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, "100 200 45.0 BIF 0.8", string(data))

	ok, err := c.Exists(ctx, url)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Exists(ctx, "s3://"+bucket+"/minview-test/missing.sim")
	require.NoError(t, err)
	assert.False(t, ok)
}
