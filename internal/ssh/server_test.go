package ssh

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	charmssh "github.com/charmbracelet/ssh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minview/internal/ratelimit"
	"minview/internal/session"
)

func newImageSession(ctx context.Context) (*session.Session, error) {
	s, err := session.New(session.Options{})
	if err != nil {
		return nil, err
	}
	s.LoadImage(image.NewGray(image.Rect(0, 0, 64, 64)))
	return s, nil
}

func TestNewServer(t *testing.T) {
	dir := t.TempDir()
	line, _ := authorizedKeyLine(t, "alice")
	authPath := filepath.Join(dir, "authorized_keys")
	_, err := AddAuthorizedKey(authPath, line)
	require.NoError(t, err)

	srv, err := NewServer(SSHConfig{
		ListenAddr:         "127.0.0.1:0",
		HostKeyPath:        filepath.Join(dir, "host_key"),
		AuthorizedKeysPath: authPath,
		NewSession:         newImageSession,
	})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:0", srv.Addr)
}

func TestNewServer_RequiresSessionFactory(t *testing.T) {
	_, err := NewServer(SSHConfig{HostKeyPath: filepath.Join(t.TempDir(), "host_key")})
	assert.Error(t, err)
}

func TestNewModel_SessionPerConnection(t *testing.T) {
	config := SSHConfig{NewSession: newImageSession, ImagePath: "a.png"}
	r := lipgloss.NewRenderer(io.Discard)

	a, err := newModel(context.Background(), config, "alice", r)
	require.NoError(t, err)
	b, err := newModel(context.Background(), config, "bob", r)
	require.NoError(t, err)

	assert.NotSame(t, a.Session(), b.Session())
	assert.NotSame(t, a.Session().Collection(), b.Session().Collection())
	assert.Equal(t, image.Pt(64, 64), a.Session().Dims())
}

func TestNewModel_FactoryError(t *testing.T) {
	config := SSHConfig{NewSession: func(context.Context) (*session.Session, error) {
		return nil, errors.New("image not found")
	}}
	_, err := newModel(context.Background(), config, "alice", lipgloss.NewRenderer(io.Discard))
	assert.EqualError(t, err, "image not found")
}

func TestPublicKeyHandler(t *testing.T) {
	_, allowed := authorizedKeyLine(t, "alice")
	_, other := authorizedKeyLine(t, "mallory")

	keys := []charmssh.PublicKey{allowed}
	assert.True(t, publicKeyHandler("alice", allowed, keys))
	assert.False(t, publicKeyHandler("mallory", other, keys))
}

// fakeSession is the part of an SSH session the rate limiter touches
type fakeSession struct {
	charmssh.Session
	addr   net.Addr
	stderr bytes.Buffer
	exit   int
	closed bool
}

func (f *fakeSession) RemoteAddr() net.Addr        { return f.addr }
func (f *fakeSession) Stderr() io.ReadWriter       { return &f.stderr }
func (f *fakeSession) Exit(code int) error         { f.exit = code; return nil }
func (f *fakeSession) Close() error                { f.closed = true; return nil }
func (f *fakeSession) Write(p []byte) (int, error) { return len(p), nil }

func TestRateLimitMiddleware(t *testing.T) {
	limiter := ratelimit.NewSlidingWindow(time.Minute, 1, time.Minute)
	defer limiter.Stop()

	calls := 0
	handler := rateLimitMiddleware(limiter)(func(charmssh.Session) { calls++ })

	addr := &net.TCPAddr{IP: net.ParseIP("192.0.2.7"), Port: 50000}
	handler(&fakeSession{addr: addr})
	assert.Equal(t, 1, calls)

	// Same host on another port is the same client
	second := &fakeSession{addr: &net.TCPAddr{IP: net.ParseIP("192.0.2.7"), Port: 50001}}
	handler(second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, second.exit)
	assert.Contains(t, second.stderr.String(), "too many sessions")

	handler(&fakeSession{addr: &net.TCPAddr{IP: net.ParseIP("192.0.2.8"), Port: 50000}})
	assert.Equal(t, 2, calls)
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	calls := 0
	handler := rateLimitMiddleware(nil)(func(charmssh.Session) { calls++ })
	for i := 0; i < 5; i++ {
		handler(&fakeSession{})
	}
	assert.Equal(t, 5, calls)
}

func TestRemoteHost(t *testing.T) {
	assert.Equal(t, "192.0.2.7", remoteHost(&net.TCPAddr{IP: net.ParseIP("192.0.2.7"), Port: 22}))
	assert.Equal(t, "", remoteHost(nil))
}
