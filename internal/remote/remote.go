// Package remote reads and writes images and minutiae files kept in
// S3-compatible object storage, addressed as s3://bucket/key.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Scheme prefixes every remote path
const Scheme = "s3://"

// ErrNotFound is returned when an object does not exist
var ErrNotFound = errors.New("object not found")

// Config holds the connection settings of the object store
type Config struct {
	Endpoint  string `json:"endpoint" yaml:"endpoint"`
	AccessKey string `json:"access_key" yaml:"access_key"`
	SecretKey string `json:"secret_key" yaml:"secret_key"`
	UseSSL    bool   `json:"use_ssl" yaml:"use_ssl"`
	Region    string `json:"region" yaml:"region"`
}

// Object addresses one object in a bucket
type Object struct {
	Bucket string
	Key    string
}

func (o Object) String() string {
	return Scheme + o.Bucket + "/" + o.Key
}

// Ext returns the lower-cased extension of the object key
func (o Object) Ext() string {
	return strings.ToLower(path.Ext(o.Key))
}

// IsURL reports whether p is a remote path
func IsURL(p string) bool {
	return strings.HasPrefix(p, Scheme)
}

// ParseURL splits s3://bucket/key into its parts
func ParseURL(raw string) (Object, error) {
	if !IsURL(raw) {
		return Object{}, fmt.Errorf("not an %s url: %q", Scheme, raw)
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(raw, Scheme), "/")
	if !ok || bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return Object{}, fmt.Errorf("remote path must be %sbucket/key, got %q", Scheme, raw)
	}
	return Object{Bucket: bucket, Key: key}, nil
}

// ContentType guesses the content type to store an object with
func ContentType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".bmp":
		return "image/bmp"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".sim", ".min", ".xyt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// Client reads and writes remote objects
type Client struct {
	client *minio.Client
}

// New creates a client for the configured endpoint. No request is made
// until the first Get or Put.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("remote endpoint is not configured")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}
	return &Client{client: client}, nil
}

// Get downloads an object
func (c *Client) Get(ctx context.Context, raw string) ([]byte, error) {
	obj, err := ParseURL(raw)
	if err != nil {
		return nil, err
	}

	r, err := c.client.GetObject(ctx, obj.Bucket, obj.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, wrapErr(obj, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, wrapErr(obj, err)
	}
	return data, nil
}

// Put uploads data as an object. An empty contentType is derived from the key.
func (c *Client) Put(ctx context.Context, raw string, data []byte, contentType string) error {
	obj, err := ParseURL(raw)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = ContentType(obj.Key)
	}
	_, err = c.client.PutObject(ctx, obj.Bucket, obj.Key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return wrapErr(obj, err)
	}
	return nil
}

// Exists reports whether the object exists
func (c *Client) Exists(ctx context.Context, raw string) (bool, error) {
	obj, err := ParseURL(raw)
	if err != nil {
		return false, err
	}
	_, err = c.client.StatObject(ctx, obj.Bucket, obj.Key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, wrapErr(obj, err)
	}
	return true, nil
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound" || code == "NoSuchBucket"
}

func wrapErr(obj Object, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, obj)
	}
	return fmt.Errorf("%s: %w", obj, err)
}
