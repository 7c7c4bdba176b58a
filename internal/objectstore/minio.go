package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"fingersatz/internal/config"
)

// ContentTypeMusicXML is the media type for uncompressed MusicXML documents.
const ContentTypeMusicXML = "application/vnd.recordare.musicxml+xml"

// Store is the transfer surface the pipeline depends on.
type Store interface {
	Download(ctx context.Context, bucket, key, path string) error
	Upload(ctx context.Context, path, bucket, key, contentType string) error
	PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
	BucketExists(ctx context.Context, bucket string) (bool, error)
}

// Minio implements Store against any S3-compatible endpoint.
type Minio struct {
	client *minio.Client
}

// New builds a client from the object store configuration section.
func New(cfg config.ObjectStore) (*Minio, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("objectstore: endpoint required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("objectstore: credentials required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore: build client: %w", err)
	}
	return &Minio{client: client}, nil
}

// Download fetches bucket/key into the file at path.
func (m *Minio) Download(ctx context.Context, bucket, key, path string) error {
	if m == nil || m.client == nil {
		return errors.New("objectstore: not initialized")
	}
	if err := m.client.FGetObject(ctx, bucket, key, path, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("download %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Upload stores the file at path under bucket/key.
func (m *Minio) Upload(ctx context.Context, path, bucket, key, contentType string) error {
	if m == nil || m.client == nil {
		return errors.New("objectstore: not initialized")
	}
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := m.client.FPutObject(ctx, bucket, key, path, opts); err != nil {
		return fmt.Errorf("upload %s/%s: %w", bucket, key, err)
	}
	return nil
}

// PresignGet issues a time-bounded retrieval URL for bucket/key.
func (m *Minio) PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	if m == nil || m.client == nil {
		return "", errors.New("objectstore: not initialized")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	u, err := m.client.PresignedGetObject(ctx, bucket, key, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s/%s: %w", bucket, key, err)
	}
	return u.String(), nil
}

// BucketExists reports whether the bucket is reachable and present.
func (m *Minio) BucketExists(ctx context.Context, bucket string) (bool, error) {
	if m == nil || m.client == nil {
		return false, errors.New("objectstore: not initialized")
	}
	return m.client.BucketExists(ctx, bucket)
}

// EnsureBucket creates the bucket when missing.
func (m *Minio) EnsureBucket(ctx context.Context, bucket, region string) error {
	exists, err := m.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region})
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

var _ Store = (*Minio)(nil)
