package gcp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
)

// Archive stores copies of generated training files in a GCS bucket.
type Archive interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Close() error
}

type ArchiveConfig struct {
	Bucket string
	Prefix string
	// EmulatorHost points the client at a fake-gcs-server style emulator.
	EmulatorHost string
}

type bucketArchive struct {
	log    *logger.Logger
	client *storage.Client
	bucket string
	prefix string
}

func NewArchive(ctx context.Context, log *logger.Logger, cfg ArchiveConfig, opts ...option.ClientOption) (Archive, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("archive bucket required")
	}
	if host := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"); host != "" {
		_ = os.Setenv("STORAGE_EMULATOR_HOST", host)
		opts = []option.ClientOption{option.WithoutAuthentication(), option.WithEndpoint(host + "/storage/v1/")}
	} else {
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	}
	c, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	alog := log.With("service", "gcp.Archive", "bucket", cfg.Bucket)
	alog.Info("Training archive initialized", "prefix", cfg.Prefix, "emulator_host", cfg.EmulatorHost)
	return &bucketArchive{log: alog, client: c, bucket: cfg.Bucket, prefix: strings.Trim(cfg.Prefix, "/")}, nil
}

func (a *bucketArchive) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	object := ObjectKey(a.prefix, key)
	w := a.client.Bucket(a.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}
	uri := fmt.Sprintf("gs://%s/%s", a.bucket, object)
	a.log.Debug("Archived object", "uri", uri, "bytes", len(data))
	return uri, nil
}

func (a *bucketArchive) Close() error {
	return a.client.Close()
}

// ObjectKey joins prefix and key, stamping a UTC date directory so
// re-submissions of the same level do not overwrite each other.
func ObjectKey(prefix, key string) string {
	return objectKeyAt(prefix, key, time.Now().UTC())
}

func objectKeyAt(prefix, key string, at time.Time) string {
	stamped := at.Format("20060102T150405Z") + "_" + strings.TrimLeft(key, "/")
	return path.Join(prefix, at.Format("2006/01/02"), stamped)
}
