package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
)

// ImageStore persists uploaded files and returns their public URL.
type ImageStore interface {
	Upload(ctx context.Context, objectName, contentType string, r io.Reader) (string, error)
}

// GCS stores objects in one bucket. The bucket is expected to grant allUsers
// object-viewer access, so uploads are publicly readable without per-object
// ACLs.
type GCS struct {
	client *gcs.Client
	bucket string
}

func NewGCS(ctx context.Context, bucket string) (*GCS, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("init gcs client: %w", err)
	}
	return &GCS{client: client, bucket: strings.TrimSpace(bucket)}, nil
}

func (g *GCS) Upload(ctx context.Context, objectName, contentType string, r io.Reader) (string, error) {
	obj := strings.TrimLeft(objectName, "/")
	w := g.client.Bucket(g.bucket).Object(obj).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("write object %s: %w", obj, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close object %s: %w", obj, err)
	}
	return PublicURL(g.bucket, obj), nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}

// PublicURL builds the well-known public address of an object.
func PublicURL(bucket, object string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, strings.TrimLeft(object, "/"))
}
