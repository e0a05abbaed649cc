package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/cuongbtq/pdf-retriever/internal/config"
	"google.golang.org/api/option"
)

// GCS writes documents to a Google Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket string
}

// NewGCS creates a client from application default credentials, or an
// unauthenticated one when an emulator endpoint is configured, and makes
// sure the bucket exists.
func NewGCS(ctx context.Context, cfg config.ObjectStoreConfig, opts ...option.ClientOption) (*GCS, error) {
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcs client: %w", err)
	}

	g, err := newGCS(ctx, client, cfg.Bucket, cfg.ProjectID)
	if err != nil {
		client.Close()
		return nil, err
	}
	return g, nil
}

func newGCS(ctx context.Context, client *storage.Client, bucket, projectID string) (*GCS, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	handle := client.Bucket(bucket)
	_, err := handle.Attrs(ctx)
	switch {
	case errors.Is(err, storage.ErrBucketNotExist):
		if projectID == "" {
			return nil, fmt.Errorf("bucket %s does not exist and no project_id is configured to create it", bucket)
		}
		if err := handle.Create(ctx, projectID, nil); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}

	return &GCS{client: client, bucket: bucket}, nil
}

func (g *GCS) Destination() string { return config.DestinationObjectStore }

func (g *GCS) Location() string { return "gs://" + g.bucket }

// Put streams the document in a single upload request.
func (g *GCS) Put(ctx context.Context, name string, r io.Reader, _ int64, contentType string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("name is required")
	}

	writer := g.client.Bucket(g.bucket).Object(name).NewWriter(ctx)
	writer.ChunkSize = 0
	if contentType != "" {
		writer.ContentType = contentType
	}

	if _, err := io.Copy(writer, r); err != nil {
		if closeErr := writer.Close(); closeErr != nil {
			return "", fmt.Errorf("copy object: %w (close writer: %v)", err, closeErr)
		}
		return "", fmt.Errorf("copy object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close writer: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", g.bucket, name), nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}
