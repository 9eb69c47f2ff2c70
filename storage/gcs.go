package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
)

// GCSMirror uploads blobs to a Google Cloud Storage bucket and returns
// their public URLs.
type GCSMirror struct {
	cl         *storage.Client
	bucketName string
	uploadPath string
}

func NewGCSMirror(ctx context.Context, bucketName string) (*GCSMirror, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSMirror{
		cl:         client,
		bucketName: bucketName,
		uploadPath: "uploads/",
	}, nil
}

// Upload copies the reader to the bucket under the given object name and
// returns the public URL.
func (g *GCSMirror) Upload(ctx context.Context, r io.Reader, object string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*50)
	defer cancel()

	objectPath := g.uploadPath + object

	wc := g.cl.Bucket(g.bucketName).Object(objectPath).NewWriter(ctx)
	if _, err := io.Copy(wc, r); err != nil {
		return "", fmt.Errorf("io.Copy: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("Writer.Close: %w", err)
	}

	url := fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucketName, objectPath)
	return url, nil
}

func (g *GCSMirror) Close() error {
	return g.cl.Close()
}
