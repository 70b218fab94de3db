package adapter

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
)

// Storage archives raw learning material that has been ingested
type Storage interface {
	// Put returns a writer that stores an object under key on Close
	Put(ctx context.Context, key string) (io.WriteCloser, error)
	// Get opens an archived object
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// storageClient implements Storage interface using Cloud Storage
type storageClient struct {
	bucketName string
	client     *storage.Client
}

// NewStorage creates a new Cloud Storage client
func NewStorage(ctx context.Context, bucketName string) (Storage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	return &storageClient{
		bucketName: bucketName,
		client:     client,
	}, nil
}

func (s *storageClient) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	w := s.client.Bucket(s.bucketName).Object(key).NewWriter(ctx)
	w.ContentType = contentTypeOf(key)
	return w, nil
}

func (s *storageClient) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	reader, err := s.client.Bucket(s.bucketName).Object(key).NewReader(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read from storage",
			goerr.V("bucket", s.bucketName),
			goerr.V("key", key))
	}

	return reader, nil
}

func contentTypeOf(key string) string {
	if len(key) > 4 && key[len(key)-4:] == ".pdf" {
		return "application/pdf"
	}
	return "text/plain; charset=utf-8"
}
