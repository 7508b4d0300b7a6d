package gcsuploader

import (
	"context"
	"io"
)

// StorageService moves report exports and ledger snapshots in and out of
// Google Cloud Storage.
type StorageService interface {
	// Upload writes r to bucket/object and returns the gs:// URI.
	Upload(ctx context.Context, bucket, object, contentType string, r io.Reader) (string, error)
	// Fetch reads the whole object named by a gs:// URI.
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// GCSStorageService is the StorageService backed by a real bucket. It
// assumes Application Default Credentials are configured.
type GCSStorageService struct{}

// NewGCSStorageService creates a new instance of GCSStorageService.
func NewGCSStorageService() *GCSStorageService {
	return &GCSStorageService{}
}

func (s *GCSStorageService) Upload(ctx context.Context, bucket, object, contentType string, r io.Reader) (string, error) {
	return Upload(ctx, bucket, object, contentType, r)
}

func (s *GCSStorageService) Fetch(ctx context.Context, uri string) ([]byte, error) {
	return FetchFromGCS(ctx, uri)
}
