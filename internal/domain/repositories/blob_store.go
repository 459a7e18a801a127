package repositories

import (
	"context"
	"io"

	"chain-gateway.backend/internal/domain/entities"
)

// BlobUploadInput describes one streamed object write
type BlobUploadInput struct {
	Bucket      string
	Key         string
	ContentType string
	Body        io.Reader
}

// BlobUploader writes an object from a stream. Objects are created public-read.
type BlobUploader interface {
	Upload(ctx context.Context, input BlobUploadInput) (*entities.UploadResult, error)
}
