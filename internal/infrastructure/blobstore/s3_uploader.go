package blobstore

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"chain-gateway.backend/internal/domain/entities"
	domainerrors "chain-gateway.backend/internal/domain/errors"
	"chain-gateway.backend/internal/domain/repositories"
)

// UploadAPI is implemented by *manager.Uploader
type UploadAPI interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Uploader streams object bodies to S3. Bodies larger than one part become a
// multipart upload, so only one part is held in memory at a time.
type S3Uploader struct {
	api UploadAPI
}

// NewS3Uploader wraps an S3 client with the transfer manager
func NewS3Uploader(client manager.UploadAPIClient, partSize int64) *S3Uploader {
	return NewS3UploaderWithAPI(manager.NewUploader(client, func(u *manager.Uploader) {
		if partSize >= manager.MinUploadPartSize {
			u.PartSize = partSize
		}
		u.Concurrency = 1
	}))
}

// NewS3UploaderWithAPI creates an uploader over an injected transfer implementation
func NewS3UploaderWithAPI(api UploadAPI) *S3Uploader {
	return &S3Uploader{api: api}
}

var _ repositories.BlobUploader = (*S3Uploader)(nil)

// Upload writes input.Body to bucket/key with a public-read ACL
func (u *S3Uploader) Upload(ctx context.Context, input repositories.BlobUploadInput) (*entities.UploadResult, error) {
	if input.Bucket == "" {
		return nil, domainerrors.Validation("s3.upload", "bucket is required")
	}
	if input.Key == "" {
		return nil, domainerrors.Validation("s3.upload", "key is required")
	}
	if input.Body == nil {
		return nil, domainerrors.Validation("s3.upload", "body is required")
	}

	params := &s3.PutObjectInput{
		Bucket: aws.String(input.Bucket),
		Key:    aws.String(input.Key),
		Body:   input.Body,
		ACL:    types.ObjectCannedACLPublicRead,
	}
	if input.ContentType != "" {
		params.ContentType = aws.String(input.ContentType)
	}

	out, err := u.api.Upload(ctx, params)
	if err != nil {
		return nil, domainerrors.Transport("s3.upload", err)
	}

	result := &entities.UploadResult{
		Location:  out.Location,
		Bucket:    input.Bucket,
		Key:       input.Key,
		ETag:      aws.ToString(out.ETag),
		VersionID: aws.ToString(out.VersionID),
		UploadID:  out.UploadID,
	}
	if out.Key != nil {
		result.Key = *out.Key
	}
	return result, nil
}
