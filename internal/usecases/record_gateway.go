package usecases

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"chain-gateway.backend/internal/domain/entities"
	domainerrors "chain-gateway.backend/internal/domain/errors"
	"chain-gateway.backend/internal/domain/repositories"
	"chain-gateway.backend/pkg/logger"
	"chain-gateway.backend/pkg/metrics"
)

// RecordGateway caches opaque records in the document store and streams blobs to
// object storage. Store failures are logged and turned into a false result.
type RecordGateway struct {
	store        repositories.RecordStore
	uploader     repositories.BlobUploader
	defaultTable string
}

// NewRecordGateway creates a new record gateway
func NewRecordGateway(
	store repositories.RecordStore,
	uploader repositories.BlobUploader,
	defaultTable string,
) *RecordGateway {
	if defaultTable == "" {
		defaultTable = entities.DefaultRecordTable
	}
	return &RecordGateway{
		store:        store,
		uploader:     uploader,
		defaultTable: defaultTable,
	}
}

// Get fetches the record stored under id in table. ok is false when the record is
// missing or the store failed.
func (u *RecordGateway) Get(ctx context.Context, id, table string) (entities.Record, bool) {
	record, err := u.store.Get(ctx, table, id)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			metrics.ObserveRecordOp("get", metrics.StatusNotFound)
			logger.Info(ctx, "Record not found", zap.String("table", table), zap.String("id", id))
			return nil, false
		}
		metrics.ObserveRecordOp("get", metrics.StatusError)
		logger.Error(ctx, "Failed to get record", zap.String("table", table), zap.String("id", id), zap.Error(err))
		return nil, false
	}
	metrics.ObserveRecordOp("get", metrics.StatusOK)
	return record, true
}

// Put upserts data under id. The stored record always carries id, even when data
// has its own "id" field.
func (u *RecordGateway) Put(ctx context.Context, id string, data entities.Record, table string) (*entities.WriteAck, bool) {
	ack, err := u.store.Put(ctx, table, data.WithID(id))
	if err != nil {
		metrics.ObserveRecordOp("put", metrics.StatusError)
		logger.Error(ctx, "Failed to put record", zap.String("table", table), zap.String("id", id), zap.Error(err))
		return nil, false
	}
	metrics.ObserveRecordOp("put", metrics.StatusOK)
	return ack, true
}

// ScanAll returns every record of table, or of the default table when table is empty.
// Cost grows with the size of the collection.
func (u *RecordGateway) ScanAll(ctx context.Context, table string) ([]entities.Record, bool) {
	if table == "" {
		table = u.defaultTable
	}
	records, err := u.store.Scan(ctx, table)
	if err != nil {
		metrics.ObserveRecordOp("scan", metrics.StatusError)
		logger.Error(ctx, "Failed to scan records", zap.String("table", table), zap.Error(err))
		return nil, false
	}
	metrics.ObserveRecordOp("scan", metrics.StatusOK)
	if records == nil {
		records = []entities.Record{}
	}
	return records, true
}

// UploadFromStream starts an upload of everything written to the returned stream.
// Close the stream to finish the object or CloseWithError to abort it; the outcome is
// reported once through Done/Result/Wait or the OnDone/OnError callbacks.
func (u *RecordGateway) UploadFromStream(ctx context.Context, bucket, key, contentType string) *UploadStream {
	pr, pw := io.Pipe()
	stream := newUploadStream(pw)
	ctx = logger.WithCorrelationID(ctx, stream.ID())

	go func() {
		result, err := u.uploader.Upload(ctx, repositories.BlobUploadInput{
			Bucket:      bucket,
			Key:         key,
			ContentType: contentType,
			Body:        pr,
		})
		// Writers blocked on the pipe must not outlive the upload.
		if err != nil {
			_ = pr.CloseWithError(err)
		} else {
			_ = pr.Close()
		}

		metrics.ObserveUpload(err)
		if err != nil {
			logger.Error(ctx, "Blob upload failed", zap.String("bucket", bucket), zap.String("key", key), zap.Error(err))
			stream.finish(nil, err)
			return
		}
		if result == nil {
			result = &entities.UploadResult{Bucket: bucket, Key: key}
		}
		logger.Info(ctx, "Blob upload done", zap.String("bucket", bucket), zap.String("key", key), zap.String("location", result.Location))
		stream.finish(result, nil)
	}()

	return stream
}
