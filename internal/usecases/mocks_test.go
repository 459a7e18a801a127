package usecases_test

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/stretchr/testify/mock"

	"chain-gateway.backend/internal/domain/entities"
	"chain-gateway.backend/internal/domain/repositories"
)

// Mock RecordStore
type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) Get(ctx context.Context, table, id string) (entities.Record, error) {
	args := m.Called(ctx, table, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(entities.Record), args.Error(1)
}

func (m *MockRecordStore) Put(ctx context.Context, table string, record entities.Record) (*entities.WriteAck, error) {
	args := m.Called(ctx, table, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WriteAck), args.Error(1)
}

func (m *MockRecordStore) Scan(ctx context.Context, table string) ([]entities.Record, error) {
	args := m.Called(ctx, table)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Record), args.Error(1)
}

// readingUploader drains the body like the transfer manager does and records what it saw
type readingUploader struct {
	mu      sync.Mutex
	started chan struct{}
	input   repositories.BlobUploadInput
	body    bytes.Buffer
	result  *entities.UploadResult
	err     error
}

func newReadingUploader(result *entities.UploadResult, err error) *readingUploader {
	return &readingUploader{started: make(chan struct{}), result: result, err: err}
}

func (u *readingUploader) Upload(_ context.Context, input repositories.BlobUploadInput) (*entities.UploadResult, error) {
	u.mu.Lock()
	u.input = input
	u.mu.Unlock()
	close(u.started)

	data, readErr := io.ReadAll(input.Body)
	u.mu.Lock()
	u.body.Write(data)
	u.mu.Unlock()
	if readErr != nil {
		return nil, readErr
	}
	return u.result, u.err
}

func (u *readingUploader) received() (repositories.BlobUploadInput, string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.input, u.body.String()
}
