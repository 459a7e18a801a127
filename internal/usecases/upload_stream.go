package usecases

import (
	"context"
	"errors"
	"io"
	"sync"

	"chain-gateway.backend/internal/domain/entities"
	"chain-gateway.backend/pkg/utils"
)

var (
	// ErrUploadAborted is the outcome of CloseWithError(nil)
	ErrUploadAborted = errors.New("upload aborted")
	// ErrUploadPending is returned by Result before the upload has finished
	ErrUploadPending = errors.New("upload still in progress")
)

// UploadStream is the writable end of a streamed upload. Its outcome is exactly one
// of a result or an error.
type UploadStream struct {
	id string
	pw *io.PipeWriter

	mu       sync.Mutex
	done     chan struct{}
	result   *entities.UploadResult
	err      error
	onDone   []func(*entities.UploadResult)
	onError  []func(error)
	finished bool
}

var _ io.WriteCloser = (*UploadStream)(nil)

func newUploadStream(pw *io.PipeWriter) *UploadStream {
	return &UploadStream{
		id:   utils.NewCorrelationID(),
		pw:   pw,
		done: make(chan struct{}),
	}
}

// ID identifies the upload in logs
func (s *UploadStream) ID() string {
	return s.id
}

// Write relays p to the uploader, blocking until it has been consumed
func (s *UploadStream) Write(p []byte) (int, error) {
	return s.pw.Write(p)
}

// Close marks the end of the object body
func (s *UploadStream) Close() error {
	return s.pw.Close()
}

// CloseWithError aborts the upload; err becomes the upload error
func (s *UploadStream) CloseWithError(err error) error {
	if err == nil {
		err = ErrUploadAborted
	}
	return s.pw.CloseWithError(err)
}

// Done is closed when the upload has finished
func (s *UploadStream) Done() <-chan struct{} {
	return s.done
}

// Result returns the outcome, or ErrUploadPending while the upload is running
func (s *UploadStream) Result() (*entities.UploadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finished {
		return nil, ErrUploadPending
	}
	return s.result, s.err
}

// Wait blocks until the upload finishes or ctx ends
func (s *UploadStream) Wait(ctx context.Context) (*entities.UploadResult, error) {
	select {
	case <-s.done:
		return s.Result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// OnDone registers fn for a successful upload. Registered after success it runs at once.
func (s *UploadStream) OnDone(fn func(*entities.UploadResult)) {
	s.mu.Lock()
	if !s.finished {
		s.onDone = append(s.onDone, fn)
		s.mu.Unlock()
		return
	}
	result, err := s.result, s.err
	s.mu.Unlock()
	if err == nil {
		fn(result)
	}
}

// OnError registers fn for a failed upload. Registered after failure it runs at once.
func (s *UploadStream) OnError(fn func(error)) {
	s.mu.Lock()
	if !s.finished {
		s.onError = append(s.onError, fn)
		s.mu.Unlock()
		return
	}
	err := s.err
	s.mu.Unlock()
	if err != nil {
		fn(err)
	}
}

func (s *UploadStream) finish(result *entities.UploadResult, err error) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true
	s.result, s.err = result, err
	onDone, onError := s.onDone, s.onError
	s.onDone, s.onError = nil, nil
	close(s.done)
	s.mu.Unlock()

	if err != nil {
		for _, fn := range onError {
			fn(err)
		}
		return
	}
	for _, fn := range onDone {
		fn(result)
	}
}
