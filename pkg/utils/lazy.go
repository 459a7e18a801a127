package utils

import (
	"context"
	"fmt"
	"sync"
)

// Lazy runs its initializer at most once and hands every caller the same outcome,
// success or failure. The initializer runs on the context given to NewLazy, so a
// caller that stops waiting does not cancel the work other callers depend on.
type Lazy[T any] struct {
	base context.Context
	init func(context.Context) (T, error)
	once sync.Once
	done chan struct{}

	value T
	err   error
}

// NewLazy creates a cell. Nothing runs until Start or Get is called.
func NewLazy[T any](base context.Context, init func(context.Context) (T, error)) *Lazy[T] {
	if base == nil {
		base = context.Background()
	}
	return &Lazy[T]{
		base: base,
		init: init,
		done: make(chan struct{}),
	}
}

// Start launches the initializer in the background if it has not been launched yet
func (l *Lazy[T]) Start() {
	l.once.Do(func() {
		go l.run()
	})
}

func (l *Lazy[T]) run() {
	defer close(l.done)
	defer func() {
		if r := recover(); r != nil {
			l.err = fmt.Errorf("lazy initializer panicked: %v", r)
		}
	}()
	l.value, l.err = l.init(l.base)
}

// Get starts the initializer if needed and waits for its outcome or for ctx to end
func (l *Lazy[T]) Get(ctx context.Context) (T, error) {
	l.Start()
	select {
	case <-l.done:
		return l.value, l.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Peek reports the outcome without waiting; ready is false while the initializer
// has not finished (or never started).
func (l *Lazy[T]) Peek() (value T, ready bool, err error) {
	select {
	case <-l.done:
		return l.value, true, l.err
	default:
		var zero T
		return zero, false, nil
	}
}
