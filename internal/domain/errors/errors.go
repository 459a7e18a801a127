package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnsupportedChain    = errors.New("unsupported chain")
	ErrUnsupportedContract = errors.New("unsupported contract")
	ErrUnsupportedEvent    = errors.New("unsupported event")
	ErrNoAddressResolved   = errors.New("no addresses resolved")
	ErrRegistryNotLoaded   = errors.New("chain registry not loaded")
	ErrMalformedConfig     = errors.New("malformed chain config")
)

// Kind classifies where a failure came from
type Kind string

const (
	KindUnknown    Kind = "unknown"
	KindTransport  Kind = "transport"
	KindValidation Kind = "validation"
	KindConfig     Kind = "config"
)

// Error carries the failing operation and a kind on top of the underlying cause
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Transport wraps a network or store failure
func Transport(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

// Validation reports malformed parameters
func Validation(op, msg string) error {
	return &Error{Kind: KindValidation, Op: op, Err: fmt.Errorf("%w: %s", ErrInvalidInput, msg)}
}

// Config wraps a failure to interpret remote chain configuration
func Config(op string, err error) error {
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrMalformedConfig) {
		err = fmt.Errorf("%w: %w", ErrMalformedConfig, err)
	}
	return &Error{Kind: KindConfig, Op: op, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
