package utils

import (
	"github.com/google/uuid"
)

var newUUIDv7 = uuid.NewV7

// NewCorrelationID returns a time-ordered id used to tie together the log lines of one
// upload or websocket session.
func NewCorrelationID() string {
	id, err := newUUIDv7()
	if err != nil {
		// Fallback to v4 if v7 fails (highly unlikely)
		return uuid.NewString()
	}
	return id.String()
}
