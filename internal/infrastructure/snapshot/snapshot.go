// Package snapshot provides whole-document persistence for the session and
// settings stores. Each store owns one JSON document; every write replaces
// the previous contents entirely.
package snapshot

import (
	"context"
	"errors"
)

// ErrNoSnapshot is returned by Read when no snapshot has ever been written.
// Callers treat it as a cold start, not a failure.
var ErrNoSnapshot = errors.New("no snapshot")

// Backend writes and reads one opaque document.
type Backend interface {
	Write(ctx context.Context, data []byte) error
	Read(ctx context.Context) ([]byte, error)
}
