package kv

import (
	"context"
	"errors"
	"iter"
	"time"
)

var (
	ErrNotFound    = errors.New("kv: record not found")
	ErrDuplicateID = errors.New("kv: duplicate record id")
	ErrConflict    = errors.New("kv: concurrent modification")
)

// Record is one stored entry as returned by Scan.
type Record struct {
	ID   string
	Data []byte
}

// MutateFunc receives the current bytes and returns the replacement. Returning
// an error aborts the update and is passed back to the caller unchanged.
type MutateFunc func(current []byte) ([]byte, error)

// Engine is the byte-level store every backend implements. Updates to a
// single id are atomic; Scan yields records in creation order.
type Engine interface {
	Insert(ctx context.Context, collection, id string, data []byte) error
	Get(ctx context.Context, collection, id string) ([]byte, error)
	Scan(ctx context.Context, collection string) iter.Seq2[Record, error]
	Update(ctx context.Context, collection, id string, fn MutateFunc) ([]byte, error)
	// Delete exists for compensating a failed multi-record write. Deleting a
	// missing id is not an error.
	Delete(ctx context.Context, collection, id string) error
	Close() error
}

const maxUpdateAttempts = 8

const compensationTimeout = 5 * time.Second

// CompensationContext keeps ctx's values but drops its cancellation, so an
// undo write still lands when the caller's request was the thing that failed.
func CompensationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
}
