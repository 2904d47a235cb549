// Package store persists the ledger snapshot as one durable document.
// The serializer is the only writer; Replace must be atomic so a crash
// mid-write never leaves a partially applied snapshot visible.
package store

import (
	"context"

	"cxls/internal/domain"
)

type Store interface {
	// Load returns the last persisted snapshot, or (nil, nil) when the
	// store is empty.
	Load() (*domain.Snapshot, error)

	// Replace atomically overwrites the persisted snapshot.
	Replace(ctx context.Context, snap *domain.Snapshot) error

	Close() error
}
