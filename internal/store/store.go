package store

import (
	"context"
	"errors"

	"pdvcaixa/internal/domain"
)

var (
	ErrNotFound = errors.New("snapshot not found")
	ErrCorrupt  = errors.New("snapshot corrupt")
)

// DefaultKey is the storage name the till state is saved under.
const DefaultKey = "pos-storage"

// SnapshotStore persists the durable part of the till state as one document.
// Load returns ErrNotFound when nothing has been saved yet.
type SnapshotStore interface {
	Load(ctx context.Context) (domain.Snapshot, error)
	Save(ctx context.Context, snapshot domain.Snapshot) error
}
