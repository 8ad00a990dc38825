package memory

import (
	"context"
	"sync"

	"pdvcaixa/internal/domain"
	"pdvcaixa/internal/store"
)

// Store keeps the encoded snapshot in process memory. Holding bytes instead
// of the struct means callers never share slices with the stored copy.
type Store struct {
	mu      sync.RWMutex
	payload []byte
	saves   int
	saveErr error
}

func New() *Store {
	return &Store{}
}

// NewWith returns a store that already holds snapshot.
func NewWith(snapshot domain.Snapshot) (*Store, error) {
	payload, err := store.Encode(snapshot)
	if err != nil {
		return nil, err
	}
	return &Store{payload: payload}, nil
}

func (s *Store) Load(_ context.Context) (domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.payload == nil {
		return domain.Snapshot{}, store.ErrNotFound
	}
	return store.Decode(s.payload)
}

func (s *Store) Save(_ context.Context, snapshot domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveErr != nil {
		return s.saveErr
	}
	payload, err := store.Encode(snapshot)
	if err != nil {
		return err
	}
	s.payload = payload
	s.saves++
	return nil
}

// Saves reports how many snapshots were written successfully.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// FailSaves makes every following Save return err. A nil err restores
// normal behavior.
func (s *Store) FailSaves(err error) {
	s.mu.Lock()
	s.saveErr = err
	s.mu.Unlock()
}

func (s *Store) Close() error {
	return nil
}
