package store

import (
	"context"
	"encoding/json"
	"sync"

	"cxls/internal/domain"
)

// Memory holds the encoded snapshot in memory. It exists for tests and
// local experiments; keeping the JSON bytes (not the struct) means
// tests can assert the durable document is byte-for-byte untouched
// after a rejected mutation.
type Memory struct {
	mu   sync.Mutex
	data []byte
}

func NewMemory() *Memory { return &Memory{} }

func (s *Memory) Load() (*domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, nil
	}
	snap := &domain.Snapshot{}
	if err := json.Unmarshal(s.data, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Memory) Replace(ctx context.Context, snap *domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

func (s *Memory) Close() error { return nil }

// Bytes returns the current persisted document.
func (s *Memory) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data...)
}
