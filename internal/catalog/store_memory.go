package catalog

import (
	"context"
	"sync"
)

// MemSlot keeps the snapshot in process memory.
type MemSlot struct {
	mu   sync.RWMutex
	data []byte
	set  bool
}

func NewMemSlot() *MemSlot {
	return &MemSlot{}
}

func (s *MemSlot) Ping(ctx context.Context) error { return nil }

func (s *MemSlot) Read(ctx context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.set {
		return nil, ErrSlotEmpty
	}
	return append([]byte(nil), s.data...), nil
}

func (s *MemSlot) Write(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = append([]byte(nil), data...)
	s.set = true
	return nil
}
