// Package store provides room storage infrastructure: an in-memory store for
// tests and database-less runs, and the periodic reconciler.
package store

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/phizone/player-agent/internal/domain/room"
)

// MemoryStore is a mutex-based in-memory room store.
// Thread-safe via sync.RWMutex.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]room.Record
	log   zerolog.Logger
}

// NewMemoryStore creates a new in-memory room store.
func NewMemoryStore(log zerolog.Logger) *MemoryStore {
	return &MemoryStore{
		rooms: make(map[string]room.Record),
		log:   log.With().Str("component", "room-store").Logger(),
	}
}

// Put creates or replaces the record for record.User.
func (s *MemoryStore) Put(ctx context.Context, record room.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[record.User] = record
	return nil
}

// Get retrieves the record for a user.
func (s *MemoryStore) Get(ctx context.Context, user string) (room.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.rooms[user]
	if !ok {
		return room.Record{}, room.ErrRoomNotFound
	}
	return record, nil
}

// UpdatePayload updates the payload of an existing record. A missing record
// is a no-op.
func (s *MemoryStore) UpdatePayload(ctx context.Context, user string, payload room.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.rooms[user]
	if !ok {
		return nil
	}
	record.Payload = payload
	s.rooms[user] = record
	return nil
}

// Delete retires the record for a user.
func (s *MemoryStore) Delete(ctx context.Context, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, user)
	return nil
}

// List returns all live records.
func (s *MemoryStore) List(ctx context.Context) ([]room.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]room.Record, 0, len(s.rooms))
	for _, record := range s.rooms {
		result = append(result, record)
	}
	return result, nil
}
