package main

import (
	"context"
	"sync"
)

// MemoryStore keeps matches and player stats in process memory. It is the
// default backend when no DATABASE_URL is configured.
type MemoryStore struct {
	mu      sync.Mutex
	matches []MatchRecord
	players map[string]PlayerStats
	names   map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		players: make(map[string]PlayerStats),
		names:   make(map[string]string),
	}
}

func (s *MemoryStore) SaveMatch(_ context.Context, record MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches = append(s.matches, record)
	return nil
}

func (s *MemoryStore) PlayerStats(_ context.Context, id string) (PlayerStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats, ok := s.players[id]
	if !ok {
		stats = PlayerStats{Rating: GetConfig().DefaultRating}
		s.players[id] = stats
	}
	return stats, nil
}

func (s *MemoryStore) UpdatePlayerStats(_ context.Context, id string, stats PlayerStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[id] = stats
	return nil
}

func (s *MemoryStore) Lookup(_ context.Context, id string) (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := s.names[id]
	if name == "" {
		name = id
	}
	return Identity{ID: id, Name: name}, nil
}

// SetName registers a display name, mostly useful in tests.
func (s *MemoryStore) SetName(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names[id] = name
}

func (s *MemoryStore) Matches() []MatchRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]MatchRecord, len(s.matches))
	copy(out, s.matches)
	return out
}
