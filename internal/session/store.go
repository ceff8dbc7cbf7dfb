package session

import (
	"sync"
	"time"
)

// Store abstracts session persistence so the engine can be tested with
// isolated stores and the backing can later move out of process.
type Store interface {
	// Get returns the state for a channel if one exists.
	Get(channel string) (*State, bool)
	// GetOrCreate returns the state for a channel, creating it lazily.
	GetOrCreate(channel string) *State
	// Delete removes all state for a channel.
	Delete(channel string)
	// Sweep removes sessions idle for longer than maxIdle and returns how
	// many were removed.
	Sweep(maxIdle time.Duration) int
}

// MemoryStore is the in-process Store. The engine processes one event at a
// time, but Sweep may run from a background task, so access is guarded.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*State
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*State)}
}

// Get returns the state for a channel if one exists.
func (m *MemoryStore) Get(channel string) (*State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[channel]
	return s, ok
}

// GetOrCreate returns the state for a channel, creating it lazily. The
// returned State's LastActivity is refreshed.
func (m *MemoryStore) GetOrCreate(channel string) *State {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[channel]
	if !ok {
		s = &State{Channel: channel}
		m.sessions[channel] = s
	}
	s.LastActivity = time.Now()
	return s
}

// Delete removes all state for a channel.
func (m *MemoryStore) Delete(channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, channel)
}

// Sweep removes sessions idle for longer than maxIdle.
func (m *MemoryStore) Sweep(maxIdle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-maxIdle)
	removed := 0
	for ch, s := range m.sessions {
		if s.LastActivity.Before(cutoff) {
			delete(m.sessions, ch)
			removed++
		}
	}
	return removed
}
