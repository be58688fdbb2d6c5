package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager owns all live sessions, keyed by opaque UUID. Sessions idle
// past the TTL are reaped wholesale by a background sweeper; there is no
// persistence, so an expired session simply means the user starts over.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	ttl  time.Duration
	done chan struct{}
	once sync.Once
}

// NewManager creates a manager and starts the expiry sweeper.
// Call Close to stop the sweeper.
func NewManager(ttl, sweepInterval time.Duration) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	go m.sweep(sweepInterval)
	return m
}

// Create starts a new empty session with a fresh ID.
func (m *Manager) Create() *Session {
	s := newSession(uuid.NewString())

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	return s
}

// Get returns the session with the given ID, refreshing its idle timer.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()

	if ok {
		s.touch(time.Now())
	}
	return s, ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// expireIdle drops every session idle since before now minus the TTL
// and returns how many were removed.
func (m *Manager) expireIdle(now time.Time) int {
	deadline := now.Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.idleSince(deadline) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// sweep reaps idle sessions until Close is called.
func (m *Manager) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.expireIdle(now)
		}
	}
}

// Close stops the background sweeper. Safe to call more than once.
func (m *Manager) Close() {
	m.once.Do(func() { close(m.done) })
}
