package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type storeEntry struct {
	session  *Session
	lastUsed time.Time
}

// Store keeps independent sessions by id and drops ones idle past the TTL.
type Store struct {
	mu    sync.RWMutex
	store map[string]*storeEntry
	ttl   time.Duration
	now   func() time.Time

	// OnChange, when set, receives the session count after each change.
	OnChange func(n int)
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{
		store: make(map[string]*storeEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Add registers s under a fresh id.
func (st *Store) Add(s *Session) string {
	id := uuid.NewString()

	st.mu.Lock()
	st.store[id] = &storeEntry{session: s, lastUsed: st.now()}
	n := len(st.store)
	st.mu.Unlock()

	st.changed(n)
	log.Info().Str("session_id", id).Str("solver", s.SolverName()).Msg("session created")
	return id
}

// Get returns a live session and refreshes its idle timer.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	entry, exists := st.store[id]
	if !exists {
		return nil, false
	}
	if st.now().Sub(entry.lastUsed) > st.ttl {
		return nil, false
	}
	entry.lastUsed = st.now()
	return entry.session, true
}

// Delete removes a session; it reports whether one existed.
func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	_, exists := st.store[id]
	delete(st.store, id)
	n := len(st.store)
	st.mu.Unlock()

	if exists {
		st.changed(n)
	}
	return exists
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.store)
}

// Run evicts idle sessions every interval until ctx is done.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Evict()
		}
	}
}

// Evict drops every session idle longer than the TTL and returns the count.
func (st *Store) Evict() int {
	st.mu.Lock()
	now := st.now()
	evicted := 0
	for id, entry := range st.store {
		if now.Sub(entry.lastUsed) > st.ttl {
			delete(st.store, id)
			evicted++
			log.Info().Str("session_id", id).Msg("session expired")
		}
	}
	n := len(st.store)
	st.mu.Unlock()

	if evicted > 0 {
		st.changed(n)
	}
	return evicted
}

func (st *Store) changed(n int) {
	if st.OnChange != nil {
		st.OnChange(n)
	}
}
