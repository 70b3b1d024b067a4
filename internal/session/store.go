// Package session keeps the live conversation state for every user.
// Sessions are ephemeral: the store is in-memory only and lost on restart.
package session

import (
	"sync"
	"time"

	"github.com/akulov/checkup-bot/internal/domain"
)

// Store maps user ids to their single live session. Work for one user id is
// serialized through a per-entry mutex so two near-simultaneous messages from
// the same user can never both advance the same state. Different users never
// contend on the same lock.
type Store struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

// entry serializes work for one user. refs counts goroutines between
// acquire and release, so an empty entry is only dropped from the map once
// nobody can still be waiting on its lock.
type entry struct {
	mu   sync.Mutex
	refs int
	sess *domain.Session
}

// NewStore creates an empty session store
func NewStore() *Store {
	return &Store{entries: make(map[int64]*entry)}
}

func (s *Store) acquire(userID int64) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok {
		e = &entry{}
		s.entries[userID] = e
	}
	e.refs++
	return e
}

func (s *Store) release(userID int64, e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.refs--
	if e.refs == 0 && e.sess == nil {
		delete(s.entries, userID)
	}
}

// Do runs fn while holding the user's lock. fn receives the current session
// (nil when absent) and returns the session to keep; returning nil removes it.
func (s *Store) Do(userID int64, fn func(sess *domain.Session) *domain.Session) {
	e := s.acquire(userID)
	defer s.release(userID, e)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sess = fn(e.sess)
}

// Get returns the user's session or nil
func (s *Store) Get(userID int64) *domain.Session {
	e := s.acquire(userID)
	defer s.release(userID, e)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess
}

// Put stores a session for the user, replacing any existing one
func (s *Store) Put(userID int64, sess *domain.Session) {
	e := s.acquire(userID)
	defer s.release(userID, e)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sess = sess
}

// Remove drops the user's session if present
func (s *Store) Remove(userID int64) {
	e := s.acquire(userID)
	defer s.release(userID, e)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sess = nil
}

// PurgeIdle removes sessions not touched for longer than ttl and returns the
// ids of affected users. Sessions with a pending submission are kept: their
// answers must survive until the durable write succeeds.
func (s *Store) PurgeIdle(ttl time.Duration, now time.Time) []int64 {
	if ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	ids := make([]int64, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	var purged []int64
	for _, id := range ids {
		e := s.acquire(id)
		e.mu.Lock()
		if e.sess != nil && e.sess.PendingSubmission == nil && now.Sub(e.sess.UpdatedAt) > ttl {
			e.sess = nil
			purged = append(purged, id)
		}
		e.mu.Unlock()
		s.release(id, e)
	}
	return purged
}
