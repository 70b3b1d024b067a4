package session

import (
	"testing"
	"time"

	"github.com/akulov/checkup-bot/internal/domain"
)

func (s *Store) entryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// The store must not grow with every user id it has ever seen: once a
// user has no session, their map entry goes away too.
func TestEmptyEntriesAreDropped(t *testing.T) {
	store := NewStore()
	form := []domain.Field{{ID: "name", Kind: domain.KindText, Text: &domain.TextRule{}}}
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	for id := int64(1); id <= 100; id++ {
		store.Put(id, domain.NewSession(id, "user", "Test User", form, base))
		store.Remove(id)
	}
	store.Do(200, func(sess *domain.Session) *domain.Session { return nil })
	store.Get(300)

	if got := store.entryCount(); got != 0 {
		t.Fatalf("%d entries left for users with no session, want 0", got)
	}

	store.Put(1, domain.NewSession(1, "user", "Test User", form, base))
	store.PurgeIdle(time.Minute, base.Add(time.Hour))
	if got := store.entryCount(); got != 0 {
		t.Fatalf("%d entries left after purge, want 0", got)
	}
}
