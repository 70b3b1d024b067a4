package testutil

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/akulov/checkup-bot/internal/domain"
)

// MemorySubmissionRepository is an in-memory domain.SubmissionRepository.
// Insert failures can be injected to exercise the retry path.
type MemorySubmissionRepository struct {
	mu        sync.Mutex
	subs      []*domain.Submission
	insertErr error
}

func NewMemorySubmissionRepository() *MemorySubmissionRepository {
	return &MemorySubmissionRepository{}
}

// FailInserts makes every Insert return err until cleared with nil.
func (r *MemorySubmissionRepository) FailInserts(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insertErr = err
}

func (r *MemorySubmissionRepository) Insert(sub *domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.subs = append(r.subs, sub)
	return nil
}

func (r *MemorySubmissionRepository) FindByDateRange(from, to time.Time) ([]*domain.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Submission
	for _, sub := range r.subs {
		if !sub.CreatedAt.Before(from) && !sub.CreatedAt.After(to) {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// All returns every stored submission regardless of window.
func (r *MemorySubmissionRepository) All() []*domain.Submission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.Submission(nil), r.subs...)
}

// MemoryUserRepository is an in-memory domain.UserRepository.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[int64]*domain.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[int64]*domain.User)}
}

func (r *MemoryUserRepository) Upsert(user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *MemoryUserRepository) GetByID(id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id], nil
}

// StubFileStore records saved attachments and returns deterministic refs.
type StubFileStore struct {
	mu      sync.Mutex
	saveErr error
	counter int
}

func NewStubFileStore() *StubFileStore {
	return &StubFileStore{}
}

// FailSaves makes every Save return err until cleared with nil.
func (s *StubFileStore) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

func (s *StubFileStore) Save(userID int64, meta domain.FileMeta) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return "", s.saveErr
	}
	s.counter++
	return fmt.Sprintf("uploads/%d_%d_%s", userID, s.counter, meta.Name), nil
}
