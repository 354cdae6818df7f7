package store

import (
	"context"
	"sync"
	"time"

	"collegenet/internal/otp/models"
	"collegenet/pkg/platform/sentinel"
)

// InMemoryStore keeps codes in a map keyed by email|purpose. Expiry is
// enforced by timestamp comparison on every read; Sweep is best-effort
// cleanup only and correctness never depends on it running.
type InMemoryStore struct {
	mu      sync.Mutex
	records map[string]*models.Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*models.Record)}
}

func key(email string, purpose models.Purpose) string {
	return email + "|" + string(purpose)
}

func (s *InMemoryStore) Replace(_ context.Context, rec models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key(rec.Email, rec.Purpose)] = &rec
	return nil
}

func (s *InMemoryStore) FindActive(_ context.Context, email string, purpose models.Purpose, now time.Time) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key(email, purpose)]
	if !ok || !rec.Live(now) {
		return nil, sentinel.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// Consume holds the lock across match and mark, so exactly one concurrent
// caller wins; the loser sees the used flag and gets ErrNotFound.
func (s *InMemoryStore) Consume(_ context.Context, email, code string, purpose models.Purpose, now time.Time) (*models.ProfileDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key(email, purpose)]
	if !ok || rec.Code != code || !rec.Live(now) {
		return nil, sentinel.ErrNotFound
	}
	rec.Used = true
	return rec.Profile, nil
}

func (s *InMemoryStore) Delete(_ context.Context, email string, purpose models.Purpose) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key(email, purpose))
	return nil
}

// Sweep drops expired and used records. Called periodically by the janitor.
func (s *InMemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k, rec := range s.records {
		if rec.Used || !rec.ExpiresAt.After(now) {
			delete(s.records, k)
			removed++
		}
	}
	return removed
}
