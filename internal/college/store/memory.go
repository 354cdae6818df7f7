package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"collegenet/internal/college/models"
	pkgemail "collegenet/pkg/email"
	"collegenet/pkg/platform/sentinel"
)

// In-memory stores keep the initial implementation lightweight and testable.
// They intentionally favor clarity over performance.
type InMemoryCollegeStore struct {
	mu       sync.RWMutex
	byDomain map[string]*models.College
}

func NewInMemoryCollegeStore() *InMemoryCollegeStore {
	return &InMemoryCollegeStore{byDomain: make(map[string]*models.College)}
}

func (s *InMemoryCollegeStore) CreateIfDomainAvailable(_ context.Context, college *models.College) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byDomain[college.Domain]; ok {
		return sentinel.ErrConflict
	}
	for _, c := range s.byDomain {
		if c.ContactEmail == college.ContactEmail {
			return sentinel.ErrConflict
		}
	}
	cp := *college
	s.byDomain[college.Domain] = &cp
	return nil
}

func (s *InMemoryCollegeStore) FindByDomain(_ context.Context, domain string) (*models.College, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.byDomain[domain]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryCollegeStore) FindByContactEmail(_ context.Context, email string) (*models.College, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = pkgemail.Normalize(email)
	for _, c := range s.byDomain {
		if c.ContactEmail == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryCollegeStore) ListActive(_ context.Context) ([]*models.College, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.College, 0, len(s.byDomain))
	for _, c := range s.byDomain {
		if c.Active {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemoryCollegeStore) SetActive(_ context.Context, domain string, active bool) (*models.College, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byDomain[domain]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c.Active = active
	cp := *c
	return &cp, nil
}

type InMemoryPendingStore struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*models.PendingRegistration
	byEmail map[string]uuid.UUID
}

func NewInMemoryPendingStore() *InMemoryPendingStore {
	return &InMemoryPendingStore{
		byID:    make(map[uuid.UUID]*models.PendingRegistration),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (s *InMemoryPendingStore) CreateIfEmailAvailable(_ context.Context, reg *models.PendingRegistration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[reg.ContactEmail]; ok {
		return sentinel.ErrConflict
	}
	cp := *reg
	s.byID[reg.ID] = &cp
	s.byEmail[reg.ContactEmail] = reg.ID
	return nil
}

func (s *InMemoryPendingStore) FindByID(_ context.Context, id uuid.UUID) (*models.PendingRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.byID[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryPendingStore) ListByStatus(_ context.Context, status models.RegistrationStatus) ([]*models.PendingRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.PendingRegistration, 0)
	for _, r := range s.byID {
		if r.Status == status {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Execute holds the write lock across validate and mutate so the
// pending->terminal transition is observed by exactly one caller.
func (s *InMemoryPendingStore) Execute(_ context.Context, id uuid.UUID,
	validate func(*models.PendingRegistration) error,
	mutate func(*models.PendingRegistration),
) (*models.PendingRegistration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(r); err != nil {
		return nil, err
	}
	mutate(r)
	cp := *r
	return &cp, nil
}
