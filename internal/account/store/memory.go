package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"collegenet/internal/account/models"
	"collegenet/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*models.Account
	byEmail map[string]uuid.UUID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[uuid.UUID]*models.Account),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (s *InMemoryStore) CreateIfEmailAvailable(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[account.Email]; ok {
		return sentinel.ErrConflict
	}
	cp := *account
	s.byID[account.ID] = &cp
	s.byEmail[account.Email] = account.ID
	return nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *InMemoryStore) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	a.PasswordHash = passwordHash
	a.PasswordSet = true
	return nil
}

func (s *InMemoryStore) TouchLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	a.LastLoginAt = &at
	return nil
}
