package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"collegenet/internal/account/models"
	"collegenet/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func (s *InMemoryStoreSuite) account(email string) *models.Account {
	return &models.Account{
		ID: uuid.New(), Email: email, FirstName: "Nina", Role: models.RoleStudent,
		PasswordHash: "hash", Active: true, CreatedAt: time.Now(),
	}
}

func (s *InMemoryStoreSuite) TestCreateIfEmailAvailable() {
	s.Run("duplicate email conflicts", func() {
		s.Require().NoError(s.store.CreateIfEmailAvailable(s.ctx, s.account("dup@x.edu")))
		err := s.store.CreateIfEmailAvailable(s.ctx, s.account("dup@x.edu"))
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("lookup works by email and id", func() {
		acct := s.account("find@x.edu")
		s.Require().NoError(s.store.CreateIfEmailAvailable(s.ctx, acct))

		byEmail, err := s.store.FindByEmail(s.ctx, "find@x.edu")
		s.Require().NoError(err)
		s.Equal(acct.ID, byEmail.ID)

		byID, err := s.store.FindByID(s.ctx, acct.ID)
		s.Require().NoError(err)
		s.Equal("find@x.edu", byID.Email)
	})
}

func (s *InMemoryStoreSuite) TestUpdatePassword() {
	acct := s.account("pw@x.edu")
	s.Require().NoError(s.store.CreateIfEmailAvailable(s.ctx, acct))

	s.Require().NoError(s.store.UpdatePassword(s.ctx, acct.ID, "new-hash"))
	got, err := s.store.FindByID(s.ctx, acct.ID)
	s.Require().NoError(err)
	s.Equal("new-hash", got.PasswordHash)
	s.True(got.PasswordSet)

	s.ErrorIs(s.store.UpdatePassword(s.ctx, uuid.New(), "x"), sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestTouchLastLogin() {
	acct := s.account("login@x.edu")
	s.Require().NoError(s.store.CreateIfEmailAvailable(s.ctx, acct))

	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.TouchLastLogin(s.ctx, acct.ID, at))
	got, err := s.store.FindByID(s.ctx, acct.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.LastLoginAt)
	s.Equal(at, *got.LastLoginAt)
}
