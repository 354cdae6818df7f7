package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"collegenet/internal/otp/models"
	"collegenet/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) record(email, code string) models.Record {
	return models.Record{
		Email:     email,
		Code:      code,
		Purpose:   models.PurposeStudentVerification,
		ExpiresAt: s.now.Add(10 * time.Minute),
		Profile:   &models.ProfileDraft{Name: "Priya Patel"},
		CreatedAt: s.now,
	}
}

func (s *InMemoryStoreSuite) TestReplace() {
	s.Run("overwrites the record for the same key", func() {
		s.Require().NoError(s.store.Replace(s.ctx, s.record("a@uni.edu", "111111")))
		s.Require().NoError(s.store.Replace(s.ctx, s.record("a@uni.edu", "222222")))

		_, err := s.store.Consume(s.ctx, "a@uni.edu", "111111", models.PurposeStudentVerification, s.now)
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.Consume(s.ctx, "a@uni.edu", "222222", models.PurposeStudentVerification, s.now)
		s.NoError(err)
	})

	s.Run("purposes are independent keys", func() {
		rec := s.record("b@uni.edu", "333333")
		s.Require().NoError(s.store.Replace(s.ctx, rec))
		rec.Purpose = models.PurposePasswordReset
		rec.Code = "444444"
		s.Require().NoError(s.store.Replace(s.ctx, rec))

		_, err := s.store.Consume(s.ctx, "b@uni.edu", "333333", models.PurposeStudentVerification, s.now)
		s.NoError(err)
	})
}

func (s *InMemoryStoreSuite) TestConsume() {
	s.Run("only one concurrent caller wins", func() {
		s.Require().NoError(s.store.Replace(s.ctx, s.record("race@uni.edu", "555555")))

		var wg sync.WaitGroup
		wins := make(chan struct{}, 20)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.store.Consume(s.ctx, "race@uni.edu", "555555", models.PurposeStudentVerification, s.now); err == nil {
					wins <- struct{}{}
				}
			}()
		}
		wg.Wait()
		close(wins)
		s.Len(wins, 1)
	})

	s.Run("expired record is not consumable", func() {
		s.Require().NoError(s.store.Replace(s.ctx, s.record("old@uni.edu", "666666")))
		_, err := s.store.Consume(s.ctx, "old@uni.edu", "666666", models.PurposeStudentVerification, s.now.Add(time.Hour))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestFindActive() {
	s.Require().NoError(s.store.Replace(s.ctx, s.record("find@uni.edu", "777777")))

	rec, err := s.store.FindActive(s.ctx, "find@uni.edu", models.PurposeStudentVerification, s.now)
	s.Require().NoError(err)
	s.Equal("777777", rec.Code)

	_, err = s.store.FindActive(s.ctx, "find@uni.edu", models.PurposeStudentVerification, s.now.Add(time.Hour))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestSweep() {
	s.Require().NoError(s.store.Replace(s.ctx, s.record("live@uni.edu", "111111")))
	s.Require().NoError(s.store.Replace(s.ctx, s.record("dead@uni.edu", "222222")))
	_, err := s.store.Consume(s.ctx, "dead@uni.edu", "222222", models.PurposeStudentVerification, s.now)
	s.Require().NoError(err)

	s.Equal(1, s.store.Sweep(s.now))

	// The live record survives the sweep.
	_, err = s.store.FindActive(s.ctx, "live@uni.edu", models.PurposeStudentVerification, s.now)
	s.NoError(err)
}
