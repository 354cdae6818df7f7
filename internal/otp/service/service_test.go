package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"collegenet/internal/notify"
	"collegenet/internal/otp/models"
	"collegenet/internal/otp/store"
	dErrors "collegenet/pkg/domain-errors"
	"collegenet/pkg/requestcontext"
)

// capturingNotifier records every delivery so tests can read the issued code
// back, and can be told to fail.
type capturingNotifier struct {
	sent []sentCode
	fail error
}

type sentCode struct {
	email   string
	code    string
	purpose string
}

func (n *capturingNotifier) SendVerificationCode(_ context.Context, email, code, purpose string) (notify.Result, error) {
	if n.fail != nil {
		return notify.Result{}, n.fail
	}
	n.sent = append(n.sent, sentCode{email: email, code: code, purpose: purpose})
	return notify.Result{MessageID: "msg-1"}, nil
}

func (n *capturingNotifier) SendApprovalDecision(_ context.Context, _, _ string, _ bool, _ string) (notify.Result, error) {
	return notify.Result{MessageID: "msg-2"}, nil
}

func (n *capturingNotifier) lastCode() string {
	return n.sent[len(n.sent)-1].code
}

type OTPServiceSuite struct {
	suite.Suite
	store    *store.InMemoryStore
	notifier *capturingNotifier
	service  *Service
	ctx      context.Context
	now      time.Time
}

func TestOTPServiceSuite(t *testing.T) {
	suite.Run(t, new(OTPServiceSuite))
}

func (s *OTPServiceSuite) SetupTest() {
	s.store = store.NewInMemoryStore()
	s.notifier = &capturingNotifier{}
	s.service = New(s.store, s.notifier)
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *OTPServiceSuite) draft() *models.ProfileDraft {
	return &models.ProfileDraft{Name: "Priya Patel", Semester: "4", Gender: "female", CollegeName: "Test College"}
}

func (s *OTPServiceSuite) TestIssue() {
	s.Run("delivers a six digit code", func() {
		err := s.service.Issue(s.ctx, "priya@uni.edu", models.PurposeStudentVerification, s.draft())
		s.NoError(err)
		s.Require().Len(s.notifier.sent, 1)
		s.Len(s.notifier.lastCode(), 6)
		s.Equal("student_verification", s.notifier.sent[0].purpose)
	})

	s.Run("rejects unknown purpose", func() {
		err := s.service.Issue(s.ctx, "priya@uni.edu", models.Purpose("newsletter"), nil)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("second issue invalidates the first code", func() {
		s.Require().NoError(s.service.Issue(s.ctx, "repeat@uni.edu", models.PurposeStudentVerification, s.draft()))
		first := s.notifier.lastCode()
		s.Require().NoError(s.service.Issue(s.ctx, "repeat@uni.edu", models.PurposeStudentVerification, s.draft()))
		second := s.notifier.lastCode()

		if first != second {
			_, err := s.service.Consume(s.ctx, "repeat@uni.edu", first, models.PurposeStudentVerification)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidCode))
		}
		_, err := s.service.Consume(s.ctx, "repeat@uni.edu", second, models.PurposeStudentVerification)
		s.NoError(err)
	})

	s.Run("delivery failure rolls the code back", func() {
		s.notifier.fail = errors.New("smtp down")
		err := s.service.Issue(s.ctx, "down@uni.edu", models.PurposeStudentVerification, s.draft())
		s.True(dErrors.HasCode(err, dErrors.CodeNotifyFailed))

		_, findErr := s.store.FindActive(s.ctx, "down@uni.edu", models.PurposeStudentVerification, s.now)
		s.Error(findErr)
		s.notifier.fail = nil
	})
}

func (s *OTPServiceSuite) TestConsume() {
	s.Run("valid code spends once and returns the draft", func() {
		s.Require().NoError(s.service.Issue(s.ctx, "once@uni.edu", models.PurposeStudentVerification, s.draft()))
		code := s.notifier.lastCode()

		draft, err := s.service.Consume(s.ctx, "once@uni.edu", code, models.PurposeStudentVerification)
		s.NoError(err)
		s.Require().NotNil(draft)
		s.Equal("Priya Patel", draft.Name)

		_, err = s.service.Consume(s.ctx, "once@uni.edu", code, models.PurposeStudentVerification)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidCode))
	})

	s.Run("wrong code is rejected without burning the real one", func() {
		s.Require().NoError(s.service.Issue(s.ctx, "wrong@uni.edu", models.PurposeStudentVerification, s.draft()))
		code := s.notifier.lastCode()

		bogus := "000000"
		if bogus == code {
			bogus = "000001"
		}
		_, err := s.service.Consume(s.ctx, "wrong@uni.edu", bogus, models.PurposeStudentVerification)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidCode))

		_, err = s.service.Consume(s.ctx, "wrong@uni.edu", code, models.PurposeStudentVerification)
		s.NoError(err)
	})

	s.Run("expired code is rejected", func() {
		s.Require().NoError(s.service.Issue(s.ctx, "late@uni.edu", models.PurposeStudentVerification, s.draft()))
		code := s.notifier.lastCode()

		later := requestcontext.WithTime(context.Background(), s.now.Add(DefaultTTL+time.Second))
		_, err := s.service.Consume(later, "late@uni.edu", code, models.PurposeStudentVerification)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidCode))
	})

	s.Run("purpose mismatch is rejected", func() {
		s.Require().NoError(s.service.Issue(s.ctx, "cross@uni.edu", models.PurposeStudentVerification, s.draft()))
		code := s.notifier.lastCode()

		_, err := s.service.Consume(s.ctx, "cross@uni.edu", code, models.PurposePasswordReset)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidCode))
	})
}

func (s *OTPServiceSuite) TestResend() {
	s.Run("reuses the draft from the live record", func() {
		s.Require().NoError(s.service.Issue(s.ctx, "again@uni.edu", models.PurposeStudentVerification, s.draft()))

		s.Require().NoError(s.service.Resend(s.ctx, "again@uni.edu", models.PurposeStudentVerification, nil))
		code := s.notifier.lastCode()

		draft, err := s.service.Consume(s.ctx, "again@uni.edu", code, models.PurposeStudentVerification)
		s.NoError(err)
		s.Require().NotNil(draft)
		s.Equal("Priya Patel", draft.Name)
	})

	s.Run("no live record fails with not_found", func() {
		err := s.service.Resend(s.ctx, "nobody@uni.edu", models.PurposeStudentVerification, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
