package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"collegenet/internal/college/models"
	"collegenet/internal/college/store"
	"collegenet/internal/notify"
	dErrors "collegenet/pkg/domain-errors"
	"collegenet/pkg/requestcontext"
)

type decisionMail struct {
	email    string
	approved bool
	reason   string
}

type recordingNotifier struct {
	decisions []decisionMail
	fail      error
}

func (n *recordingNotifier) SendVerificationCode(_ context.Context, _, _, _ string) (notify.Result, error) {
	return notify.Result{}, nil
}

func (n *recordingNotifier) SendApprovalDecision(_ context.Context, email, _ string, approved bool, reason string) (notify.Result, error) {
	if n.fail != nil {
		return notify.Result{}, n.fail
	}
	n.decisions = append(n.decisions, decisionMail{email: email, approved: approved, reason: reason})
	return notify.Result{MessageID: "msg-1"}, nil
}

type CollegeServiceSuite struct {
	suite.Suite
	colleges *store.InMemoryCollegeStore
	pending  *store.InMemoryPendingStore
	notifier *recordingNotifier
	service  *Service
	ctx      context.Context
	admin    uuid.UUID
}

func TestCollegeServiceSuite(t *testing.T) {
	suite.Run(t, new(CollegeServiceSuite))
}

func (s *CollegeServiceSuite) SetupTest() {
	s.colleges = store.NewInMemoryCollegeStore()
	s.pending = store.NewInMemoryPendingStore()
	s.notifier = &recordingNotifier{}
	s.service = New(s.colleges, s.pending, WithNotifier(s.notifier))
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	s.admin = uuid.New()
}

func (s *CollegeServiceSuite) submit(name, email string) *models.PendingRegistration {
	reg, err := s.service.Submit(s.ctx, SubmitRequest{
		Name:          name,
		ContactEmail:  email,
		DocsRef:       "https://docs.example.com/accreditation.pdf",
		TermsAccepted: true,
	})
	s.Require().NoError(err)
	return reg
}

func (s *CollegeServiceSuite) TestSubmit() {
	s.Run("records a pending registration with derived domain", func() {
		reg := s.submit("State University", "admin@stateuni.edu")
		s.Equal(models.StatusPending, reg.Status)
		s.Equal("stateuni.edu", reg.Domain())
	})

	s.Run("rejects missing terms acceptance", func() {
		_, err := s.service.Submit(s.ctx, SubmitRequest{
			Name:         "No Terms College",
			ContactEmail: "admin@noterms.edu",
			DocsRef:      "https://docs.example.com/x.pdf",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects email without domain", func() {
		_, err := s.service.Submit(s.ctx, SubmitRequest{
			Name:          "Broken College",
			ContactEmail:  "not-an-email",
			DocsRef:       "https://docs.example.com/x.pdf",
			TermsAccepted: true,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("duplicate contact email conflicts", func() {
		s.submit("First College", "dup@dupcollege.edu")
		_, err := s.service.Submit(s.ctx, SubmitRequest{
			Name:          "Second College",
			ContactEmail:  "dup@dupcollege.edu",
			DocsRef:       "https://docs.example.com/x.pdf",
			TermsAccepted: true,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *CollegeServiceSuite) TestDecide() {
	s.Run("approval creates an active trust record", func() {
		reg := s.submit("Tech Institute", "dean@tech.edu")

		outcome, err := s.service.Decide(s.ctx, reg.ID, ActionApprove, "", s.admin)
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, outcome.Registration.Status)
		s.Require().NotNil(outcome.College)
		s.Equal("tech.edu", outcome.College.Domain)
		s.True(outcome.College.Active)
		s.Equal(s.admin, outcome.College.ApprovedBy)

		college, err := s.service.ResolveDomain(s.ctx, "tech.edu")
		s.NoError(err)
		s.Equal("Tech Institute", college.Name)

		s.Require().Len(s.notifier.decisions, 1)
		s.True(s.notifier.decisions[0].approved)
	})

	s.Run("rejection stamps reason and creates no trust record", func() {
		reg := s.submit("Diploma Mill", "owner@mill.example")

		outcome, err := s.service.Decide(s.ctx, reg.ID, ActionReject, "accreditation docs missing", s.admin)
		s.Require().NoError(err)
		s.Equal(models.StatusRejected, outcome.Registration.Status)
		s.Equal("accreditation docs missing", outcome.Registration.RejectionReason)
		s.Nil(outcome.College)

		_, err = s.service.ResolveDomain(s.ctx, "mill.example")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("rejection without reason gets the default", func() {
		reg := s.submit("Quiet College", "office@quiet.edu")
		outcome, err := s.service.Decide(s.ctx, reg.ID, ActionReject, "", s.admin)
		s.Require().NoError(err)
		s.Equal("Application rejected", outcome.Registration.RejectionReason)
	})

	s.Run("second decision fails with invalid_state", func() {
		reg := s.submit("Once College", "reg@once.edu")
		_, err := s.service.Decide(s.ctx, reg.ID, ActionApprove, "", s.admin)
		s.Require().NoError(err)

		_, err = s.service.Decide(s.ctx, reg.ID, ActionReject, "changed my mind", s.admin)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("approving a second registration for a trusted domain conflicts", func() {
		first := s.submit("Main Campus", "a@shared.edu")
		second := s.submit("Satellite Campus", "b@shared.edu")
		_, err := s.service.Decide(s.ctx, first.ID, ActionApprove, "", s.admin)
		s.Require().NoError(err)

		_, err = s.service.Decide(s.ctx, second.ID, ActionApprove, "", s.admin)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown registration id fails with not_found", func() {
		_, err := s.service.Decide(s.ctx, uuid.New(), ActionApprove, "", s.admin)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown action fails validation", func() {
		reg := s.submit("Pending College", "p@pending.edu")
		_, err := s.service.Decide(s.ctx, reg.ID, Action("defer"), "", s.admin)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("notification failure does not roll back the decision", func() {
		reg := s.submit("Unreachable College", "it@unreachable.edu")
		s.notifier.fail = errors.New("smtp down")
		defer func() { s.notifier.fail = nil }()

		outcome, err := s.service.Decide(s.ctx, reg.ID, ActionApprove, "", s.admin)
		s.Require().NoError(err)
		s.NotNil(outcome.College)

		_, err = s.service.ResolveDomain(s.ctx, "unreachable.edu")
		s.NoError(err)
	})
}

func (s *CollegeServiceSuite) TestListing() {
	s.Run("pending list excludes decided registrations", func() {
		a := s.submit("Alpha", "a@alpha.edu")
		s.submit("Beta", "b@beta.edu")
		_, err := s.service.Decide(s.ctx, a.ID, ActionReject, "", s.admin)
		s.Require().NoError(err)

		pending, err := s.service.ListPending(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(pending, 1)
		s.Equal("Beta", pending[0].Name)
	})

	s.Run("verified list is name ordered and skips inactive", func() {
		for _, c := range []struct{ name, email string }{
			{"Zeta University", "z@zeta.edu"},
			{"Acme College", "a@acme.edu"},
			{"Gone College", "g@gone.edu"},
		} {
			reg := s.submit(c.name, c.email)
			_, err := s.service.Decide(s.ctx, reg.ID, ActionApprove, "", s.admin)
			s.Require().NoError(err)
		}
		_, err := s.service.Deactivate(s.ctx, "gone.edu")
		s.Require().NoError(err)

		colleges, err := s.service.ListVerified(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(colleges, 2)
		s.Equal("Acme College", colleges[0].Name)
		s.Equal("Zeta University", colleges[1].Name)
	})
}

func (s *CollegeServiceSuite) TestResolveDomain() {
	s.Run("deactivated domain resolves like an unknown one", func() {
		reg := s.submit("Retired College", "r@retired.edu")
		_, err := s.service.Decide(s.ctx, reg.ID, ActionApprove, "", s.admin)
		s.Require().NoError(err)
		_, err = s.service.Deactivate(s.ctx, "retired.edu")
		s.Require().NoError(err)

		_, err = s.service.ResolveDomain(s.ctx, "retired.edu")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
