package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/google/uuid"

	"collegenet/internal/platform/config"
)

const (
	subjectStudentVerification = "CollegeNetwork - Student Verification Code"
	subjectPasswordReset       = "CollegeNetwork - Password Reset Code"
	subjectDecision            = "CollegeNetwork - Registration Decision"
)

var codeTemplate = template.Must(template.New("code").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Verification Code</h2>
  <p>Your verification code is:</p>
  <p style="font-size: 32px; font-weight: bold; letter-spacing: 5px;">{{.Code}}</p>
  <p>This code will expire in 10 minutes. If you didn't request this code, please ignore this email.</p>
</div>`))

var decisionTemplate = template.Must(template.New("decision").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Registration {{if .Approved}}Approved{{else}}Rejected{{end}}</h2>
  <p>Dear {{.CollegeName}},</p>
  {{if .Approved}}<p>Your institution has been verified. Students with your email domain can now register.</p>
  {{else}}<p>Your registration was not approved.{{if .Reason}} Reason: {{.Reason}}{{end}}</p>{{end}}
</div>`))

// SMTPNotifier sends mail over plain SMTP. No third-party mail dependency;
// the delivery provider is expected to sit behind a standard SMTP endpoint.
type SMTPNotifier struct {
	cfg config.SMTPConfig
}

func NewSMTPNotifier(cfg config.SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

func (n *SMTPNotifier) SendVerificationCode(ctx context.Context, email, code, purpose string) (Result, error) {
	subject := subjectStudentVerification
	if purpose == "password_reset" {
		subject = subjectPasswordReset
	}

	var body bytes.Buffer
	if err := codeTemplate.Execute(&body, struct{ Code string }{Code: code}); err != nil {
		return Result{}, fmt.Errorf("render code email: %w", err)
	}
	return n.send(ctx, email, subject, body.String())
}

func (n *SMTPNotifier) SendApprovalDecision(ctx context.Context, email, collegeName string, approved bool, reason string) (Result, error) {
	var body bytes.Buffer
	err := decisionTemplate.Execute(&body, struct {
		CollegeName string
		Approved    bool
		Reason      string
	}{CollegeName: collegeName, Approved: approved, Reason: reason})
	if err != nil {
		return Result{}, fmt.Errorf("render decision email: %w", err)
	}
	return n.send(ctx, email, subjectDecision, body.String())
}

func (n *SMTPNotifier) send(ctx context.Context, to, subject, htmlBody string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	id := uuid.NewString()
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "Message-ID: <%s>\r\n", id)
	fmt.Fprintf(&msg, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	if err := smtp.SendMail(addr, auth, n.cfg.From, []string{to}, msg.Bytes()); err != nil {
		return Result{}, fmt.Errorf("send mail to %s: %w", to, err)
	}
	return Result{MessageID: id}, nil
}
