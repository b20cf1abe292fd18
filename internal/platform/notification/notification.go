// Package notification sends client-facing email with template rendering,
// a pluggable sender, and a mock sender for tests and local development.
package notification

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/salon/salon/internal/domain/booking"
)

// EmailSender is the interface for sending email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// ---------------------------------------------------------------------------
// Template Engine
// ---------------------------------------------------------------------------

// Template defines a reusable notification template.
type Template struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// TemplateEngine manages notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates
// pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]*Template)}
	e.registerBuiltIn()
	return e
}

// TemplateBookingConfirmed is sent after an admin confirms a booking.
const TemplateBookingConfirmed = "booking-confirmed"

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      TemplateBookingConfirmed,
			Name:    "Booking Confirmation",
			Subject: "Your appointment is confirmed",
			Body: "Dear {{client_name}},\n\n" +
				"Your {{service}} appointment has been confirmed for {{date}} at {{time}}.\n\n" +
				"We look forward to seeing you!\n",
		},
		{
			ID:      "booking-cancelled",
			Name:    "Booking Cancelled",
			Subject: "Your appointment has been cancelled",
			Body: "Dear {{client_name}},\n\n" +
				"Your appointment on {{date}} at {{time}} has been cancelled. " +
				"Please visit us again to pick a new slot.\n",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by ID and performs {{key}} replacement using the
// supplied data map. Keys present in the template but absent from data are
// left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// ---------------------------------------------------------------------------
// SMTP Sender
// ---------------------------------------------------------------------------

// SMTPConfig holds SMTP sender settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// SMTPSender sends email through a plain SMTP relay.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender creates an SMTPSender from config.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) SendEmail(_ context.Context, to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + s.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="utf-8"`,
		"",
		body,
	}, "\r\n")

	addr := s.cfg.Host + ":" + s.cfg.Port
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Mock Sender (test double, also used when SMTP is not configured)
// ---------------------------------------------------------------------------

// EmailCall records a single call to SendEmail.
type EmailCall struct {
	To      string
	Subject string
	Body    string
}

// MockEmailSender is a test double for EmailSender. When ShouldFail is set it
// returns FailError, either for every call or, if FailCount is positive, only
// for the first FailCount calls.
type MockEmailSender struct {
	mu         sync.Mutex
	calls      []EmailCall
	ShouldFail bool
	FailError  string
	FailCount  int
}

// SendEmail records the call and optionally returns an error.
func (m *MockEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, EmailCall{To: to, Subject: subject, Body: body})
	if m.ShouldFail && (m.FailCount == 0 || len(m.calls) <= m.FailCount) {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded email calls.
func (m *MockEmailSender) Calls() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// ---------------------------------------------------------------------------
// Mailer
// ---------------------------------------------------------------------------

// Mailer renders and sends booking notifications. Transient sender failures
// are retried with exponential backoff before the error is surfaced.
type Mailer struct {
	sender      EmailSender
	templates   *TemplateEngine
	logger      zerolog.Logger
	maxAttempts int
	baseDelay   time.Duration
}

// NewMailer constructs a Mailer.
func NewMailer(sender EmailSender, templates *TemplateEngine, logger zerolog.Logger) *Mailer {
	return &Mailer{
		sender:      sender,
		templates:   templates,
		logger:      logger,
		maxAttempts: 3,
		baseDelay:   500 * time.Millisecond,
	}
}

// sendWithRetry calls the sender up to maxAttempts times. The delay doubles
// after each failed attempt and the context cancels the wait.
func (m *Mailer) sendWithRetry(ctx context.Context, to, subject, body string) error {
	var lastErr error
	for attempt := 0; attempt < m.maxAttempts; attempt++ {
		lastErr = m.sender.SendEmail(ctx, to, subject, body)
		if lastErr == nil {
			return nil
		}
		if attempt < m.maxAttempts-1 {
			delay := m.baseDelay * time.Duration(1<<uint(attempt))
			m.logger.Warn().
				Err(lastErr).
				Int("attempt", attempt+1).
				Dur("retry_in", delay).
				Msg("email send failed, retrying")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}

func serviceName(id string) string {
	for _, opt := range booking.ServiceOptions {
		if opt.ID == id {
			return opt.Name
		}
	}
	return id
}

// SendBookingConfirmation emails the client that their appointment was
// confirmed. Implements the booking handler's Notifier.
func (m *Mailer) SendBookingConfirmation(ctx context.Context, b *booking.Booking) error {
	subject, body, err := m.templates.Render(TemplateBookingConfirmed, map[string]string{
		"client_name": b.ClientName,
		"service":     serviceName(b.ServiceID),
		"date":        b.Date,
		"time":        b.Time,
	})
	if err != nil {
		return err
	}
	if err := m.sendWithRetry(ctx, b.ClientEmail, subject, body); err != nil {
		return err
	}
	m.logger.Info().
		Str("booking_id", b.ID.String()).
		Str("recipient", b.ClientEmail).
		Msg("confirmation email sent")
	return nil
}
