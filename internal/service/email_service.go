package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/smtp"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"coursehub-backend/internal/config"
	"coursehub-backend/pkg/logger"
)

// ErrEmailDisabled is returned by Send when no transport is configured.
var ErrEmailDisabled = errors.New("email service is disabled or not configured")

// EmailMessage is a single outgoing email.
type EmailMessage struct {
	To       string
	ToName   string
	Subject  string
	Text     string
	HTML     string
	Category string
}

// Mailer sends transactional email.
type Mailer interface {
	Enabled() bool
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailService sends through SendGrid when an API key is configured and
// falls back to plain SMTP otherwise.
type EmailService struct {
	enabled  bool
	smtp     emailConfig
	sendgrid *sendgrid.Client
	fromName string
}

type emailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func NewEmailService(cfg *config.Config) *EmailService {
	s := &EmailService{fromName: "CourseHub"}
	if cfg == nil {
		return s
	}

	s.enabled = cfg.EnableEmail
	s.smtp = emailConfig{
		Host:     strings.TrimSpace(cfg.SMTPHost),
		Port:     strings.TrimSpace(cfg.SMTPPort),
		Username: strings.TrimSpace(cfg.SMTPUsername),
		Password: strings.TrimSpace(cfg.SMTPPassword),
		From:     strings.TrimSpace(cfg.SMTPFrom),
	}
	if s.smtp.Port == "" {
		s.smtp.Port = "587"
	}
	if s.smtp.From == "" && s.smtp.Host != "" {
		s.smtp.From = "noreply@" + s.smtp.Host
	}
	if key := strings.TrimSpace(cfg.SendGridAPIKey); key != "" {
		s.sendgrid = sendgrid.NewSendClient(key)
	}
	return s
}

func (s *EmailService) Enabled() bool {
	if s == nil || !s.enabled {
		return false
	}
	if s.sendgrid != nil {
		return s.smtp.From != ""
	}
	return s.smtp.Host != "" && s.smtp.Username != "" && s.smtp.Password != ""
}

func (s *EmailService) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || !s.Enabled() {
		return ErrEmailDisabled
	}
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return errors.New("recipient is required")
	}

	if s.sendgrid != nil {
		return s.sendWithSendGrid(ctx, msg)
	}
	return s.sendWithSMTP(msg)
}

func (s *EmailService) sendWithSendGrid(ctx context.Context, msg EmailMessage) error {
	from := mail.NewEmail(s.fromName, s.smtp.From)
	to := mail.NewEmail(msg.ToName, strings.TrimSpace(msg.To))
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)
	if msg.Category != "" {
		message.AddCategories(msg.Category)
	}

	resp, err := s.sendgrid.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, strings.TrimSpace(resp.Body))
	}

	logger.Debug("Email sent", map[string]interface{}{"transport": "sendgrid", "category": msg.Category})
	return nil
}

func (s *EmailService) sendWithSMTP(msg EmailMessage) error {
	cfg := s.smtp
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)

	to := strings.TrimSpace(msg.To)
	var builder strings.Builder
	headers := [][2]string{
		{"From", fmt.Sprintf("%s <%s>", s.fromName, cfg.From)},
		{"To", to},
		{"Subject", msg.Subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/plain; charset=UTF-8"},
	}
	for _, header := range headers {
		builder.WriteString(header[0])
		builder.WriteString(": ")
		builder.WriteString(header[1])
		builder.WriteString("\r\n")
	}
	builder.WriteString("\r\n")
	builder.WriteString(msg.Text)

	if err := smtp.SendMail(addr, auth, cfg.From, []string{to}, []byte(builder.String())); err != nil {
		return err
	}

	logger.Debug("Email sent", map[string]interface{}{"transport": "smtp", "category": msg.Category})
	return nil
}

// verificationEmail builds the message that confirms an instructor address.
func verificationEmail(to, name, link string) EmailMessage {
	greeting := "Hello"
	if name != "" {
		greeting = "Hello " + name
	}
	text := fmt.Sprintf("%s,\n\nthanks for applying to teach on CourseHub. Confirm your email address by opening the link below:\n\n%s\n\nIf you did not sign up, ignore this message.\n", greeting, link)
	htmlBody := fmt.Sprintf(`<p>%s,</p><p>thanks for applying to teach on CourseHub. Confirm your email address:</p><p><a href="%s">Verify email</a></p><p>If you did not sign up, ignore this message.</p>`,
		html.EscapeString(greeting), html.EscapeString(link))
	return EmailMessage{
		To:       to,
		ToName:   name,
		Subject:  "Confirm your email address",
		Text:     text,
		HTML:     htmlBody,
		Category: "instructor-verification",
	}
}
