package email

import (
	"fmt"
	"net/smtp"

	"trade-analytics-go/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const resendBaseURL = "https://api.resend.com"

// Mailer sends a single HTML email.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// NewMailer creates the mailer for the configured provider.
func NewMailer(cfg *config.Email, logger *zap.Logger) (Mailer, error) {
	switch cfg.Provider {
	case "smtp":
		if cfg.SMTP.Host == "" {
			return nil, fmt.Errorf("smtp host not configured")
		}
		return NewSMTPMailer(cfg), nil
	case "resend":
		if cfg.Resend.APIKey == "" {
			return nil, fmt.Errorf("resend api key not configured")
		}
		return NewResendMailer(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported email provider %q", cfg.Provider)
	}
}

// SMTPMailer delivers mail through a plain SMTP relay.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	fromName string
}

var _ Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer creates an SMTP-backed mailer.
func NewSMTPMailer(cfg *config.Email) *SMTPMailer {
	return &SMTPMailer{
		host:     cfg.SMTP.Host,
		port:     cfg.SMTP.Port,
		username: cfg.SMTP.Username,
		password: cfg.SMTP.Password,
		from:     cfg.From,
		fromName: cfg.FromName,
	}
}

// Send delivers one HTML message.
func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	msg := []byte(fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s\r\n",
		m.fromName, m.from, to, subject, htmlBody))

	if err := smtp.SendMail(addr, auth, m.from, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send to %s failed: %w", to, err)
	}
	return nil
}

// ResendMailer delivers mail through the Resend HTTP API.
type ResendMailer struct {
	client   *resty.Client
	from     string
	fromName string
	logger   *zap.Logger
}

var _ Mailer = (*ResendMailer)(nil)

// NewResendMailer creates a Resend-backed mailer.
func NewResendMailer(cfg *config.Email, logger *zap.Logger) *ResendMailer {
	client := resty.New().
		SetBaseURL(resendBaseURL).
		SetAuthToken(cfg.Resend.APIKey)
	return &ResendMailer{
		client:   client,
		from:     cfg.From,
		fromName: cfg.FromName,
		logger:   logger,
	}
}

// Send delivers one HTML message.
func (m *ResendMailer) Send(to, subject, htmlBody string) error {
	body := map[string]interface{}{
		"from":    fmt.Sprintf("%s <%s>", m.fromName, m.from),
		"to":      []string{to},
		"subject": subject,
		"html":    htmlBody,
	}

	resp, err := m.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/emails")
	if err != nil {
		return fmt.Errorf("resend request failed: %w", err)
	}
	if resp.IsError() {
		m.logger.Error("Resend rejected email",
			zap.Int("status", resp.StatusCode()),
			zap.String("body", resp.String()))
		return fmt.Errorf("resend returned status %d", resp.StatusCode())
	}
	return nil
}
