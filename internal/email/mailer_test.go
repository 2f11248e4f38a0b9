package email

import (
	"testing"

	"trade-analytics-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMailer struct {
	to      string
	subject string
	body    string
}

func (f *fakeMailer) Send(to, subject, htmlBody string) error {
	f.to, f.subject, f.body = to, subject, htmlBody
	return nil
}

func TestNewMailer(t *testing.T) {
	logger := zap.NewNop()

	t.Run("SMTP", func(t *testing.T) {
		cfg := &config.Email{
			Provider: "smtp",
			From:     "no-reply@example.com",
			SMTP:     config.SMTP{Host: "smtp.example.com", Port: 587},
		}
		m, err := NewMailer(cfg, logger)
		require.NoError(t, err)
		assert.IsType(t, &SMTPMailer{}, m)
	})

	t.Run("Resend", func(t *testing.T) {
		cfg := &config.Email{
			Provider: "resend",
			From:     "no-reply@example.com",
			Resend:   config.Resend{APIKey: "re_test"},
		}
		m, err := NewMailer(cfg, logger)
		require.NoError(t, err)
		assert.IsType(t, &ResendMailer{}, m)
	})

	t.Run("MissingSMTPHost", func(t *testing.T) {
		cfg := &config.Email{Provider: "smtp", From: "no-reply@example.com"}
		_, err := NewMailer(cfg, logger)
		assert.Error(t, err)
	})

	t.Run("MissingResendKey", func(t *testing.T) {
		cfg := &config.Email{Provider: "resend", From: "no-reply@example.com"}
		_, err := NewMailer(cfg, logger)
		assert.Error(t, err)
	})

	t.Run("UnknownProvider", func(t *testing.T) {
		cfg := &config.Email{Provider: "pigeon"}
		_, err := NewMailer(cfg, logger)
		assert.Error(t, err)
	})
}

func TestSendVerificationEmail(t *testing.T) {
	m := &fakeMailer{}
	require.NoError(t, SendVerificationEmail(m, "trader@example.com", "482913"))
	assert.Equal(t, "trader@example.com", m.to)
	assert.Contains(t, m.subject, "Verify")
	assert.Contains(t, m.body, "482913")
}

func TestSendPasswordResetEmail(t *testing.T) {
	m := &fakeMailer{}
	require.NoError(t, SendPasswordResetEmail(m, "trader@example.com", "tok-abc"))
	assert.Contains(t, m.subject, "Reset")
	assert.Contains(t, m.body, "tok-abc")
}

func TestSendWelcomeEmail(t *testing.T) {
	m := &fakeMailer{}
	require.NoError(t, SendWelcomeEmail(m, "trader@example.com", ""))
	assert.Contains(t, m.body, "Welcome, trader!")
}
