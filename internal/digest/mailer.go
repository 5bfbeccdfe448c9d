package digest

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/salesops/stackranker/pkg/config"
	"github.com/salesops/stackranker/pkg/logger"
)

// Mailer delivers rendered HTML bodies over SMTP with STARTTLS.
type Mailer struct {
	cfg config.SMTPConfig
	log *logger.Logger

	// send is swappable for tests.
	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// NewMailer creates a mailer from the SMTP configuration.
func NewMailer(cfg config.SMTPConfig, log *logger.Logger) *Mailer {
	return &Mailer{
		cfg:  cfg,
		log:  log,
		send: smtp.SendMail,
	}
}

// Enabled reports whether outbound mail is configured.
func (m *Mailer) Enabled() bool {
	return m.cfg.Enabled
}

// Send delivers one HTML email to the configured recipients. When SMTP is
// disabled it logs and returns nil so callers need no special casing.
func (m *Mailer) Send(subject, htmlBody string) error {
	if !m.cfg.Enabled {
		m.log.WithField("subject", subject).Debug("smtp disabled, skipping send")
		return nil
	}
	if len(m.cfg.To) == 0 {
		return fmt.Errorf("smtp: no recipients configured")
	}

	addr := m.cfg.Host + ":" + m.cfg.Port
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	msg := buildMessage(m.cfg.From, m.cfg.To, subject, htmlBody)
	if err := m.send(addr, auth, m.cfg.From, m.cfg.To, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	m.log.WithFields(map[string]interface{}{
		"subject":    subject,
		"recipients": len(m.cfg.To),
	}).Info("email sent")
	return nil
}

// buildMessage assembles an RFC 5322 message with an HTML body.
func buildMessage(from string, to []string, subject, htmlBody string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(to, ", ") + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}
