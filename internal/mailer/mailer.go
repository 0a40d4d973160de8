package mailer

import (
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"
)

type Config struct {
	Host     string
	Port     string
	From     string
	Password string
	// BaseURL prefixes credential locators in outgoing mail.
	BaseURL string
}

type Mailer struct {
	cfg Config
	log *zerolog.Logger
}

func New(cfg Config, log *zerolog.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log}
}

// SendRegistrationEmail mails the attendee a confirmation with a link to the
// QR credential. Callers treat failures as non-fatal.
func (m *Mailer) SendRegistrationEmail(eventTitle, recipient, credentialLocator string) error {
	subject := fmt.Sprintf("Registration confirmed: %s", eventTitle)
	body := fmt.Sprintf(
		"Hello!\n\nYour registration for %q is confirmed.\nYour entry QR code: %s%s\n\nShow it at the door. See you there!",
		eventTitle, m.cfg.BaseURL, credentialLocator,
	)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.cfg.From, recipient, subject, body,
	)

	addr := m.cfg.Host + ":" + m.cfg.Port
	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.Host)

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{recipient}, []byte(msg)); err != nil {
		m.log.Warn().Msgf("failed to send email to %s: %v", recipient, err)
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info().Msgf("confirmation email sent to %s (event: %s)", recipient, eventTitle)
	return nil
}
