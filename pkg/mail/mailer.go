package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/sirupsen/logrus"
)

// Mailer defines the interface for sending booking emails
type Mailer interface {
	// Send delivers a plain-text email to a single recipient
	Send(to, subject, body string) error

	// GetName returns the name of the mailer implementation
	GetName() string
}

// SMTPConfig holds the connection details for the SMTP mailer
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// SMTPMailer sends mail through an authenticated SMTP relay
type SMTPMailer struct {
	config SMTPConfig
}

// NewSMTPMailer creates a new SMTPMailer
func NewSMTPMailer(config SMTPConfig) *SMTPMailer {
	return &SMTPMailer{config: config}
}

// Send delivers the message via SMTP with PLAIN auth
func (m *SMTPMailer) Send(to, subject, body string) error {
	addr := m.config.Host + ":" + m.config.Port
	auth := smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)

	var msg strings.Builder
	msg.WriteString("From: " + m.config.From + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(addr, auth, m.config.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	return nil
}

// GetName returns the mailer name
func (m *SMTPMailer) GetName() string {
	return "smtp"
}

// LogMailer logs messages instead of sending them. Used in development
// so the booking flow works without an SMTP relay.
type LogMailer struct {
	logger *logrus.Logger
}

// NewLogMailer creates a new LogMailer
func NewLogMailer(logger *logrus.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the message at info level
func (m *LogMailer) Send(to, subject, body string) error {
	m.logger.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Info("Email (dev mode, not sent)")
	m.logger.Debug(body)
	return nil
}

// GetName returns the mailer name
func (m *LogMailer) GetName() string {
	return "log"
}
