// Package mailer delivers confirmation codes to users over SMTP. The
// registration flow treats delivery as best effort; a failed send is
// logged but never fails the signup request.
package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/tesseramedia/tessera/pkg/config"
	"github.com/tesseramedia/tessera/pkg/interfaces"
)

// Mailer sends a confirmation code to a user.
type Mailer interface {
	SendConfirmationCode(ctx context.Context, toEmail, username, code string) error
}

// SMTPMailer delivers confirmation codes via a plain SMTP relay.
type SMTPMailer struct {
	cfg    *config.MailConfig
	logger interfaces.Logger
}

// New returns the mailer for the given configuration. When mail is
// disabled the returned mailer only logs the code, which keeps local
// development working without a relay.
func New(cfg *config.MailConfig, logger interfaces.Logger) Mailer {
	if cfg.Disabled {
		return &LogMailer{logger: logger}
	}
	return &SMTPMailer{cfg: cfg, logger: logger}
}

// SendConfirmationCode sends the code to the user's email address.
func (m *SMTPMailer) SendConfirmationCode(ctx context.Context, toEmail, username, code string) error {
	msg := buildMessage(m.cfg.FromAddress, toEmail, username, code)

	if err := m.send(ctx, toEmail, msg); err != nil {
		return fmt.Errorf("failed to send confirmation code: %w", err)
	}

	m.logger.Info("Sent confirmation code",
		interfaces.String("username", username))
	return nil
}

func (m *SMTPMailer) send(ctx context.Context, to, msg string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	dialer := &net.Dialer{Timeout: m.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() { _ = conn.Close() }()

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(m.cfg.FromAddress); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start message: %w", err)
	}
	if _, err := writer.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close message: %w", err)
	}

	// Message is already accepted at this point; a failed QUIT is harmless.
	_ = client.Quit()
	return nil
}

// buildMessage constructs the plain text confirmation email.
func buildMessage(from, to, username, code string) string {
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString("Subject: Your confirmation code\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(fmt.Sprintf("Hello %s,\r\n\r\n", username))
	msg.WriteString(fmt.Sprintf("Your confirmation code is: %s\r\n\r\n", code))
	msg.WriteString("Exchange it for an access token at /api/v1/auth/token/.\r\n")
	return msg.String()
}

// LogMailer logs confirmation codes instead of sending them.
type LogMailer struct {
	logger interfaces.Logger
}

// NewLogMailer creates a mailer that only logs codes.
func NewLogMailer(logger interfaces.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// SendConfirmationCode logs the code at debug level.
func (m *LogMailer) SendConfirmationCode(_ context.Context, toEmail, username, code string) error {
	m.logger.Debug("Mail disabled, confirmation code not sent",
		interfaces.String("username", username),
		interfaces.String("email", toEmail),
		interfaces.String("code", code))
	return nil
}
