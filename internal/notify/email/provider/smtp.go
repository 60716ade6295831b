package provider

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"
)

// SMTPProvider implements email sending via plain SMTP. It exists mainly
// for local development against MailHog-style servers.
type SMTPProvider struct {
	host     string
	port     string
	user     string
	password string
}

// NewSMTPProvider creates an SMTP provider from SMTP_HOST/SMTP_PORT/
// SMTP_USER/SMTP_PASSWORD.
func NewSMTPProvider() *SMTPProvider {
	return &SMTPProvider{
		host:     GetEnvOrDefault("SMTP_HOST", ""),
		port:     GetEnvOrDefault("SMTP_PORT", "1025"),
		user:     GetEnvOrDefault("SMTP_USER", ""),
		password: GetEnvOrDefault("SMTP_PASSWORD", ""),
	}
}

// Name returns the provider name.
func (p *SMTPProvider) Name() string {
	return "smtp"
}

// IsConfigured returns true if an SMTP host is set.
func (p *SMTPProvider) IsConfigured() bool {
	return p.host != ""
}

// Send sends an email via SMTP.
func (p *SMTPProvider) Send(ctx context.Context, req *EmailRequest) error {
	if p.host == "" {
		return fmt.Errorf("SMTP host not configured")
	}
	if len(req.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}

	msg := buildMessage(req.From, req.To, req.Subject, req.Body)
	addr := fmt.Sprintf("%s:%s", p.host, p.port)

	var auth smtp.Auth
	if p.user != "" && p.password != "" {
		auth = smtp.PlainAuth("", p.user, p.password, p.host)
	}

	if err := smtp.SendMail(addr, auth, req.From, req.To, msg); err != nil {
		slog.Error("SMTP send failed", "error", err, "smtp_server", addr, "to", req.To)
		return fmt.Errorf("failed to send email: %w", err)
	}

	slog.Info("Email sent via SMTP", "smtp_server", addr, "to", req.To)
	return nil
}

// buildMessage builds a complete email message in RFC 822 format.
func buildMessage(from string, to []string, subject, body string) []byte {
	var msg bytes.Buffer
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)
	return msg.Bytes()
}
