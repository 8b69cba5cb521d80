// Package mailer abstracts outbound email delivery. The pipeline depends on
// the Sender interface; deployments pick SMTP or the log-only sender, and
// LoggingSender wraps either to feed the email delivery log.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	id "sponsorhub/pkg/domain"

	"sponsorhub/internal/platform/config"
)

// Message is one outbound email.
type Message struct {
	TenantID  id.TenantID
	Recipient string
	Subject   string
	Body      string
	JobName   string
	Entity    id.EntityRef
}

// Sender delivers a message. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender delivers mail over plain SMTP.
type SMTPSender struct {
	addr string
	from string
}

func NewSMTP(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from: cfg.From,
	}
}

func (s *SMTPSender) Send(_ context.Context, msg Message) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.Recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Body)

	if err := smtp.SendMail(s.addr, nil, s.from, []string{msg.Recipient}, []byte(b.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.Recipient, err)
	}
	return nil
}

// LogSender is the dev-mode sender: it logs the message instead of
// delivering it.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("email delivery (log-only mode)",
		"recipient", msg.Recipient,
		"subject", msg.Subject,
		"job", msg.JobName,
	)
	return nil
}
