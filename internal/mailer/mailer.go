// Package mailer delivers confirmation codes. Sends are fire-and-forget from
// the caller's perspective: a failed send is logged and reported, never
// retried here.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"golang.org/x/time/rate"

	"reviewhub/internal/config"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends mail through a plain SMTP relay. Outbound sends are
// throttled so a signup flood cannot saturate the relay.
type SMTPMailer struct {
	addr    string
	from    string
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewSMTPMailer(cfg *config.Config, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{
		addr:    fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		from:    cfg.EmailFrom,
		limiter: rate.NewLimiter(rate.Limit(5), 10), // 5 mails/s sustained
		logger:  logger,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("mail throttle: %w", err)
	}

	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(m.addr, nil, m.from, []string{to}, []byte(msg)); err != nil {
		m.logger.Error("failed to send mail", "to", to, "error", err)
		return fmt.Errorf("send mail: %w", err)
	}

	m.logger.Info("mail sent", "to", to, "subject", subject)
	return nil
}

// LogMailer writes mail to the log instead of a relay. Used in development
// where no SMTP server is running.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.logger.Info("mail (log transport)", "to", to, "subject", subject, "body", body)
	return nil
}
