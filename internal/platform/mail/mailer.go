package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ReminderEmail is the payload for an expiry reminder notification.
type ReminderEmail struct {
	TenantID        string
	Email           string
	Name            string
	DaysRemaining   int
	NextBillingDate time.Time
}

// Mailer dispatches reminder notifications. Implementations report failures
// per message; callers decide whether to retry or record.
type Mailer interface {
	SendReminder(ctx context.Context, msg *ReminderEmail) error
}

// SMTPMailer sends reminders through a plain SMTP relay.
type SMTPMailer struct {
	cfg config.SMTPConfig
	log *zap.SugaredLogger
}

func NewSMTPMailer(cfg *config.Config, log *zap.SugaredLogger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg.SMTP, log: log}
}

func (m *SMTPMailer) SendReminder(ctx context.Context, msg *ReminderEmail) error {
	sender := m.cfg.Sender
	if sender == "" {
		sender = "no-reply@localhost"
	}

	var auth smtp.Auth
	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	name := msg.Name
	if name == "" {
		name = "cliente"
	}
	subject := fmt.Sprintf("Sua assinatura expira em %d dias", msg.DaysRemaining)
	body := fmt.Sprintf(
		"Olá %s,\r\n\r\nSua assinatura expira em %s. Renove para manter o acesso à sua agenda.\r\n",
		name, msg.NextBillingDate.Format("02/01/2006"))

	payload := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, msg.Email, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/plain; charset=UTF-8\r\n\r\n" +
			body,
	)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if err := smtp.SendMail(addr, auth, sender, []string{msg.Email}, payload); err != nil {
		m.log.Errorw("smtp_send_failed", "tenant_id", msg.TenantID, "err", err)
		return fmt.Errorf("smtp send: %w", err)
	}
	m.log.Infow("reminder_email_sent", "tenant_id", msg.TenantID, "days", msg.DaysRemaining)
	return nil
}

// LogMailer only logs the would-be send. Used when no SMTP host is
// configured (dev environments).
type LogMailer struct {
	log *zap.SugaredLogger
}

func (m *LogMailer) SendReminder(_ context.Context, msg *ReminderEmail) error {
	m.log.Infow("reminder_email_skipped_no_smtp",
		"tenant_id", msg.TenantID, "email", msg.Email, "days", msg.DaysRemaining)
	return nil
}

func NewMailer(cfg *config.Config, log *zap.SugaredLogger) Mailer {
	if cfg.SMTP.Host == "" {
		return &LogMailer{log: log}
	}
	return NewSMTPMailer(cfg, log)
}

var Module = fx.Options(
	fx.Provide(NewMailer),
)
