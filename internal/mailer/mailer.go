// Package mailer delivers notification emails over SMTP
package mailer

import (
	"context"
	"fmt"

	"github.com/mseiser/SelfMemo2/internal/config"
	"gopkg.in/mail.v2"
)

type smtpMailer struct {
	from string
	send func(m *mail.Message) error
}

// NewSMTPMailer creates a mailer that opens one SMTP connection per message
func NewSMTPMailer(cfg config.SMTPConfig) *smtpMailer {
	dialer := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &smtpMailer{
		from: cfg.From,
		send: func(m *mail.Message) error {
			return dialer.DialAndSend(m)
		},
	}
}

// Send sends a plain text email
func (s *smtpMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if to == "" {
		return fmt.Errorf("failed to send email: empty recipient")
	}

	if err := s.send(s.newMessage(to, subject, body)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (s *smtpMailer) newMessage(to, subject, body string) *mail.Message {
	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return m
}
