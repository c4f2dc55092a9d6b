package notifications

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/aura-webinar/storefront/pkg/queue"
)

// SMTPConfig holds the outgoing mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	// SSL dials implicit TLS (port 465); otherwise STARTTLS is used when offered.
	SSL bool
}

// SMTPSender delivers rendered emails over SMTP.
type SMTPSender struct {
	cfg    SMTPConfig
	client *mail.Client
}

// NewSMTPSender creates an SMTP sender.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	opts := []mail.Option{mail.WithPort(cfg.Port)}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password))
	}
	if cfg.SSL {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPSender{cfg: cfg, client: client}, nil
}

// Send delivers one email.
func (s *SMTPSender) Send(ctx context.Context, p queue.EmailPayload) error {
	m, err := buildMessage(s.cfg.From, s.cfg.FromName, p)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func buildMessage(from, fromName string, p queue.EmailPayload) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.FromFormat(fromName, from); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := m.AddToFormat(p.RecipientName, p.RecipientEmail); err != nil {
		return nil, fmt.Errorf("recipient address: %w", err)
	}
	m.Subject(p.Subject)
	if p.BodyText != "" {
		m.SetBodyString(mail.TypeTextPlain, p.BodyText)
		m.AddAlternativeString(mail.TypeTextHTML, p.BodyHTML)
	} else {
		m.SetBodyString(mail.TypeTextHTML, p.BodyHTML)
	}
	return m, nil
}
