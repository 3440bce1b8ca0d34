package mailer

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/iWorld-y/visit_report/app/visit_report/pkg/config"
)

// Message one outgoing mail
type Message struct {
	To         []string
	Subject    string
	HTML       string
	Text       string
	Attachment *Attachment
}

// Attachment file sent along a message
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Sender delivers one message
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// SMTPSender delivers through an SMTP relay
type SMTPSender struct {
	cfg    config.MailConfig
	client *mail.Client
}

// Ensure SMTPSender implements Sender
var _ Sender = (*SMTPSender)(nil)

// NewSMTPSender creates a relay client from the mail config
func NewSMTPSender(cfg config.MailConfig) (*SMTPSender, error) {
	opts := []mail.Option{mail.WithPort(cfg.Port)}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	if cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTPSender{cfg: cfg, client: client}, nil
}

// Send builds a multipart message and delivers it
func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	m := mail.NewMsg()
	if s.cfg.FromName != "" {
		if err := m.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return fmt.Errorf("invalid from: %w", err)
		}
	} else if err := m.From(s.cfg.From); err != nil {
		return fmt.Errorf("invalid from: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return fmt.Errorf("invalid recipients: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)
	if msg.Text != "" {
		m.AddAlternativeString(mail.TypeTextPlain, msg.Text)
	}
	if a := msg.Attachment; a != nil {
		var opts []mail.FileOption
		if a.ContentType != "" {
			opts = append(opts, mail.WithFileContentType(mail.ContentType(a.ContentType)))
		}
		if err := m.AttachReader(a.Name, bytes.NewReader(a.Data), opts...); err != nil {
			return fmt.Errorf("attach %s: %w", a.Name, err)
		}
	}

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
