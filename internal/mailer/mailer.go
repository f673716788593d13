// Package mailer is the outbound mail boundary: a narrow Sender
// interface the dispatcher talks to, and an SMTP implementation.
// Tests inject a stub that records calls without touching the network.
package mailer

import (
	"context"
	"io"

	gomail "gopkg.in/gomail.v2"

	"github.com/rawbank/siop-reporter/internal/config"
)

// Message is one outbound report mail. Fire-and-forget: no delivery
// confirmation is consumed.
type Message struct {
	To             string
	Cc             []string
	Subject        string
	Body           string
	AttachmentName string
	Attachment     []byte
}

// Sender sends one message. Exactly one attempt per call.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender delivers through a plain SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	// gomail carries no context; honor cancellation before dialing.
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage(gomail.SetCharset("UTF-8"))
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	if len(msg.Cc) > 0 {
		m.SetHeader("Cc", msg.Cc...)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	if len(msg.Attachment) > 0 {
		payload := msg.Attachment
		m.Attach(msg.AttachmentName, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(payload)
			return err
		}))
	}

	return s.dialer.DialAndSend(m)
}
