package mailer

import (
	"context"
	"errors"

	"gopkg.in/gomail.v2"
)

// SMTP delivers through an authenticated SMTP relay, upgrading with STARTTLS
// when the server offers it.
type SMTP struct {
	from   string
	dialer *gomail.Dialer
}

func NewSMTP(host string, port int, user, password, from string) (*SMTP, error) {
	if host == "" || user == "" || password == "" {
		return nil, errors.New("SMTP config missing")
	}
	if from == "" {
		from = user
	}
	return &SMTP{
		from:   from,
		dialer: gomail.NewDialer(host, port, user, password),
	}, nil
}

func (s *SMTP) Name() string { return "smtp" }

func (s *SMTP) Send(ctx context.Context, msg Message) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	if err := s.dialer.DialAndSend(m); err != nil {
		return Receipt{}, err
	}
	return Receipt{Provider: s.Name()}, nil
}
