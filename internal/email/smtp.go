package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender delivers mail over a direct SMTP connection via go-mail.
// SMTP has no provider message id, so Send returns the generated
// Message-ID header instead.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) (string, error) {
	from := msg.From
	fromName := msg.FromName
	if from == "" {
		from = s.fromEmail
		fromName = s.fromName
	}

	mail := gomail.NewMsg()
	if err := mail.FromFormat(fromName, from); err != nil {
		return "", fmt.Errorf("smtp from: %w", err)
	}
	if err := mail.To(msg.To); err != nil {
		return "", fmt.Errorf("smtp to: %w", err)
	}
	mail.Subject(msg.Subject)
	if msg.HTML != "" {
		mail.SetBodyString(gomail.TypeTextHTML, msg.HTML)
		if msg.Text != "" {
			mail.AddAlternativeString(gomail.TypeTextPlain, msg.Text)
		}
	} else {
		mail.SetBodyString(gomail.TypeTextPlain, msg.Text)
	}
	mail.SetMessageID()

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, mail); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}

	return mail.GetMessageID(), nil
}
