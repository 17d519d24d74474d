package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
)

// Message is a confirmation email waiting to be delivered. Token is the
// signed email-confirmation token embedded in the link.
type Message struct {
	To       string
	Username string
	Host     string
	Token    string
}

// Sender delivers a confirmation message. Implementations own the transport;
// callers never learn delivery details.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

const confirmationTemplate = `<html>
<body>
<p>Hello {{.Username}},</p>
<p>Please confirm your email address by following the link below:</p>
<p><a href="{{.Host}}api/auth/confirmed_email/{{.Token}}">Confirm email</a></p>
</body>
</html>`

// SMTPSender delivers confirmation emails over SMTP.
type SMTPSender struct {
	addr     string
	auth     smtp.Auth
	from     string
	template *template.Template
}

// NewSMTPSender creates a sender for the given SMTP endpoint. Auth is skipped
// when username is empty, which keeps local development servers usable.
func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPSender{
		addr:     fmt.Sprintf("%s:%d", host, port),
		auth:     auth,
		from:     from,
		template: template.Must(template.New("confirmation").Parse(confirmationTemplate)),
	}
}

// Send renders the confirmation email and submits it to the SMTP server.
func (s *SMTPSender) Send(_ context.Context, msg Message) error {
	var body bytes.Buffer
	body.WriteString("From: " + s.from + "\r\n")
	body.WriteString("To: " + msg.To + "\r\n")
	body.WriteString("Subject: Confirm your email\r\n")
	body.WriteString("MIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	if err := s.template.Execute(&body, msg); err != nil {
		return fmt.Errorf("render confirmation email: %w", err)
	}
	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{msg.To}, body.Bytes()); err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}
	return nil
}
