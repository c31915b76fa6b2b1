package email

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	from := strings.TrimSpace(fromEmail)
	if fromName != "" {
		from = fmt.Sprintf("%s <%s>", fromName, from)
	}

	return &SMTPSender{
		host:     strings.TrimSpace(host),
		port:     port,
		username: strings.TrimSpace(username),
		password: password,
		from:     from,
	}
}

func (s *SMTPSender) Send(ctx context.Context, message *Message) error {
	to := strings.TrimSpace(message.To)
	if to == "" {
		return fmt.Errorf("empty recipient email")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	if err := smtp.SendMail(addr, auth, s.envelopeFrom(), []string{to}, s.build(to, message)); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}

	return nil
}

func (s *SMTPSender) envelopeFrom() string {
	if i := strings.LastIndex(s.from, "<"); i >= 0 {
		return strings.TrimSuffix(s.from[i+1:], ">")
	}
	return s.from
}

func (s *SMTPSender) build(to string, message *Message) []byte {
	var buf bytes.Buffer
	boundary := "goclean-alternative"

	fmt.Fprintf(&buf, "From: %s\r\n", s.from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", message.Subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n\r\n", message.Text)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/html; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n\r\n", message.HTML)

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes()
}
