package email

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

type MailerSendSender struct {
	client *mailersend.Mailersend
	from   mailersend.From
}

func NewMailerSendSender(apiKey, fromEmail, fromName string) (*MailerSendSender, error) {
	if apiKey == "" || fromEmail == "" {
		return nil, fmt.Errorf("mailersend requires an api key and a from address")
	}

	return &MailerSendSender{
		client: mailersend.NewMailersend(apiKey),
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}, nil
}

func (m *MailerSendSender) Send(ctx context.Context, message *Message) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: message.ToName, Email: message.To}})
	msg.SetSubject(message.Subject)
	if strings.TrimSpace(message.Text) != "" {
		msg.SetText(message.Text)
	}
	if strings.TrimSpace(message.HTML) != "" {
		msg.SetHTML(message.HTML)
	}

	res, err := m.client.Email.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("mailersend send failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("mailersend error: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}
