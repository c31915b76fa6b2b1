package email

import "context"

// Sender delivers a single rendered email.
type Sender interface {
	Send(ctx context.Context, message *Message) error
}

type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}
