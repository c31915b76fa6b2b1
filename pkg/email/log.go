package email

import (
	"context"

	"goclean/pkg/logger"
)

// LogSender writes emails to the log instead of delivering them. Used in
// development.
type LogSender struct {
	logger *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{logger: log}
}

func (l *LogSender) Send(ctx context.Context, message *Message) error {
	l.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"to":      message.To,
		"subject": message.Subject,
		"body":    message.Text,
	}).Info("Email not delivered (log provider)")
	return nil
}
