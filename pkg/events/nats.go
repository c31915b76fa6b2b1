package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"goclean/pkg/logger"

	"github.com/nats-io/nats.go"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
}

type NATSEventBus struct {
	conn          *nats.Conn
	subscriptions []*nats.Subscription
	logger        *logger.Logger
}

func NewNATSEventBus(url string, log *logger.Logger) (*NATSEventBus, error) {
	conn, err := nats.Connect(url,
		nats.Name("goclean"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.WithField("url", c.ConnectedUrl()).Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn, logger: log}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	n.logger.WithContext(ctx).WithField("subject", subject).Debug("Publishing event")

	return n.conn.Publish(subject, payload)
}

// QueueSubscribe delivers each message on subject to exactly one member of
// queue. Handlers run on the NATS dispatch goroutine.
func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	sub, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
		})
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	n.subscriptions = append(n.subscriptions, sub)
	return nil
}

// Close drains subscriptions so in-flight handlers finish before the
// connection goes away.
func (n *NATSEventBus) Close() error {
	for _, sub := range n.subscriptions {
		if err := sub.Drain(); err != nil {
			n.logger.WithError(err).Warn("Failed to drain NATS subscription")
		}
	}
	return n.conn.Drain()
}

// RewardEarnedEvent is published once per credited referral tier.
type RewardEarnedEvent struct {
	ReferralID    string    `json:"referral_id"`
	ReferrerID    string    `json:"referrer_id"`
	RefereeID     string    `json:"referee_id"`
	RewardType    string    `json:"reward_type"`
	CreditsEarned int64     `json:"credits_earned"`
	EarnedAt      time.Time `json:"earned_at"`
}
