package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"goclean/pkg/cache"
	"goclean/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HubPublisher delivers events straight to the local hub. It is used when
// the service runs as a single instance.
type HubPublisher struct {
	hub *Hub
}

func NewHubPublisher(hub *Hub) *HubPublisher {
	return &HubPublisher{hub: hub}
}

// PublishToUser is a no-op for users without a connection on this instance.
func (p *HubPublisher) PublishToUser(ctx context.Context, userID primitive.ObjectID, event string, data interface{}) error {
	if !p.hub.IsOnline(userID) {
		return nil
	}
	p.hub.SendToUser(userID, event, data)
	return nil
}

type relayEnvelope struct {
	UserID primitive.ObjectID `json:"user_id"`
	Event  string             `json:"event"`
	Data   json.RawMessage    `json:"data"`
}

// RedisRelay fans events out through a Redis channel so that every instance
// delivers to the sockets it holds locally.
type RedisRelay struct {
	cache   *cache.RedisCache
	hub     *Hub
	channel string
	logger  *logger.Logger
}

func NewRedisRelay(redisCache *cache.RedisCache, hub *Hub, channel string, log *logger.Logger) *RedisRelay {
	return &RedisRelay{
		cache:   redisCache,
		hub:     hub,
		channel: channel,
		logger:  log,
	}
}

func (r *RedisRelay) PublishToUser(ctx context.Context, userID primitive.ObjectID, event string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode relay payload: %w", err)
	}

	if err := r.cache.Publish(ctx, r.channel, relayEnvelope{UserID: userID, Event: event, Data: raw}); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", r.channel, err)
	}

	return nil
}

// Run consumes the relay channel until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) {
	sub := r.cache.Subscribe(ctx, r.channel)
	defer sub.Close()

	r.logger.WithField("channel", r.channel).Info("Notification relay subscribed")

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			r.deliver([]byte(msg.Payload))
		}
	}
}

func (r *RedisRelay) deliver(payload []byte) {
	var envelope relayEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		r.logger.WithError(err).Warn("Dropping malformed relay message")
		return
	}
	if !r.hub.IsOnline(envelope.UserID) {
		return
	}

	r.hub.SendToUser(envelope.UserID, envelope.Event, envelope.Data)
}
