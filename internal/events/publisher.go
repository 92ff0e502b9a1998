package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Publisher fans an event out to topic subscribers. Publishing is best-effort
// and strictly after the state mutation committed: failures are logged and
// dropped, never propagated to the caller.
type Publisher interface {
	Publish(ctx context.Context, env Envelope)
}

const fanoutChannel = "events:fanout"

// RedisPublisher pushes envelopes through a redis pub/sub channel so every
// API instance delivers to its own connected websocket clients.
type RedisPublisher struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRedisPublisher(rdb *redis.Client, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, logger: logger}
}

func (p *RedisPublisher) Publish(ctx context.Context, env Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		p.logger.Error("marshaling event", zap.String("topic", env.Topic), zap.Error(err))
		return
	}

	if err := p.rdb.Publish(ctx, fanoutChannel, payload).Err(); err != nil {
		p.logger.Warn("publishing event dropped",
			zap.String("topic", env.Topic),
			zap.String("event", env.Event),
			zap.Error(err))
	}
}

// RunBridge consumes the fan-out channel and hands each envelope to the local
// hub. Blocks until ctx is cancelled.
func RunBridge(ctx context.Context, rdb *redis.Client, hub *Hub, logger *zap.Logger) {
	sub := rdb.Subscribe(ctx, fanoutChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				logger.Warn("dropping malformed event", zap.Error(err))
				continue
			}
			hub.Deliver(env)
		}
	}
}
