package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"tallerlink/pkg/logger"
)

const subject = "tallerlink.push"

// NatsBroadcaster bridges pushes across serving processes over a NATS
// subject. Each process tags envelopes with its own origin id and
// ignores its echoes, so local fan-out happens exactly once.
type NatsBroadcaster struct {
	nc     *nats.Conn
	origin string
	sub    *nats.Subscription
}

func NewNatsBroadcaster(url string) (*NatsBroadcaster, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NatsBroadcaster{
		nc:     nc,
		origin: uuid.New().String(),
	}, nil
}

func (b *NatsBroadcaster) Publish(ctx context.Context, env Envelope) error {
	env.Origin = b.origin

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	if err := b.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

func (b *NatsBroadcaster) Subscribe(ctx context.Context, handler func(env Envelope)) error {
	sub, err := b.nc.Subscribe(subject, func(msg *nats.Msg) {
		var env Envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			logger.Warn("Dropping malformed broadcast envelope: %v", err)
			return
		}
		if env.Origin == b.origin {
			return
		}
		handler(env)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	b.sub = sub

	go func() {
		<-ctx.Done()
		sub.Unsubscribe()
	}()

	return nil
}

func (b *NatsBroadcaster) Close() error {
	if b.sub != nil {
		b.sub.Unsubscribe()
	}
	b.nc.Close()
	return nil
}
