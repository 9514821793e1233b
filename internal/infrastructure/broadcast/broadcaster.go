package broadcast

import "context"

// Envelope is one cross-process push. Exactly one of ChatID or UserIDs
// is set: chat envelopes fan out to local channel members, user
// envelopes to every local connection of each listed user.
type Envelope struct {
	Origin  string   `json:"origin"`
	ChatID  string   `json:"chat_id,omitempty"`
	UserIDs []string `json:"user_ids,omitempty"`
	Payload []byte   `json:"payload"`
}

// Broadcaster relays pushes to the other serving processes. The
// in-memory registry stays the source of truth for local fan-out; a
// broadcaster only bridges processes that own other connections.
type Broadcaster interface {
	Publish(ctx context.Context, env Envelope) error
	Subscribe(ctx context.Context, handler func(env Envelope)) error
	Close() error
}

// Noop is the single-process default: publishing is a no-op because
// this process already owns every connection.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (n *Noop) Publish(ctx context.Context, env Envelope) error { return nil }

func (n *Noop) Subscribe(ctx context.Context, handler func(env Envelope)) error { return nil }

func (n *Noop) Close() error { return nil }
