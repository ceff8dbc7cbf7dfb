// Package transport bridges the conversation engine to chat platforms. The
// engine only sees the Adapter interface; platform mechanics (pairing,
// reconnection, wire formats) live in the adapter implementations.
package transport

import (
	"context"
	"time"
)

// Adapter is the interface platform implementations must satisfy.
type Adapter interface {
	// Connect establishes a connection to the chat platform.
	Connect(ctx context.Context) error

	// Listen returns a channel of inbound messages. The channel is closed
	// when the context is cancelled or the adapter is closed. Listen must
	// only be called after Connect.
	Listen(ctx context.Context) (<-chan InboundMessage, error)

	// Send delivers an outbound message to the platform.
	Send(ctx context.Context, msg OutboundMessage) error

	// Close gracefully shuts down the adapter connection.
	Close() error
}

// InboundMessage is a message received from the chat platform. SenderID is
// the opaque channel identity all per-user state is keyed by.
type InboundMessage struct {
	MessageID  string    // transport message id, used for deduplication
	SenderID   string    // channel identity
	SenderName string    // human-readable name, if the platform provides one
	Text       string    // raw message text; empty for non-text payloads
	IsFromSelf bool      // sent from the bot's own channel identity
	Timestamp  time.Time // when the message was sent
}

// OutboundMessage is a message to deliver to a channel.
type OutboundMessage struct {
	Channel     string       // target channel identity
	Text        string       // message text
	Attachments []Attachment // media sends, already capped and mime-typed
}

// BotUserIDer is an optional interface adapters can implement to expose the
// bot's own channel identity. Adapters that know it set IsFromSelf on
// inbound messages themselves; this is for callers that need it directly.
type BotUserIDer interface {
	BotUserID() string
}
