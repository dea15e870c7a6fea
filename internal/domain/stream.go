package domain

import "context"

// StreamMessage is one entry of the invitation work stream. ID is assigned by
// the stream on append and identifies the entry for acknowledgement; the rest
// is the delivery payload.
type StreamMessage struct {
	ID              string
	InvitationID    string
	Receiver        string
	SenderFirstName string
	SenderLastName  string
}

// InvitationStream is the port over the log-based work stream with
// consumer-group semantics. Producers use Append; the worker uses the rest.
//
// ReadPending and ReadNew are the two phases of the redelivery algorithm:
// pending replays entries claimed but never acknowledged (e.g. the process
// crashed mid-delivery), new claims fresh entries. Every consumer cycle must
// run both, or crash recovery silently breaks.
type InvitationStream interface {
	Append(ctx context.Context, msgs ...*StreamMessage) error
	// EnsureGroup creates the consumer group at the stream tail if it does
	// not exist yet. Safe to call on every boot.
	EnsureGroup(ctx context.Context) error
	ReadPending(ctx context.Context, count int64) ([]*StreamMessage, error)
	ReadNew(ctx context.Context, count int64) ([]*StreamMessage, error)
	// Ack removes the entry from the group's pending list. Only called after
	// successful delivery; an unacked entry stays redeliverable.
	Ack(ctx context.Context, id string) error
}
