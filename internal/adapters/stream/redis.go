package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"ideahub/internal/domain"
)

// Stream, group, and consumer names. One logical consumer identity is active
// per deployment; scaling consumers within the group needs partition-aware
// idempotency on the delivery side.
const (
	StreamName   = "invitations_stream"
	GroupName    = "invitations_group"
	ConsumerName = "consumer-1"
)

type redisStream struct {
	client *redis.Client
}

// NewRedisStream returns an InvitationStream backed by a Redis stream with
// consumer-group reads.
func NewRedisStream(client *redis.Client) domain.InvitationStream {
	return &redisStream{client: client}
}

// Append pipelines one XADD per message so a batch travels in one round trip
// and keeps its relative order.
func (s *redisStream) Append(ctx context.Context, msgs ...*domain.StreamMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	pipe := s.client.Pipeline()
	for _, m := range msgs {
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: StreamName,
			Values: map[string]any{
				"id":                m.InvitationID,
				"receiver":          m.Receiver,
				"sender_first_name": m.SenderFirstName,
				"sender_last_name":  m.SenderLastName,
			},
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append to %s: %w", StreamName, err)
	}
	return nil
}

// EnsureGroup creates the consumer group at the stream tail ($), creating the
// stream if needed, so entries predating the worker's first boot are not
// replayed. BUSYGROUP on subsequent boots is not an error.
func (s *redisStream) EnsureGroup(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, StreamName, GroupName, "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group %s: %w", GroupName, err)
	}
	return nil
}

// ReadPending re-reads this consumer's own pending entries from the start of
// its pending list (cursor "0"): everything claimed but never acked, e.g.
// because the process crashed mid-delivery.
func (s *redisStream) ReadPending(ctx context.Context, count int64) ([]*domain.StreamMessage, error) {
	return s.readGroup(ctx, "0", count)
}

// ReadNew claims entries nobody in the group has seen yet (cursor ">").
func (s *redisStream) ReadNew(ctx context.Context, count int64) ([]*domain.StreamMessage, error) {
	return s.readGroup(ctx, ">", count)
}

func (s *redisStream) readGroup(ctx context.Context, cursor string, count int64) ([]*domain.StreamMessage, error) {
	res, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    GroupName,
		Consumer: ConsumerName,
		Streams:  []string{StreamName, cursor},
		Count:    count,
		Block:    -1, // poll, never block; the worker owns the pacing
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s at %q: %w", StreamName, cursor, err)
	}

	var msgs []*domain.StreamMessage
	for _, str := range res {
		for _, xm := range str.Messages {
			msgs = append(msgs, decodeMessage(xm))
		}
	}
	return msgs, nil
}

func (s *redisStream) Ack(ctx context.Context, id string) error {
	if err := s.client.XAck(ctx, StreamName, GroupName, id).Err(); err != nil {
		return fmt.Errorf("failed to ack %s: %w", id, err)
	}
	return nil
}

func decodeMessage(xm redis.XMessage) *domain.StreamMessage {
	m := &domain.StreamMessage{ID: xm.ID}
	for field, value := range xm.Values {
		str, ok := value.(string)
		if !ok {
			continue
		}
		switch field {
		case "id":
			m.InvitationID = str
		case "receiver":
			m.Receiver = str
		case "sender_first_name":
			m.SenderFirstName = str
		case "sender_last_name":
			m.SenderLastName = str
		}
	}
	return m
}
