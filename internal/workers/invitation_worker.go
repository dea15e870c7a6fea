package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ideahub/internal/domain"
)

const (
	// defaultPollInterval is the pause between poll cycles. Deliberate
	// backpressure, not an error condition.
	defaultPollInterval = 15 * time.Second
	// defaultBatchSize bounds how many entries one read claims.
	defaultBatchSize = 10
)

// InvitationWorker drains the invitation stream under the consumer group and
// delivers each entry as an email, at least once. It acknowledges an entry
// only after the send succeeded; everything else stays on the group's pending
// list and is replayed, including across process restarts.
type InvitationWorker struct {
	stream       domain.InvitationStream
	emailService domain.EmailService
	clientURL    string
	logger       *slog.Logger

	pollInterval time.Duration
	batchSize    int64
}

// NewInvitationWorker creates a worker over the given stream and email
// service. clientURL is the frontend origin used to build registration links.
func NewInvitationWorker(stream domain.InvitationStream, emailService domain.EmailService, clientURL string, logger *slog.Logger) *InvitationWorker {
	return &InvitationWorker{
		stream:       stream,
		emailService: emailService,
		clientURL:    clientURL,
		logger:       logger,
		pollInterval: defaultPollInterval,
		batchSize:    defaultBatchSize,
	}
}

// Run executes the consumer loop until ctx is cancelled. It is meant to run
// as one background goroutine per process, concurrent with request handling;
// it owns no request-scoped state. Stream failures never terminate the loop,
// they are logged and retried next cycle.
func (w *InvitationWorker) Run(ctx context.Context) {
	for {
		if err := w.stream.EnsureGroup(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("failed to ensure consumer group, retrying", "err", err)
			if !w.sleep(ctx) {
				return
			}
			continue
		}
		break
	}

	w.logger.Info("invitation worker started", "poll_interval", w.pollInterval)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("invitation worker stopping")
			return
		default:
		}

		w.runCycle(ctx)

		if !w.sleep(ctx) {
			w.logger.Info("invitation worker stopping")
			return
		}
	}
}

// runCycle executes both phases of the redelivery algorithm: first replay
// this consumer's pending entries (claimed before a crash, never acked),
// then claim new ones. Skipping the pending phase would silently break crash
// recovery, so it runs every cycle, not just at boot.
func (w *InvitationWorker) runCycle(ctx context.Context) {
	phases := []struct {
		name string
		read func(context.Context, int64) ([]*domain.StreamMessage, error)
	}{
		{"pending", w.stream.ReadPending},
		{"new", w.stream.ReadNew},
	}
	for _, phase := range phases {
		msgs, err := phase.read(ctx, w.batchSize)
		if err != nil {
			w.logger.Error("stream read failed", "phase", phase.name, "err", err)
			continue
		}
		for _, msg := range msgs {
			w.deliver(ctx, msg)
		}
	}
}

// deliver sends one invitation email and acks on success. A failed send is
// logged and the entry left unacknowledged: the pending replay will pick it
// up again, indefinitely, until it goes through or an operator intervenes.
func (w *InvitationWorker) deliver(ctx context.Context, msg *domain.StreamMessage) {
	data := &domain.InvitationEmailData{
		Receiver:         msg.Receiver,
		SenderFirstName:  msg.SenderFirstName,
		SenderLastName:   msg.SenderLastName,
		RegistrationLink: fmt.Sprintf("%s/auth/registration?code=%s", w.clientURL, msg.InvitationID),
	}
	if err := w.emailService.SendInvitation(ctx, data); err != nil {
		w.logger.Error("invitation delivery failed, will retry",
			"stream_id", msg.ID, "invitation_id", msg.InvitationID, "receiver", msg.Receiver, "err", err)
		return
	}

	if err := w.stream.Ack(ctx, msg.ID); err != nil {
		// Delivered but not acked: it will be redelivered. At-least-once
		// means this is the acceptable side of the trade.
		w.logger.Error("failed to ack delivered invitation", "stream_id", msg.ID, "err", err)
		return
	}
	w.logger.Debug("invitation delivered",
		"stream_id", msg.ID, "invitation_id", msg.InvitationID, "receiver", msg.Receiver)
}

// sleep pauses for the poll interval; returns false if ctx was cancelled.
func (w *InvitationWorker) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(w.pollInterval):
		return true
	}
}
