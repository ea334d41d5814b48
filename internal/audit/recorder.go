package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"maitred/internal/events"
)

// Store persists assignment decisions.
type Store interface {
	InsertAuditRecord(ctx context.Context, ev events.Event) error
	GetAuditRecords(ctx context.Context, since time.Time) ([]events.Event, error)
	DeleteAuditRecordsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Recorder is the audit sink of the assignment engine: every decision event
// is persisted and, when a publisher is configured, forwarded to the
// external monitoring channel. Audit failures are logged, never propagated
// into the scheduler.
type Recorder struct {
	store     Store
	publisher *Publisher
	logger    *zerolog.Logger
}

// NewRecorder creates a recorder. publisher may be nil.
func NewRecorder(store Store, publisher *Publisher, logger *zerolog.Logger) *Recorder {
	return &Recorder{store: store, publisher: publisher, logger: logger}
}

// Attach subscribes the recorder to every event on the bus.
func (r *Recorder) Attach(bus *events.Bus) {
	bus.Subscribe("", r.handle)
}

func (r *Recorder) handle(ev events.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.store.InsertAuditRecord(ctx, ev); err != nil {
		r.logger.Error().Err(err).
			Str("run_id", ev.RunID).
			Int64("booking_id", ev.BookingID).
			Msg("failed to persist audit record")
	}

	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, ev); err != nil {
			r.logger.Warn().Err(err).
				Str("run_id", ev.RunID).
				Int64("booking_id", ev.BookingID).
				Msg("failed to publish audit record")
		}
	}
	return nil
}

// Cleanup deletes audit records older than the retention period.
func (r *Recorder) Cleanup(ctx context.Context, retention time.Duration) {
	cutoff := time.Now().Add(-retention)
	deleted, err := r.store.DeleteAuditRecordsBefore(ctx, cutoff)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to clean up audit records")
		return
	}
	if deleted > 0 {
		r.logger.Info().Int64("deleted", deleted).Msg("cleaned up old audit records")
	}
}
