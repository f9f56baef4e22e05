package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/denguechat/denguechat-admin/internal/shared"
)

// Enqueuer hands events to the background worker.
type Enqueuer interface {
	EnqueueAudit(ctx context.Context, ev Event) error
}

// Writer persists events synchronously.
type Writer interface {
	Insert(ctx context.Context, ev Event) error
}

// Recorder routes events to the queue, falling back to a direct write.
type Recorder struct {
	queue  Enqueuer
	writer Writer
	logger *slog.Logger
	now    func() time.Time
}

// NewRecorder builds a Recorder. Either sink may be nil.
func NewRecorder(queue Enqueuer, writer Writer, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{queue: queue, writer: writer, logger: logger, now: time.Now}
}

// Record stamps ev with the signed-in actor and delivers it. Failures are
// logged; auditing never fails the mutation that triggered it.
func (r *Recorder) Record(ctx context.Context, ev Event) {
	if r == nil {
		return
	}
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.At.IsZero() {
		ev.At = r.now().UTC()
	}
	if profile, ok := shared.ProfileFromContext(ctx); ok {
		if ev.ActorID == "" {
			ev.ActorID = profile.ID
		}
		if ev.Actor == "" {
			ev.Actor = profile.Username
		}
	}
	if r.queue != nil {
		err := r.queue.EnqueueAudit(ctx, ev)
		if err == nil {
			return
		}
		r.logger.Warn("audit enqueue failed, writing directly", slog.Any("error", err))
	}
	if r.writer == nil {
		r.logger.Info("audit event", slog.String("action", ev.Action), slog.String("entity", ev.Entity), slog.String("entity_id", ev.EntityID), slog.String("actor", ev.Actor))
		return
	}
	if err := r.writer.Insert(context.WithoutCancel(ctx), ev); err != nil {
		r.logger.Error("audit write failed", slog.Any("error", err), slog.String("entity", ev.Entity))
	}
}
