package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/denguechat/denguechat-admin/internal/audit"
	jobmetrics "github.com/denguechat/denguechat-admin/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// AuditStore is the persistence used by the audit jobs.
type AuditStore interface {
	Insert(ctx context.Context, ev audit.Event) error
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// AuditJob persists queued audit events and prunes old ones.
type AuditJob struct {
	Store   AuditStore
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewAuditJob wires dependencies for the audit handlers.
func NewAuditJob(store AuditStore, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuditJob {
	return &AuditJob{
		Store:   store,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// HandleRecord processes TaskAuditRecord tasks. Without a database the
// event is logged and dropped.
func (j *AuditJob) HandleRecord(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Store == nil {
		return errors.New("audit record: handler not configured")
	}
	var ev audit.Event
	if err := json.Unmarshal(t.Payload(), &ev); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.metrics().Track(TaskAuditRecord)
	defer func() { resultErr = tracker.End(resultErr) }()

	err := j.Store.Insert(ctx, ev)
	switch {
	case errors.Is(err, audit.ErrStoreDisabled):
		j.logger().Info("audit event", slog.String("action", ev.Action), slog.String("entity", ev.Entity),
			slog.String("entity_id", ev.EntityID), slog.String("actor", ev.Actor))
		return nil
	case err != nil:
		j.logger().Error("persist audit event", slog.String("event_id", ev.ID.String()), slog.Any("error", err))
		return err
	}
	return nil
}

// HandlePrune processes TaskAuditPrune tasks.
func (j *AuditJob) HandlePrune(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Store == nil {
		return errors.New("audit prune: handler not configured")
	}
	var payload AuditPrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.RetentionHours <= 0 {
		j.logger().Warn("audit prune without retention", slog.Int("retention_hours", payload.RetentionHours))
		return asynq.SkipRetry
	}
	tracker := j.metrics().Track(TaskAuditPrune)
	defer func() { resultErr = tracker.End(resultErr) }()

	cutoff := j.now().Add(-payload.Retention())
	removed, err := j.Store.Prune(ctx, cutoff)
	if errors.Is(err, audit.ErrStoreDisabled) {
		return nil
	}
	if err != nil {
		j.logger().Error("prune audit events", slog.Any("error", err))
		return err
	}
	j.metrics().AddPruned(removed)
	j.logger().Info("pruned audit events", slog.Int64("removed", removed), slog.Time("before", cutoff))
	return nil
}

func (j *AuditJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *AuditJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *AuditJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
