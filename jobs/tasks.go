package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/denguechat/denguechat-admin/internal/audit"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditRecord persists one audit event.
	TaskAuditRecord = "audit:record"
	// TaskAuditPrune deletes audit events past the retention window.
	TaskAuditPrune = "audit:prune"
)

// AuditPrunePayload carries the retention window of a prune run.
type AuditPrunePayload struct {
	RetentionHours int `json:"retention_hours"`
}

// Retention returns the window as a duration.
func (p AuditPrunePayload) Retention() time.Duration {
	return time.Duration(p.RetentionHours) * time.Hour
}

// NewAuditRecordTask wraps ev in a task. The event ID doubles as the task
// ID so a retried enqueue is not processed twice.
func NewAuditRecordTask(ev audit.Event) (*asynq.Task, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRecord, body, asynq.Queue(QueueDefault), asynq.MaxRetry(5), asynq.TaskID(ev.ID.String())), nil
}

// NewAuditPruneTask builds the daily prune task. Retention is counted in
// whole hours.
func NewAuditPruneTask(retention time.Duration) (*asynq.Task, error) {
	if retention < time.Hour {
		return nil, fmt.Errorf("audit retention %s is under one hour", retention)
	}
	body, err := json.Marshal(AuditPrunePayload{RetentionHours: int(retention / time.Hour)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditPrune, body, asynq.Queue(QueueDefault)), nil
}
