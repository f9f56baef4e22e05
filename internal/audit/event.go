// Package audit records dashboard mutations into PostgreSQL audit_logs.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Actions recorded for entity mutations.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Event is one audited mutation.
type Event struct {
	ID       uuid.UUID      `json:"id"`
	ActorID  string         `json:"actor_id"`
	Actor    string         `json:"actor"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entity_id"`
	Summary  string         `json:"summary,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
	At       time.Time      `json:"at"`
}

// Filters narrows the audit listing.
type Filters struct {
	Entity string
	Action string
	Actor  string
	Limit  int
	Offset int
}
