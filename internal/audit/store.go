package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrStoreDisabled is returned when no database is configured.
var ErrStoreDisabled = errors.New("audit: store not configured")

const schema = `
CREATE TABLE IF NOT EXISTS audit_logs (
	id          UUID PRIMARY KEY,
	actor_id    TEXT NOT NULL DEFAULT '',
	actor       TEXT NOT NULL DEFAULT '',
	action      TEXT NOT NULL,
	entity      TEXT NOT NULL,
	entity_id   TEXT NOT NULL,
	summary     TEXT NOT NULL DEFAULT '',
	meta        JSONB,
	occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS audit_logs_occurred_at_idx ON audit_logs (occurred_at DESC);
CREATE INDEX IF NOT EXISTS audit_logs_entity_idx ON audit_logs (entity, entity_id);
`

// DB is the subset of pgxpool.Pool used by the store.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists audit events.
type Store struct {
	db DB
}

// NewStore wraps db. A nil db yields a disabled store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Enabled reports whether a database is attached.
func (s *Store) Enabled() bool {
	return s != nil && s.db != nil
}

// EnsureSchema creates audit_logs when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if !s.Enabled() {
		return ErrStoreDisabled
	}
	_, err := s.db.Exec(ctx, schema)
	return err
}

// Insert writes ev. Replays of the same event ID are ignored.
func (s *Store) Insert(ctx context.Context, ev Event) error {
	if !s.Enabled() {
		return ErrStoreDisabled
	}
	if ev.Action == "" || ev.Entity == "" || ev.EntityID == "" {
		return errors.New("audit: event requires action/entity/entity_id")
	}
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	var meta []byte
	if len(ev.Meta) > 0 {
		raw, err := json.Marshal(ev.Meta)
		if err != nil {
			return fmt.Errorf("audit: encode meta: %w", err)
		}
		meta = raw
	}
	_, err := s.db.Exec(ctx, `INSERT INTO audit_logs (id, actor_id, actor, action, entity, entity_id, summary, meta, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) ON CONFLICT (id) DO NOTHING`,
		ev.ID, ev.ActorID, ev.Actor, ev.Action, ev.Entity, ev.EntityID, ev.Summary, meta, ev.At)
	return err
}

func whereClause(f Filters) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		args = append(args, value)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}
	add("entity = ?", f.Entity)
	add("action = ?", f.Action)
	add("actor ILIKE '%' || ? || '%'", f.Actor)
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Recent lists events newest first and returns the filtered total.
func (s *Store) Recent(ctx context.Context, f Filters) ([]Event, int, error) {
	if !s.Enabled() {
		return nil, 0, ErrStoreDisabled
	}
	where, args := whereClause(f)
	var total int
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM audit_logs"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("audit: count: %w", err)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, max(f.Offset, 0))
	query := fmt.Sprintf(`SELECT id, actor_id, actor, action, entity, entity_id, summary, meta, occurred_at
FROM audit_logs%s ORDER BY occurred_at DESC LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("audit: list: %w", err)
	}
	defer rows.Close()
	var events []Event
	for rows.Next() {
		var (
			ev   Event
			meta []byte
		)
		if err := rows.Scan(&ev.ID, &ev.ActorID, &ev.Actor, &ev.Action, &ev.Entity, &ev.EntityID, &ev.Summary, &meta, &ev.At); err != nil {
			return nil, 0, err
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &ev.Meta)
		}
		events = append(events, ev)
	}
	return events, total, rows.Err()
}

// Prune deletes events older than before and returns the number removed.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	if !s.Enabled() {
		return 0, ErrStoreDisabled
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM audit_logs WHERE occurred_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
