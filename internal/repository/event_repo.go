package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"heating_scheduler/internal/models"
)

type EventSQLite struct {
	db *sql.DB
}

func NewEventSQLite(db *sql.DB) *EventSQLite { return &EventSQLite{db: db} }

const (
	insertEventSQL = `
		INSERT INTO reconcile_events (id, occurred_at, run_id, device, family, action, mode, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	selectEventsSQL = `SELECT id, occurred_at, run_id, device, family, action, mode, message FROM reconcile_events`

	sqliteTimestamp = "2006-01-02 15:04:05"
)

// Append inserts events in one transaction. Empty ids and times are filled in.
func (r *EventSQLite) Append(ctx context.Context, events ...models.ReconcileEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin events transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, e := range events {
		if e.EventID == "" {
			e.EventID = uuid.NewString()
		}
		if e.OccurredAt.IsZero() {
			e.OccurredAt = time.Now()
		}
		var mode *string
		if e.Mode != "" {
			mode = &e.Mode
		}
		if _, err := tx.ExecContext(ctx, insertEventSQL,
			e.EventID,
			e.OccurredAt.UTC().Format(sqliteTimestamp),
			e.RunID,
			e.Device,
			string(e.Family),
			strings.ToUpper(strings.TrimSpace(e.Action)),
			mode,
			e.Message,
		); err != nil {
			return fmt.Errorf("insert event for %q: %w", e.Device, err)
		}
	}
	return tx.Commit()
}

// List returns events filtered by [from, to] (inclusive), device and action, ordered ASC.
func (r *EventSQLite) List(ctx context.Context, f models.EventFilter) ([]models.ReconcileEvent, error) {
	var (
		conds []string
		args  []any
	)

	if !f.From.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, f.From.UTC().Format(sqliteTimestamp))
	}
	if !f.To.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, f.To.UTC().Format(sqliteTimestamp))
	}
	if d := strings.TrimSpace(f.Device); d != "" {
		conds = append(conds, "device = ?")
		args = append(args, d)
	}
	if a := strings.ToUpper(strings.TrimSpace(f.Action)); a != "" {
		conds = append(conds, "action = ?")
		args = append(args, a)
	}

	q := selectEventsSQL
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.ReconcileEvent, 0, 64)
	for rows.Next() {
		var (
			ev     models.ReconcileEvent
			family string
			mode   sql.NullString
		)
		if err := rows.Scan(&ev.EventID, &ev.OccurredAt, &ev.RunID, &ev.Device, &family, &ev.Action, &mode, &ev.Message); err != nil {
			return nil, err
		}
		ev.OccurredAt = ev.OccurredAt.UTC()
		ev.Family = models.Family(family)
		ev.Mode = mode.String
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
