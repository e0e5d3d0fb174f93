package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"heating_scheduler/internal/ledger"
)

// LedgerSQLite keeps the ledger snapshot in the device_ledger table.
type LedgerSQLite struct {
	db  *sql.DB
	now func() time.Time
}

func NewLedgerSQLite(db *sql.DB) *LedgerSQLite {
	return &LedgerSQLite{db: db, now: time.Now}
}

var _ ledger.Store = (*LedgerSQLite)(nil)

const (
	selectLedgerSQL = `SELECT device, value FROM device_ledger ORDER BY device`
	deleteLedgerSQL = `DELETE FROM device_ledger`
	insertLedgerSQL = `INSERT INTO device_ledger (device, value, updated_at) VALUES (?, ?, ?)`
)

// Load returns every stored device value. An empty table yields an empty Entry.
func (r *LedgerSQLite) Load(ctx context.Context) (ledger.Entry, error) {
	rows, err := r.db.QueryContext(ctx, selectLedgerSQL)
	if err != nil {
		return nil, fmt.Errorf("select ledger: %w", err)
	}
	defer rows.Close()

	raw := map[string]string{}
	for rows.Next() {
		var device, value string
		if err := rows.Scan(&device, &value); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		raw[device] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ledger.FromStrings(raw)
}

// Save replaces the whole snapshot in one transaction.
func (r *LedgerSQLite) Save(ctx context.Context, e ledger.Entry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, deleteLedgerSQL); err != nil {
		return fmt.Errorf("clear ledger: %w", err)
	}
	ts := r.now().UTC().Format("2006-01-02 15:04:05")
	for _, device := range e.Devices() {
		if _, err := tx.ExecContext(ctx, insertLedgerSQL, device, e[device].String(), ts); err != nil {
			return fmt.Errorf("insert ledger %q: %w", device, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger: %w", err)
	}
	return nil
}
