package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"heating_scheduler/internal/models"
)

type OperatorSQLite struct {
	db *sql.DB
}

func NewOperatorSQLite(db *sql.DB) *OperatorSQLite {
	return &OperatorSQLite{db: db}
}

var _ OperatorRepo = (*OperatorSQLite)(nil)

const (
	deleteOperatorsSQL      = `DELETE FROM operators`
	insertOperatorSQL       = `INSERT INTO operators (name, password_hash) VALUES (?, ?)`
	selectOperatorByNameSQL = `SELECT name, password_hash FROM operators WHERE name = ?`
)

// Replace makes the table hold exactly operators (name -> hash) in one transaction.
func (r *OperatorSQLite) Replace(ctx context.Context, operators map[string]string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin operators transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, deleteOperatorsSQL); err != nil {
		return fmt.Errorf("clear operators: %w", err)
	}
	names := make([]string, 0, len(operators))
	for name := range operators {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := tx.ExecContext(ctx, insertOperatorSQL, name, operators[name]); err != nil {
			return fmt.Errorf("insert operator %q: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit operators: %w", err)
	}
	return nil
}

// GetByName fetches an operator. Returns (nil, nil) if not found.
func (r *OperatorSQLite) GetByName(ctx context.Context, name string) (*models.Operator, error) {
	var op models.Operator
	err := r.db.QueryRowContext(ctx, selectOperatorByNameSQL, name).Scan(&op.Name, &op.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select operator %q: %w", name, err)
	}
	return &op, nil
}
