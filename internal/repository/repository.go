package repository

import (
	"context"
	"database/sql"

	"heating_scheduler/internal/ledger"
	"heating_scheduler/internal/models"
)

type LedgerRepo interface {
	ledger.Store
}

type EventRepo interface {
	Append(ctx context.Context, events ...models.ReconcileEvent) error
	List(ctx context.Context, f models.EventFilter) ([]models.ReconcileEvent, error)
}

type OperatorRepo interface {
	// Replace makes the stored operators exactly the given set.
	Replace(ctx context.Context, operators map[string]string) error
	GetByName(ctx context.Context, name string) (*models.Operator, error)
}

type Repository struct {
	LedgerRepo   LedgerRepo
	EventRepo    EventRepo
	OperatorRepo OperatorRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		LedgerRepo:   NewLedgerSQLite(db),
		EventRepo:    NewEventSQLite(db),
		OperatorRepo: NewOperatorSQLite(db),
	}
}
