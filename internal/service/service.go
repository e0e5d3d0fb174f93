package service

import (
	"context"
	"time"

	"heating_scheduler/internal/ledger"
	"heating_scheduler/internal/logger"
	"heating_scheduler/internal/metrics"
	"heating_scheduler/internal/models"
	"heating_scheduler/internal/notify"
	"heating_scheduler/internal/repository"
)

type Authorization interface {
	SyncOperators(ctx context.Context, operators map[string]string) error
	GenerateToken(ctx context.Context, name, password string) (string, error)
	ParseToken(accessToken string) (string, error)
}

// Heaters runs the reconciliation and exposes the resulting ledger.
type Heaters interface {
	Run(ctx context.Context, opts RunOptions) (*RunReport, error)
	Ledger(ctx context.Context) (ledger.Entry, error)
}

// Schedules refreshes the bookings file from the calendar.
type Schedules interface {
	Fetch(ctx context.Context) (int, error)
}

// EventLog exposes the reconcile history with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.ReconcileEvent, error)
}

// Loop runs heater reconciliation periodically.
// Stop via context cancellation in main() for graceful shutdown.
type Loop interface {
	Run(ctx context.Context, every time.Duration)
}

// Service aggregates all sub-services.
type Service struct {
	Heaters
	Schedules
	EventLog
	Loop
	Authorization
}

// Deps are the collaborators that do not live in the repository layer.
type Deps struct {
	Settings  Settings
	Ledger    ledger.Store
	Families  []Family
	Tariff    TariffSource
	Calendar  CalendarSource
	Publisher notify.Publisher
	Metrics   *metrics.Metrics
	Log       *logger.Logger
	Now       func() time.Time
}

// NewService wires the repository layer and deps into concrete services.
func NewService(repos *repository.Repository, d Deps) *Service {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	heaters := NewHeaterService(repos.EventRepo, d)
	return &Service{
		Heaters:       heaters,
		Schedules:     NewScheduleService(d.Calendar, d.Settings.CalendarOut, d.Log, d.Now),
		EventLog:      NewEventLogService(repos.EventRepo),
		Loop:          NewLoopService(heaters, d.Log),
		Authorization: NewAuthService(repos.OperatorRepo, d.Settings.SigningKey, d.Settings.TokenTTL),
	}
}
