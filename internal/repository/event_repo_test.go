package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"heating_scheduler/internal/models"
)

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

type sqlmockArgumentFunc func(v driver.Value) bool

func (f sqlmockArgumentFunc) Match(v driver.Value) bool { return f(v) }

func TestAppend_Success_WithDefaults(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewEventSQLite(db)

	isTimestamp := sqlmockArgumentFunc(func(v driver.Value) bool {
		s, ok := v.(string)
		if !ok {
			return false
		}
		_, err := time.Parse(sqliteTimestamp, s)
		return err == nil
	})

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertEventSQL)).
		WithArgs(sqlmock.AnyArg(), isTimestamp, "run-1", "lounge", "heatzy", "APPLIED", "ECO", "mode applied: ECO").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertEventSQL)).
		WithArgs("ev-2", "2025-01-01 10:00:00", "run-1", "garage", "heatzy", "NOT_FOUND", nil, "device not found").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = repo.Append(ctx(t),
		models.ReconcileEvent{RunID: "run-1", Device: "lounge", Family: models.FamilyHeatzy, Action: " applied ", Mode: "ECO", Message: "mode applied: ECO"},
		models.ReconcileEvent{EventID: "ev-2", OccurredAt: time.Date(2025, 1, 1, 11, 0, 0, 0, time.FixedZone("CET", 3600)),
			RunID: "run-1", Device: "garage", Family: models.FamilyHeatzy, Action: "NOT_FOUND", Message: "device not found"},
	)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestAppend_DBErrorRollsBack(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewEventSQLite(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO reconcile_events").WillReturnError(errors.New("down"))
	mock.ExpectRollback()

	err = repo.Append(ctx(t), models.ReconcileEvent{Device: "x", Action: "FAILED", Message: "x"})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("expected error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestAppend_NothingToDo(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	if err := NewEventSQLite(db).Append(ctx(t)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestList_NoFilters(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewEventSQLite(db)

	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "occurred_at", "run_id", "device", "family", "action", "mode", "message"}).
		AddRow("1", now, "r", "lounge", "heatzy", "APPLIED", "ECO", "m1").
		AddRow("2", now.Add(time.Hour), "r", "stove", "stove", "OFFLINE", nil, "m2")

	mock.ExpectQuery(regexp.QuoteMeta(selectEventsSQL + ` ORDER BY occurred_at ASC`)).
		WillReturnRows(rows)

	got, err := repo.List(ctx(t), models.EventFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].EventID != "1" || got[1].EventID != "2" {
		t.Fatalf("unexpected results: %+v", got)
	}
	if got[0].Mode != "ECO" || got[1].Mode != "" || got[1].Family != models.FamilyStove {
		t.Fatalf("unexpected fields: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestList_WithFilters(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewEventSQLite(db)

	from := time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	query := selectEventsSQL + ` WHERE occurred_at >= ? AND occurred_at <= ? AND device = ? AND action = ? ORDER BY occurred_at ASC LIMIT ?`

	rows := sqlmock.NewRows([]string{"id", "occurred_at", "run_id", "device", "family", "action", "mode", "message"}).
		AddRow("3", from, "r", "lounge", "heatzy", "FLAGGED", "ECO", "external change detected")

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("2025-01-01 11:00:00", "2025-01-01 12:00:00", "lounge", "FLAGGED", 10).
		WillReturnRows(rows)

	got, err := repo.List(ctx(t), models.EventFilter{From: from, To: to, Device: " lounge ", Action: "flagged", Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].Action != "FLAGGED" {
		t.Fatalf("unexpected results: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestList_QueryError(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id").WillReturnError(errors.New("locked"))
	if _, err := NewEventSQLite(db).List(ctx(t), models.EventFilter{}); err == nil {
		t.Fatalf("expected error")
	}
}
