package repository

import (
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"heating_scheduler/internal/ledger"
	"heating_scheduler/internal/repository/db"
)

func TestLedgerSQLite_Load(t *testing.T) {
	t.Parallel()

	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer conn.Close()

	mock.ExpectQuery(regexp.QuoteMeta(selectLedgerSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"device", "value"}).
			AddRow("lounge", "ECO").
			AddRow("stove", "changed_1705309200"))

	got, err := NewLedgerSQLite(conn).Load(ctx(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got["lounge"].String() != "ECO" || !got["stove"].IsPending() {
		t.Fatalf("unexpected entry: %v", got.Strings())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestLedgerSQLite_LoadMalformed(t *testing.T) {
	t.Parallel()

	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer conn.Close()

	mock.ExpectQuery(regexp.QuoteMeta(selectLedgerSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"device", "value"}).AddRow("lounge", "changed_soon"))

	if _, err := NewLedgerSQLite(conn).Load(ctx(t)); !errors.Is(err, ledger.ErrMalformedValue) {
		t.Fatalf("expected ErrMalformedValue, got %v", err)
	}
}

func TestLedgerSQLite_SaveReplacesSnapshot(t *testing.T) {
	t.Parallel()

	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer conn.Close()

	repo := NewLedgerSQLite(conn)
	repo.now = func() time.Time { return time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC) }

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(deleteLedgerSQL)).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(insertLedgerSQL)).
		WithArgs("bedroom", "OFFLINE", "2024-01-15 09:00:00").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertLedgerSQL)).
		WithArgs("lounge", "ECO", "2024-01-15 09:00:00").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = repo.Save(ctx(t), ledger.Entry{"lounge": ledger.Canonical("ECO"), "bedroom": ledger.Canonical("OFFLINE")})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestLedgerSQLite_SaveRollsBackOnError(t *testing.T) {
	t.Parallel()

	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(deleteLedgerSQL)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(insertLedgerSQL)).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	if err := NewLedgerSQLite(conn).Save(ctx(t), ledger.Entry{"lounge": ledger.Canonical("ECO")}); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestLedgerSQLite_RealDatabaseRoundTrip(t *testing.T) {
	t.Parallel()

	conn, err := db.InitDB(filepath.Join(t.TempDir(), "heaters.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	defer conn.Close()

	repo := NewLedgerSQLite(conn)
	empty, err := repo.Load(ctx(t))
	if err != nil || len(empty) != 0 {
		t.Fatalf("fresh ledger: %v %v", empty, err)
	}

	first := ledger.Entry{"lounge": ledger.Canonical("ECO"), "stove": ledger.PendingSince(time.Unix(1705309200, 0))}
	if err := repo.Save(ctx(t), first); err != nil {
		t.Fatalf("Save: %v", err)
	}
	second := ledger.Entry{"lounge": ledger.Canonical("HGEL")}
	if err := repo.Save(ctx(t), second); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.Load(ctx(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got["lounge"].String() != "HGEL" {
		t.Fatalf("snapshot not replaced: %v", got.Strings())
	}
}
