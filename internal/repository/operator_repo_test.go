package repository

import (
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"heating_scheduler/internal/repository/db"
)

func newMockOperatorRepo(t *testing.T) (*OperatorSQLite, sqlmock.Sqlmock, func()) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	repo := NewOperatorSQLite(conn)
	cleanup := func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet sqlmock expectations: %v", err)
		}
		_ = conn.Close()
	}
	return repo, mock, cleanup
}

func TestOperatorSQLite_Replace(t *testing.T) {
	tests := []struct {
		name      string
		insertErr error
		wantErr   bool
	}{
		{name: "success"},
		{name: "insert error rolls back", insertErr: errors.New("readonly"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := newMockOperatorRepo(t)
			defer cleanup()

			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(deleteOperatorsSQL)).WillReturnResult(sqlmock.NewResult(0, 2))
			mock.ExpectExec(regexp.QuoteMeta(insertOperatorSQL)).WithArgs("alice", "h1").
				WillReturnResult(sqlmock.NewResult(1, 1))
			exp := mock.ExpectExec(regexp.QuoteMeta(insertOperatorSQL)).WithArgs("bob", "h2")
			if tt.insertErr != nil {
				exp.WillReturnError(tt.insertErr)
				mock.ExpectRollback()
			} else {
				exp.WillReturnResult(sqlmock.NewResult(2, 1))
				mock.ExpectCommit()
			}

			err := repo.Replace(ctx(t), map[string]string{"bob": "h2", "alice": "h1"})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Replace() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOperatorSQLite_ReplaceDropsRemovedOperators(t *testing.T) {
	conn, err := db.InitDB(filepath.Join(t.TempDir(), "heaters.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	defer conn.Close()
	repo := NewOperatorSQLite(conn)

	if err := repo.Replace(ctx(t), map[string]string{"alice": "h1", "bob": "h2"}); err != nil {
		t.Fatalf("first Replace: %v", err)
	}
	if err := repo.Replace(ctx(t), map[string]string{"bob": "h3"}); err != nil {
		t.Fatalf("second Replace: %v", err)
	}

	alice, err := repo.GetByName(ctx(t), "alice")
	if err != nil || alice != nil {
		t.Fatalf("alice should be gone, got (%v, %v)", alice, err)
	}
	bob, err := repo.GetByName(ctx(t), "bob")
	if err != nil || bob == nil || bob.PasswordHash != "h3" {
		t.Fatalf("bob should carry the new hash, got (%+v, %v)", bob, err)
	}

	if err := repo.Replace(ctx(t), map[string]string{}); err != nil {
		t.Fatalf("empty Replace: %v", err)
	}
	if bob, _ := repo.GetByName(ctx(t), "bob"); bob != nil {
		t.Fatalf("empty set should remove every operator, got %+v", bob)
	}
}

func TestOperatorSQLite_GetByName(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mock, cleanup := newMockOperatorRepo(t)
		defer cleanup()

		mock.ExpectQuery(regexp.QuoteMeta(selectOperatorByNameSQL)).
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows([]string{"name", "password_hash"}).AddRow("alice", "h123"))

		op, err := repo.GetByName(ctx(t), "alice")
		if err != nil {
			t.Fatalf("GetByName: %v", err)
		}
		if op == nil || op.Name != "alice" || op.PasswordHash != "h123" {
			t.Fatalf("unexpected operator: %+v", op)
		}
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock, cleanup := newMockOperatorRepo(t)
		defer cleanup()

		mock.ExpectQuery(regexp.QuoteMeta(selectOperatorByNameSQL)).
			WithArgs("bob").
			WillReturnRows(sqlmock.NewRows([]string{"name", "password_hash"}))

		op, err := repo.GetByName(ctx(t), "bob")
		if err != nil || op != nil {
			t.Fatalf("expected (nil, nil), got (%v, %v)", op, err)
		}
	})

	t.Run("query error", func(t *testing.T) {
		repo, mock, cleanup := newMockOperatorRepo(t)
		defer cleanup()

		mock.ExpectQuery(regexp.QuoteMeta(selectOperatorByNameSQL)).
			WithArgs("carol").
			WillReturnError(errors.New("boom"))

		if _, err := repo.GetByName(ctx(t), "carol"); err == nil {
			t.Fatalf("expected error")
		}
	})
}
