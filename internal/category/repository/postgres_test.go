package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/omnipos-stock-service/internal/category/dto"
	"github.com/jmoiron/sqlx"
)

func newMock(t *testing.T) (*PGRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPGRepository(sqlx.NewDb(db, "postgres")), mock
}

var cols = []string{"id", "parent_id", "name", "description", "sort_order", "is_active", "created_at", "updated_at"}

func TestFindAllRootsOnly(t *testing.T) {
	repo, mock := newMock(t)
	root := ""
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM categories WHERE parent_id IS NULL")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY sort_order ASC, name ASC")).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("c1", nil, "Drinks", nil, 0, true, now, now))

	cats, total, err := repo.FindAll(context.Background(), &dto.CategoryFilters{ParentID: &root})
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if total != 1 || len(cats) != 1 || cats[0].ParentID != nil {
		t.Fatalf("unexpected result %+v %d", cats, total)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteReportsMissing(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM categories WHERE id = $1")).
		WithArgs("c1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), "c1")
	if err != nil || deleted {
		t.Fatalf("expected false, nil; got %v %v", deleted, err)
	}
}
