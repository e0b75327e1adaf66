package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGStoreFindByName(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "name", "domain", "default_group_id", "timeout_seconds",
		"cookie_name", "description", "admin_user_id", "created_at", "updated_at",
	}).AddRow("c1", "intranet", "intranet.example.com", "g1", 900, "udsid", "", "u1", now, now)
	mock.ExpectQuery("select .* from clients where name=").WithArgs("intranet").WillReturnRows(rows)

	store := NewPGStore(db)
	c, err := store.FindByName(context.Background(), "intranet")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	if c.ID != "c1" || c.TimeoutSeconds != 900 || c.CookieName != "udsid" {
		t.Fatalf("unexpected client: %+v", c)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select .* from clients where id=").WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	store := NewPGStore(db)
	if _, err := store.FindByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
