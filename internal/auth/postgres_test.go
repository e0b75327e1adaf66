package auth

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func newUserMock(t *testing.T) (*PGUserStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return NewPGUserStore(db), mock
}

func TestPGUserStoreCreateConflict(t *testing.T) {
	st, mock := newUserMock(t)
	mock.ExpectExec(regexp.QuoteMeta(`insert into users`)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

	err := st.Create(context.Background(), &User{Username: "alice", PasswordHash: "h", Email: "a@x.com"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestPGUserStoreFindByUsername(t *testing.T) {
	st, mock := newUserMock(t)
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "username", "password_hash", "disabled", "email",
		"first_name", "last_name", "phone", "address", "created_at", "updated_at",
	}).AddRow("u1", "alice", "hash", false, "a@x.com", "Alice", "", "", "", now, now)
	mock.ExpectQuery(regexp.QuoteMeta(`from users where username=$1`)).
		WithArgs("alice").WillReturnRows(rows)

	u, err := st.FindByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if u.ID != "u1" || u.PasswordHash != "hash" || u.Disabled {
		t.Fatalf("unexpected user: %+v", u)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`from users where username=$1`)).
		WithArgs("ghost").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	if _, err := st.FindByUsername(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPGUserStoreSaveProfile(t *testing.T) {
	st, mock := newUserMock(t)
	email, phone := "new@x.com", "555-0100"

	// Only the set fields appear, in declaration order, id last.
	mock.ExpectExec(regexp.QuoteMeta(`update users set email=$1, phone=$2, updated_at=now() where id=$3`)).
		WithArgs(email, phone, "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := st.SaveProfile(context.Background(), "u1", ProfileUpdate{Email: &email, Phone: &phone}); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	// Empty updates never reach the database.
	if err := st.SaveProfile(context.Background(), "u1", ProfileUpdate{}); err != nil {
		t.Fatalf("empty SaveProfile: %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta(`update users set email=$1, updated_at=now() where id=$2`)).
		WithArgs(email, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := st.SaveProfile(context.Background(), "missing", ProfileUpdate{Email: &email}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPGUserStoreSetDisabled(t *testing.T) {
	st, mock := newUserMock(t)
	mock.ExpectExec(regexp.QuoteMeta(`update users set disabled=$2, updated_at=now() where id=$1`)).
		WithArgs("u1", true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := st.SetDisabled(context.Background(), "u1", true); err != nil {
		t.Fatalf("SetDisabled: %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta(`update users set disabled=$2`)).
		WithArgs("missing", false).
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := st.SetDisabled(context.Background(), "missing", false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
