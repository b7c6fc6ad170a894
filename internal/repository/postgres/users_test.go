package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/gauravsharmaer/Authentication-Advanced/internal/core/domain"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/repository"
)

const (
	insertUserSQL = "INSERT INTO users (id,name,email,password_hash,role,created_at) VALUES ($1,$2,$3,$4,$5,$6)"
	selectUserSQL = "SELECT id, name, email, password_hash, role, created_at FROM users WHERE"
)

func newMockRepo(t *testing.T) (*UserRepository, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock pool: %v", err)
	}
	t.Cleanup(mock.Close)

	return NewUserRepository(mock), mock
}

func sampleUser() domain.User {
	return domain.User{
		ID:           "6e7c1f2a-28d5-4c9f-9f31-d1f0a9b2c301",
		Name:         "Ada Lovelace",
		Email:        "ada@example.com",
		PasswordHash: "c2FsdA==:aGFzaA==",
		Role:         domain.RoleUser,
		CreatedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestUserRepositoryCreate(t *testing.T) {
	repo, mock := newMockRepo(t)
	user := sampleUser()

	mock.ExpectExec(regexp.QuoteMeta(insertUserSQL)).
		WithArgs(user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepositoryCreateLowercasesEmail(t *testing.T) {
	repo, mock := newMockRepo(t)
	user := sampleUser()
	user.Email = "Ada@Example.COM"

	mock.ExpectExec(regexp.QuoteMeta(insertUserSQL)).
		WithArgs(user.ID, user.Name, "ada@example.com", user.PasswordHash, user.Role, user.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepositoryCreateDuplicate(t *testing.T) {
	repo, mock := newMockRepo(t)
	user := sampleUser()

	mock.ExpectExec(regexp.QuoteMeta(insertUserSQL)).
		WithArgs(user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.CreatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err := repo.Create(context.Background(), user)
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestUserRepositoryGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	user := sampleUser()

	mock.ExpectQuery(selectUserSQL).
		WithArgs(user.ID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "created_at"}).
			AddRow(user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.CreatedAt))

	got, err := repo.GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if got.ID != user.ID || got.Email != user.Email || got.PasswordHash != user.PasswordHash {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestUserRepositoryGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(selectUserSQL).
		WithArgs("missing-id").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing-id")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepositoryGetByEmailNormalizes(t *testing.T) {
	repo, mock := newMockRepo(t)
	user := sampleUser()

	mock.ExpectQuery(selectUserSQL).
		WithArgs("ada@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "created_at"}).
			AddRow(user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.CreatedAt))

	got, err := repo.GetByEmail(context.Background(), "  Ada@Example.COM ")
	if err != nil {
		t.Fatalf("GetByEmail returned error: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("unexpected user: %+v", got)
	}
}
