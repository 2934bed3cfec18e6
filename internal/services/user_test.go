package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ecofinds/marketplace-api/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T) (*UserService, sqlmock.Sqlmock) {
	t.Helper()
	database, mock := newTestDB(t)
	return NewUserService(database, newTestMetrics(t)), mock
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "username", "email", "password", "profile_image",
		"bio", "phone", "rating", "rating_count", "created_at",
	})
}

func TestRegisterCreatesUser(t *testing.T) {
	svc, mock := newUserService(t)
	now := time.Now()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("ana@example.com", "ana").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO users").
		WithArgs("ana", "ana@example.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(int64(3)).
		WillReturnRows(userRows().
			AddRow(3, "ana", "ana@example.com", "hash", nil, nil, nil, "0.00", 0, now))

	user, err := svc.Register(context.Background(), "ana", "ana@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, int64(3), user.ID)
	assert.Equal(t, "ana", user.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterDuplicate(t *testing.T) {
	svc, mock := newUserService(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("ana@example.com", "ana").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := svc.Register(context.Background(), "ana", "ana@example.com", "secret123")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	svc, mock := newUserService(t)

	mock.ExpectQuery("FROM users WHERE email").
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := svc.Authenticate(context.Background(), "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	svc, mock := newUserService(t)
	hash, err := auth.HashPassword("right-password")
	require.NoError(t, err)

	mock.ExpectQuery("FROM users WHERE email").
		WithArgs("ana@example.com").
		WillReturnRows(userRows().
			AddRow(3, "ana", "ana@example.com", hash, nil, nil, nil, "0.00", 0, time.Now()))

	_, err = svc.Authenticate(context.Background(), "ana@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateSuccess(t *testing.T) {
	svc, mock := newUserService(t)
	hash, err := auth.HashPassword("right-password")
	require.NoError(t, err)

	mock.ExpectQuery("FROM users WHERE email").
		WithArgs("ana@example.com").
		WillReturnRows(userRows().
			AddRow(3, "ana", "ana@example.com", hash, nil, nil, nil, "4.50", 2, time.Now()))

	user, err := svc.Authenticate(context.Background(), "ana@example.com", "right-password")
	require.NoError(t, err)
	assert.Equal(t, int64(3), user.ID)
	assert.Equal(t, 2, user.RatingCount)
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	svc, mock := newUserService(t)
	hash, err := auth.HashPassword("right-password")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT password FROM users").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"password"}).AddRow(hash))

	err = svc.ChangePassword(context.Background(), 3, "wrong-password", "new-password")
	var pe *PreconditionError
	assert.ErrorAs(t, err, &pe)
}
