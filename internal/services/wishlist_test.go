package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWishlistService(t *testing.T) (*WishlistService, sqlmock.Sqlmock) {
	t.Helper()
	database, mock := newTestDB(t)
	return NewWishlistService(database, newTestMetrics(t)), mock
}

func TestToggleAddsWhenAbsent(t *testing.T) {
	svc, mock := newWishlistService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(101)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("DELETE FROM wishlist").
		WithArgs(int64(1), int64(101)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO wishlist").
		WithArgs(int64(1), int64(101)).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM wishlist").
		WithArgs(int64(101)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec("UPDATE products SET wishlist_count").
		WithArgs(int64(3), int64(101)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	inWishlist, err := svc.Toggle(context.Background(), 1, 101)
	require.NoError(t, err)
	assert.True(t, inWishlist)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleRemovesWhenPresent(t *testing.T) {
	svc, mock := newWishlistService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(101)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("DELETE FROM wishlist").
		WithArgs(int64(1), int64(101)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM wishlist").
		WithArgs(int64(101)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectExec("UPDATE products SET wishlist_count").
		WithArgs(int64(2), int64(101)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	inWishlist, err := svc.Toggle(context.Background(), 1, 101)
	require.NoError(t, err)
	assert.False(t, inWishlist)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleProductMissing(t *testing.T) {
	svc, mock := newWishlistService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err := svc.Toggle(context.Background(), 1, 99)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestClearRecomputesAffectedCounters(t *testing.T) {
	svc, mock := newWishlistService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT product_id FROM wishlist").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"product_id"}).AddRow(101).AddRow(102))
	mock.ExpectExec("DELETE FROM wishlist WHERE user_id").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE products SET wishlist_count").
		WithArgs(int64(101), int64(102)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	assert.NoError(t, svc.Clear(context.Background(), 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClearEmptyWishlistIsNoop(t *testing.T) {
	svc, mock := newWishlistService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT product_id FROM wishlist").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"product_id"}))
	mock.ExpectRollback()

	assert.NoError(t, svc.Clear(context.Background(), 1))
}
