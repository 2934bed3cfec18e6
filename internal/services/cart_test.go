package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCartService(t *testing.T) (*CartService, sqlmock.Sqlmock) {
	t.Helper()
	database, mock := newTestDB(t)
	return NewCartService(database, newTestMetrics(t)), mock
}

func cartRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "product_id", "quantity", "created_at",
		"title", "price", "image_url", "status",
	})
}

func TestGetCartComputesExactTotal(t *testing.T) {
	svc, mock := newCartService(t)
	now := time.Now()

	mock.ExpectQuery("FROM cart_items ci").
		WithArgs(int64(1)).
		WillReturnRows(cartRows().
			AddRow(1, 1, 101, 2, now, "Desk lamp", "10.00", nil, "active").
			AddRow(2, 1, 102, 1, now, "Paperback", "5.50", nil, "active"))

	cart, err := svc.GetCart(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.True(t, cart.Total.Equal(mustDecimal(t, "25.50")),
		"expected 25.50, got %s", cart.Total)
}

func TestGetCartEmpty(t *testing.T) {
	svc, mock := newCartService(t)

	mock.ExpectQuery("FROM cart_items ci").
		WithArgs(int64(1)).
		WillReturnRows(cartRows())

	cart, err := svc.GetCart(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Total.IsZero())
}

func TestAddItemMergesQuantities(t *testing.T) {
	svc, mock := newCartService(t)
	now := time.Now()

	mock.ExpectQuery("SELECT status FROM products").
		WithArgs(int64(101)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("active"))
	mock.ExpectExec("INSERT INTO cart_items").
		WithArgs(int64(1), int64(101), 2).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("FROM cart_items ci").
		WithArgs(int64(1)).
		WillReturnRows(cartRows().
			AddRow(1, 1, 101, 3, now, "Desk lamp", "10.00", nil, "active"))

	cart, err := svc.AddItem(context.Background(), 1, 101, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddItemRejectsSoldProduct(t *testing.T) {
	svc, mock := newCartService(t)

	mock.ExpectQuery("SELECT status FROM products").
		WithArgs(int64(101)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("sold"))

	_, err := svc.AddItem(context.Background(), 1, 101, 1)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestUpdateItemNotOwned(t *testing.T) {
	svc, mock := newCartService(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(3), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := svc.UpdateItem(context.Background(), 1, 3, 5)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestRemoveItemNotFound(t *testing.T) {
	svc, mock := newCartService(t)

	mock.ExpectExec("DELETE FROM cart_items WHERE id").
		WithArgs(int64(3), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := svc.RemoveItem(context.Background(), 1, 3)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestClearCart(t *testing.T) {
	svc, mock := newCartService(t)

	mock.ExpectExec("DELETE FROM cart_items WHERE user_id").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 4))

	assert.NoError(t, svc.Clear(context.Background(), 1))
}
