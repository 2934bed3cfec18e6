package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrderService(t *testing.T) (*OrderService, sqlmock.Sqlmock) {
	t.Helper()
	database, mock := newTestDB(t)
	return NewOrderService(database, newTestMetrics(t)), mock
}

func TestCheckoutCreatesOrderAndMarksProductsSold(t *testing.T) {
	svc, mock := newOrderService(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT ci.product_id, ci.quantity, p.price FROM cart_items").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "quantity", "price"}).
			AddRow(101, 2, "10.00").
			AddRow(102, 1, "5.50"))
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(int64(1), decimalArg("25.50")).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(int64(7), int64(101), 2, decimalArg("10.00")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE products SET status = 'sold'").
		WithArgs(int64(101)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(int64(7), int64(102), 1, decimalArg("5.50")).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec("UPDATE products SET status = 'sold'").
		WithArgs(int64(102)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM cart_items WHERE user_id").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT o.id, o.user_id, o.total_amount").
		WithArgs(int64(7), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "total_amount", "status", "created_at",
			"product_id", "quantity", "price", "title", "image_url",
		}).
			AddRow(7, 1, "25.50", "pending", now, 101, 2, "10.00", "Desk lamp", nil).
			AddRow(7, 1, "25.50", "pending", now, 102, 1, "5.50", "Paperback", nil))

	order, err := svc.Checkout(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, int64(7), order.ID)
	assert.Equal(t, "pending", order.Status)
	assert.True(t, order.TotalAmount.Equal(mustDecimal(t, "25.50")),
		"total should be the exact sum of price times quantity, got %s", order.TotalAmount)
	require.Len(t, order.Items, 2)
	assert.Equal(t, int64(101), order.Items[0].ProductID)
	assert.Equal(t, 2, order.Items[0].Quantity)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc, mock := newOrderService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT ci.product_id, ci.quantity, p.price FROM cart_items").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "quantity", "price"}))
	mock.ExpectRollback()

	order, err := svc.Checkout(context.Background(), 1)
	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutAbortsWhenListingNoLongerActive(t *testing.T) {
	svc, mock := newOrderService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT ci.product_id, ci.quantity, p.price FROM cart_items").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "quantity", "price"}).
			AddRow(101, 1, "10.00"))
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(int64(1), decimalArg("10.00")).
		WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(int64(8), int64(101), 1, decimalArg("10.00")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	// Guard matches zero rows: the listing was sold since it entered the cart
	mock.ExpectExec("UPDATE products SET status = 'sold'").
		WithArgs(int64(101)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	order, err := svc.Checkout(context.Background(), 1)
	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrListingUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet(), "cart must stay untouched after a failed checkout")
}

func TestGetOrderNotFound(t *testing.T) {
	svc, mock := newOrderService(t)

	mock.ExpectQuery("SELECT o.id, o.user_id, o.total_amount").
		WithArgs(int64(99), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "total_amount", "status", "created_at",
			"product_id", "quantity", "price", "title", "image_url",
		}))

	order, err := svc.GetOrder(context.Background(), 1, 99)
	assert.Nil(t, order)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestListOrdersGroupsItemsPerOrder(t *testing.T) {
	svc, mock := newOrderService(t)
	now := time.Now()

	mock.ExpectQuery("SELECT o.id, o.user_id, o.total_amount").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "total_amount", "status", "created_at",
			"product_id", "quantity", "price", "title", "image_url",
		}).
			AddRow(9, 1, "30.00", "completed", now, 201, 1, "30.00", "Bicycle", nil).
			AddRow(7, 1, "25.50", "pending", now, 101, 2, "10.00", "Desk lamp", nil).
			AddRow(7, 1, "25.50", "pending", now, 102, 1, "5.50", "Paperback", nil))

	orders, err := svc.ListOrders(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, int64(9), orders[0].ID)
	assert.Len(t, orders[0].Items, 1)
	assert.Equal(t, int64(7), orders[1].ID)
	assert.Len(t, orders[1].Items, 2)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc, _ := newOrderService(t)

	err := svc.UpdateStatus(context.Background(), 1, 7, "shipped")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "status", ve.Fields[0].Field)
}

func TestUpdateStatusOrderNotOwned(t *testing.T) {
	svc, mock := newOrderService(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(7), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := svc.UpdateStatus(context.Background(), 2, 7, "completed")
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestUpdateStatusCompletesOrder(t *testing.T) {
	svc, mock := newOrderService(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(7), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("UPDATE orders SET status").
		WithArgs("completed", int64(7), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := svc.UpdateStatus(context.Background(), 1, 7, "completed")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
