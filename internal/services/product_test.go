package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ecofinds/marketplace-api/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProductService(t *testing.T) (*ProductService, sqlmock.Sqlmock) {
	t.Helper()
	database, mock := newTestDB(t)
	return NewProductService(database, newTestMetrics(t)), mock
}

func productRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "title", "description", "price", "category", "image_url",
		"status", "view_count", "wishlist_count", "share_count", "created_at", "updated_at", "username",
	})
}

func TestCreateProductRejectsNegativePrice(t *testing.T) {
	svc, _ := newProductService(t)

	_, err := svc.CreateProduct(context.Background(), 1, models.CreateProductRequest{
		Title:       "Desk lamp",
		Description: "A gently used desk lamp",
		Price:       decimal.NewFromInt(-5),
		Category:    "furniture",
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "price", ve.Fields[0].Field)
}

func TestGetProductNotFound(t *testing.T) {
	svc, mock := newProductService(t)

	mock.ExpectQuery("FROM products p JOIN users u").
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := svc.GetProduct(context.Background(), 99)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestListProductsFiltersAndCountsUnderSamePredicate(t *testing.T) {
	svc, mock := newProductService(t)
	now := time.Now()
	pattern := "%lamp%"

	mock.ExpectQuery("FROM products p JOIN users u ON p.user_id = u.id WHERE p.status = 'active' AND").
		WithArgs(pattern, pattern, "furniture", 5, 5).
		WillReturnRows(productRows().
			AddRow(101, 5, "Desk lamp", "A gently used desk lamp", "10.00", "furniture", nil,
				"active", 3, 1, 0, now, now, "seller"))
	// The count query repeats the full filter, not just the status predicate
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM products p WHERE p.status = 'active' AND").
		WithArgs(pattern, pattern, "furniture").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	page, err := svc.ListProducts(context.Background(), models.ProductFilter{
		Search:   "Lamp",
		Category: "furniture",
		Page:     2,
		Limit:    5,
	})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "Desk lamp", page.Products[0].Title)
	assert.Equal(t, 12, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 5, page.Limit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListProductsDefaultsPagination(t *testing.T) {
	svc, mock := newProductService(t)

	mock.ExpectQuery("FROM products p JOIN users u ON p.user_id = u.id WHERE p.status = 'active'").
		WithArgs(10, 0).
		WillReturnRows(productRows())
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM products p WHERE p.status = 'active'").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	page, err := svc.ListProducts(context.Background(), models.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.Limit)
	assert.Equal(t, 0, page.Total)
}

func TestUpdateProductNotOwnedLooksAbsent(t *testing.T) {
	svc, mock := newProductService(t)

	mock.ExpectQuery("SELECT image_url, status FROM products").
		WithArgs(int64(101), int64(2)).
		WillReturnError(sql.ErrNoRows)

	_, err := svc.UpdateProduct(context.Background(), 2, 101, models.UpdateProductRequest{
		Title:       "Desk lamp",
		Description: "A gently used desk lamp",
		Price:       decimal.NewFromInt(10),
		Category:    "furniture",
	})
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestDeleteProductNotOwned(t *testing.T) {
	svc, mock := newProductService(t)

	mock.ExpectExec("DELETE FROM products").
		WithArgs(int64(101), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.DeleteProduct(context.Background(), 2, 101)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestRecordViewRecomputesCounter(t *testing.T) {
	svc, mock := newProductService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(101)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("INSERT INTO product_views").
		WithArgs(int64(1), int64(101)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE products SET view_count =").
		WithArgs(int64(101), int64(101)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, svc.RecordView(context.Background(), 1, 101))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordViewProductMissing(t *testing.T) {
	svc, mock := newProductService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	err := svc.RecordView(context.Background(), 1, 99)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}
