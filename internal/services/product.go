package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ecofinds/marketplace-api/internal/db"
	"github.com/ecofinds/marketplace-api/internal/metrics"
	"github.com/ecofinds/marketplace-api/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ProductService handles listings and the catalog query
type ProductService struct {
	db      *db.DB
	metrics *metrics.AppMetrics
}

// NewProductService creates a new product service
func NewProductService(db *db.DB, metrics *metrics.AppMetrics) *ProductService {
	return &ProductService{
		db:      db,
		metrics: metrics,
	}
}

const productColumns = `p.id, p.user_id, p.title, p.description, p.price, p.category, p.image_url,
	p.status, p.view_count, p.wishlist_count, p.share_count, p.created_at, p.updated_at, u.username`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	err := row.Scan(
		&p.ID, &p.UserID, &p.Title, &p.Description, &p.Price, &p.Category, &p.ImageURL,
		&p.Status, &p.ViewCount, &p.WishlistCount, &p.ShareCount, &p.CreatedAt, &p.UpdatedAt, &p.Username,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct creates a new active listing owned by the caller
func (s *ProductService) CreateProduct(ctx context.Context, userID int64, req models.CreateProductRequest) (*models.Product, error) {
	if req.Price.IsNegative() {
		return nil, &ValidationError{Fields: []FieldError{{Field: "price", Message: "must not be negative"}}}
	}

	start := time.Now()
	query := "INSERT INTO products (user_id, title, description, price, category, image_url) VALUES (?, ?, ?, ?, ?, ?)"
	result, err := s.db.ExecContext(ctx, query, userID, req.Title, req.Description, req.Price, req.Category, req.ImageURL)
	s.metrics.RecordDBQuery(ctx, "INSERT", "products", start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get product ID: %w", err)
	}

	return s.GetProduct(ctx, id)
}

// GetProduct returns a product of any status, joined with the seller name
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	start := time.Now()

	query := "SELECT " + productColumns + " FROM products p JOIN users u ON p.user_id = u.id WHERE p.id = ?"
	product, err := scanProduct(s.db.QueryRowContext(ctx, query, id))
	s.metrics.RecordDBQuery(ctx, "SELECT", "products", start, err == nil || err == sql.ErrNoRows)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Resource: "product"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// ListProducts returns one page of active products matching the filter,
// newest first, with the total counted under the same predicate.
func (s *ProductService) ListProducts(ctx context.Context, filter models.ProductFilter) (*models.ProductPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 10
	}
	offset := (filter.Page - 1) * filter.Limit

	where := "WHERE p.status = 'active'"
	var args []interface{}
	if filter.Search != "" {
		where += " AND (LOWER(p.title) LIKE ? OR LOWER(p.description) LIKE ?)"
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		args = append(args, pattern, pattern)
	}
	if filter.Category != "" {
		where += " AND p.category = ?"
		args = append(args, filter.Category)
	}

	start := time.Now()
	query := "SELECT " + productColumns + " FROM products p JOIN users u ON p.user_id = u.id " +
		where + " ORDER BY p.created_at DESC LIMIT ? OFFSET ?"
	rows, err := s.db.QueryContext(ctx, query, append(append([]interface{}{}, args...), filter.Limit, offset)...)
	s.metrics.RecordDBQuery(ctx, "SELECT", "products", start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}

	// Total under the same predicate as the page, not just the status filter
	start = time.Now()
	countQuery := "SELECT COUNT(*) FROM products p " + where
	var total int
	err = s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total)
	s.metrics.RecordDBQuery(ctx, "SELECT", "products", start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	return &models.ProductPage{
		Products: products,
		Total:    total,
		Page:     filter.Page,
		Limit:    filter.Limit,
	}, nil
}

// ListUserProducts returns a seller's active listings
func (s *ProductService) ListUserProducts(ctx context.Context, userID int64) ([]models.Product, error) {
	start := time.Now()

	query := "SELECT " + productColumns + " FROM products p JOIN users u ON p.user_id = u.id WHERE p.user_id = ? AND p.status = 'active' ORDER BY p.created_at DESC"
	rows, err := s.db.QueryContext(ctx, query, userID)
	s.metrics.RecordDBQuery(ctx, "SELECT", "products", start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query user products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// UpdateProduct updates a listing owned by the caller. A product owned by
// someone else is indistinguishable from a missing one.
func (s *ProductService) UpdateProduct(ctx context.Context, userID, productID int64, req models.UpdateProductRequest) (*models.Product, error) {
	if req.Price.IsNegative() {
		return nil, &ValidationError{Fields: []FieldError{{Field: "price", Message: "must not be negative"}}}
	}

	start := time.Now()
	var currentImage *string
	var currentStatus string
	checkQuery := "SELECT image_url, status FROM products WHERE id = ? AND user_id = ?"
	err := s.db.QueryRowContext(ctx, checkQuery, productID, userID).Scan(&currentImage, &currentStatus)
	s.metrics.RecordDBQuery(ctx, "SELECT", "products", start, err == nil || err == sql.ErrNoRows)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Resource: "product"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	imageURL := req.ImageURL
	if imageURL == nil {
		imageURL = currentImage
	}
	status := currentStatus
	if req.Status != nil {
		status = *req.Status
	}

	start = time.Now()
	updateQuery := "UPDATE products SET title = ?, description = ?, price = ?, category = ?, image_url = ?, status = ? WHERE id = ?"
	_, err = s.db.ExecContext(ctx, updateQuery, req.Title, req.Description, req.Price, req.Category, imageURL, status, productID)
	s.metrics.RecordDBQuery(ctx, "UPDATE", "products", start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return s.GetProduct(ctx, productID)
}

// DeleteProduct deletes a listing owned by the caller
func (s *ProductService) DeleteProduct(ctx context.Context, userID, productID int64) error {
	start := time.Now()

	query := "DELETE FROM products WHERE id = ? AND user_id = ?"
	result, err := s.db.ExecContext(ctx, query, productID, userID)
	s.metrics.RecordDBQuery(ctx, "DELETE", "products", start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return &NotFoundError{Resource: "product"}
	}
	return nil
}

// RecordView upserts the per-user view row and recomputes the product's
// denormalized view_count from product_views in the same transaction, so
// concurrent viewers can never drift the counter.
func (s *ProductService) RecordView(ctx context.Context, userID, productID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	start := time.Now()
	var exists bool
	checkQuery := "SELECT EXISTS(SELECT 1 FROM products WHERE id = ?)"
	err = tx.QueryRowContext(ctx, checkQuery, productID).Scan(&exists)
	s.metrics.RecordDBQuery(ctx, "SELECT", "products", start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to verify product: %w", err)
	}
	if !exists {
		return &NotFoundError{Resource: "product"}
	}

	start = time.Now()
	upsertQuery := `INSERT INTO product_views (user_id, product_id) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE view_count = view_count + 1, last_viewed_at = CURRENT_TIMESTAMP`
	_, err = tx.ExecContext(ctx, upsertQuery, userID, productID)
	s.metrics.RecordDBQuery(ctx, "INSERT", "product_views", start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to record view: %w", err)
	}

	start = time.Now()
	recomputeQuery := "UPDATE products SET view_count = (SELECT COALESCE(SUM(view_count), 0) FROM product_views WHERE product_id = ?) WHERE id = ?"
	_, err = tx.ExecContext(ctx, recomputeQuery, productID, productID)
	s.metrics.RecordDBQuery(ctx, "UPDATE", "products", start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to update view count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.metrics.ProductsViewed.Add(ctx, 1, metric.WithAttributes(s.metrics.WithServiceName([]attribute.KeyValue{
		attribute.Int64("product_id", productID),
	})...))
	return nil
}
