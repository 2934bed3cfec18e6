package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ecofinds/marketplace-api/internal/db"
	"github.com/ecofinds/marketplace-api/internal/metrics"
	"github.com/ecofinds/marketplace-api/internal/models"
	"github.com/shopspring/decimal"
)

// CartService handles cart operations. Cart items are keyed directly by
// user, with at most one row per (user, product) pair.
type CartService struct {
	db      *db.DB
	metrics *metrics.AppMetrics
}

// NewCartService creates a new cart service
func NewCartService(db *db.DB, metrics *metrics.AppMetrics) *CartService {
	return &CartService{
		db:      db,
		metrics: metrics,
	}
}

// GetCart returns the cart items joined with current product data, plus the
// exact decimal total.
func (s *CartService) GetCart(ctx context.Context, userID int64) (*models.CartResponse, error) {
	start := time.Now()

	query := `SELECT ci.id, ci.user_id, ci.product_id, ci.quantity, ci.created_at,
		       p.title, p.price, p.image_url, p.status
		FROM cart_items ci
		JOIN products p ON ci.product_id = p.id
		WHERE ci.user_id = ?`
	rows, err := s.db.QueryContext(ctx, query, userID)
	s.metrics.RecordDBQuery(ctx, "SELECT", "cart_items", start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart items: %w", err)
	}
	defer rows.Close()

	items := []models.CartItem{}
	total := decimal.Zero
	for rows.Next() {
		var item models.CartItem
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt,
			&item.Title, &item.Price, &item.ImageURL, &item.ProductStatus,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cart items: %w", err)
	}

	return &models.CartResponse{Items: items, Total: total}, nil
}

// AddItem adds an active product to the cart. If the product is already in
// the cart the quantities are merged by the unique (user, product) key.
func (s *CartService) AddItem(ctx context.Context, userID, productID int64, quantity int) (*models.CartResponse, error) {
	start := time.Now()

	var status string
	checkQuery := "SELECT status FROM products WHERE id = ?"
	err := s.db.QueryRowContext(ctx, checkQuery, productID).Scan(&status)
	s.metrics.RecordDBQuery(ctx, "SELECT", "products", start, err == nil || err == sql.ErrNoRows)
	if err == sql.ErrNoRows || (err == nil && status != models.ProductStatusActive) {
		return nil, &NotFoundError{Resource: "product"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to verify product: %w", err)
	}

	start = time.Now()
	upsertQuery := `INSERT INTO cart_items (user_id, product_id, quantity) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE quantity = quantity + VALUES(quantity)`
	_, err = s.db.ExecContext(ctx, upsertQuery, userID, productID, quantity)
	s.metrics.RecordDBQuery(ctx, "INSERT", "cart_items", start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to add item to cart: %w", err)
	}

	return s.GetCart(ctx, userID)
}

// UpdateItem sets the quantity of a cart item owned by the caller
func (s *CartService) UpdateItem(ctx context.Context, userID, itemID int64, quantity int) (*models.CartResponse, error) {
	start := time.Now()

	var exists bool
	checkQuery := "SELECT EXISTS(SELECT 1 FROM cart_items WHERE id = ? AND user_id = ?)"
	err := s.db.QueryRowContext(ctx, checkQuery, itemID, userID).Scan(&exists)
	s.metrics.RecordDBQuery(ctx, "SELECT", "cart_items", start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check cart item: %w", err)
	}
	if !exists {
		return nil, &NotFoundError{Resource: "cart item"}
	}

	start = time.Now()
	updateQuery := "UPDATE cart_items SET quantity = ? WHERE id = ? AND user_id = ?"
	_, err = s.db.ExecContext(ctx, updateQuery, quantity, itemID, userID)
	s.metrics.RecordDBQuery(ctx, "UPDATE", "cart_items", start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}

	return s.GetCart(ctx, userID)
}

// RemoveItem removes a cart item owned by the caller
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID int64) (*models.CartResponse, error) {
	start := time.Now()

	query := "DELETE FROM cart_items WHERE id = ? AND user_id = ?"
	result, err := s.db.ExecContext(ctx, query, itemID, userID)
	s.metrics.RecordDBQuery(ctx, "DELETE", "cart_items", start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to remove cart item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, &NotFoundError{Resource: "cart item"}
	}

	return s.GetCart(ctx, userID)
}

// Clear removes every cart item for the user
func (s *CartService) Clear(ctx context.Context, userID int64) error {
	start := time.Now()

	query := "DELETE FROM cart_items WHERE user_id = ?"
	_, err := s.db.ExecContext(ctx, query, userID)
	s.metrics.RecordDBQuery(ctx, "DELETE", "cart_items", start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
