package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ecofinds/marketplace-api/internal/db"
	"github.com/ecofinds/marketplace-api/internal/metrics"
	"github.com/ecofinds/marketplace-api/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// WishlistService handles the per-user wishlist and the product's
// denormalized wishlist_count.
type WishlistService struct {
	db      *db.DB
	metrics *metrics.AppMetrics
}

// NewWishlistService creates a new wishlist service
func NewWishlistService(db *db.DB, metrics *metrics.AppMetrics) *WishlistService {
	return &WishlistService{
		db:      db,
		metrics: metrics,
	}
}

// Toggle adds the product to the caller's wishlist if absent, removes it if
// present. The existence check, the mutation and the counter recompute run
// in one transaction, and the counter is recomputed from the wishlist table
// so concurrent toggles cannot drift it or push it below zero.
func (s *WishlistService) Toggle(ctx context.Context, userID, productID int64) (inWishlist bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	start := time.Now()
	var exists bool
	checkQuery := "SELECT EXISTS(SELECT 1 FROM products WHERE id = ?)"
	err = tx.QueryRowContext(ctx, checkQuery, productID).Scan(&exists)
	s.metrics.RecordDBQuery(ctx, "SELECT", "products", start, err == nil)
	if err != nil {
		return false, fmt.Errorf("failed to verify product: %w", err)
	}
	if !exists {
		return false, &NotFoundError{Resource: "product"}
	}

	start = time.Now()
	deleteQuery := "DELETE FROM wishlist WHERE user_id = ? AND product_id = ?"
	result, err := tx.ExecContext(ctx, deleteQuery, userID, productID)
	s.metrics.RecordDBQuery(ctx, "DELETE", "wishlist", start, err == nil)
	if err != nil {
		return false, fmt.Errorf("failed to toggle wishlist: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if removed == 0 {
		start = time.Now()
		insertQuery := "INSERT INTO wishlist (user_id, product_id) VALUES (?, ?)"
		_, err = tx.ExecContext(ctx, insertQuery, userID, productID)
		s.metrics.RecordDBQuery(ctx, "INSERT", "wishlist", start, err == nil)
		if err != nil {
			// Unique (user, product) key lost against a concurrent toggle
			if strings.Contains(err.Error(), "Duplicate entry") {
				return false, &ConflictError{Message: "wishlist changed concurrently, try again"}
			}
			return false, fmt.Errorf("failed to add to wishlist: %w", err)
		}
		inWishlist = true
	}

	start = time.Now()
	var count int64
	countQuery := "SELECT COUNT(*) FROM wishlist WHERE product_id = ?"
	err = tx.QueryRowContext(ctx, countQuery, productID).Scan(&count)
	s.metrics.RecordDBQuery(ctx, "SELECT", "wishlist", start, err == nil)
	if err != nil {
		return false, fmt.Errorf("failed to count wishlist entries: %w", err)
	}

	start = time.Now()
	recomputeQuery := "UPDATE products SET wishlist_count = ? WHERE id = ?"
	_, err = tx.ExecContext(ctx, recomputeQuery, count, productID)
	s.metrics.RecordDBQuery(ctx, "UPDATE", "products", start, err == nil)
	if err != nil {
		return false, fmt.Errorf("failed to update wishlist count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.metrics.WishlistSize.Record(ctx, count, metric.WithAttributes(s.metrics.WithServiceName([]attribute.KeyValue{
		attribute.Int64("product_id", productID),
	})...))
	return inWishlist, nil
}

// List returns the caller's wishlist joined with product and seller data,
// newest entries first.
func (s *WishlistService) List(ctx context.Context, userID int64) ([]models.WishlistItem, error) {
	start := time.Now()

	query := `SELECT w.id, w.product_id, w.created_at,
		       p.id, p.user_id, p.title, p.description, p.price, p.category, p.image_url,
		       p.status, p.view_count, p.wishlist_count, p.share_count, p.created_at, p.updated_at,
		       u.username
		FROM wishlist w
		JOIN products p ON w.product_id = p.id
		JOIN users u ON p.user_id = u.id
		WHERE w.user_id = ?
		ORDER BY w.created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, userID)
	s.metrics.RecordDBQuery(ctx, "SELECT", "wishlist", start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query wishlist: %w", err)
	}
	defer rows.Close()

	items := []models.WishlistItem{}
	for rows.Next() {
		var item models.WishlistItem
		var p models.Product
		if err := rows.Scan(
			&item.ID, &item.ProductID, &item.AddedAt,
			&p.ID, &p.UserID, &p.Title, &p.Description, &p.Price, &p.Category, &p.ImageURL,
			&p.Status, &p.ViewCount, &p.WishlistCount, &p.ShareCount, &p.CreatedAt, &p.UpdatedAt,
			&item.SellerName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan wishlist item: %w", err)
		}
		item.Product = p
		items = append(items, item)
	}
	return items, rows.Err()
}

// Clear removes every wishlist entry for the user and recomputes the
// counters of the affected products in the same transaction.
func (s *WishlistService) Clear(ctx context.Context, userID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	start := time.Now()
	idQuery := "SELECT product_id FROM wishlist WHERE user_id = ?"
	rows, err := tx.QueryContext(ctx, idQuery, userID)
	s.metrics.RecordDBQuery(ctx, "SELECT", "wishlist", start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to query wishlist: %w", err)
	}

	var productIDs []interface{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan wishlist entry: %w", err)
		}
		productIDs = append(productIDs, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("failed to read wishlist: %w", err)
	}
	rows.Close()

	if len(productIDs) == 0 {
		return nil
	}

	start = time.Now()
	deleteQuery := "DELETE FROM wishlist WHERE user_id = ?"
	_, err = tx.ExecContext(ctx, deleteQuery, userID)
	s.metrics.RecordDBQuery(ctx, "DELETE", "wishlist", start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to clear wishlist: %w", err)
	}

	placeholders := make([]string, len(productIDs))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	start = time.Now()
	recomputeQuery := fmt.Sprintf(
		"UPDATE products SET wishlist_count = (SELECT COUNT(*) FROM wishlist WHERE wishlist.product_id = products.id) WHERE id IN (%s)",
		strings.Join(placeholders, ","))
	_, err = tx.ExecContext(ctx, recomputeQuery, productIDs...)
	s.metrics.RecordDBQuery(ctx, "UPDATE", "products", start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to update wishlist counts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
