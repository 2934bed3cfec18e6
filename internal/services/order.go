package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/ecofinds/marketplace-api/internal/db"
	"github.com/ecofinds/marketplace-api/internal/metrics"
	"github.com/ecofinds/marketplace-api/internal/models"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OrderService handles checkout and order reads
type OrderService struct {
	db      *db.DB
	metrics *metrics.AppMetrics
}

// NewOrderService creates a new order service
func NewOrderService(db *db.DB, metrics *metrics.AppMetrics) *OrderService {
	return &OrderService{
		db:      db,
		metrics: metrics,
	}
}

// Checkout converts the user's cart into an order as one atomic unit:
// insert the order, freeze each item's price and quantity, mark every
// purchased listing sold, and clear the cart. Any failure rolls the whole
// thing back and leaves the cart untouched.
//
// The sold transition is a guarded update conditioned on the listing still
// being active, so two concurrent checkouts of the same single-unit listing
// cannot both succeed; the loser gets ErrListingUnavailable.
func (s *OrderService) Checkout(ctx context.Context, userID int64) (*models.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	start := time.Now()
	cartQuery := `SELECT ci.product_id, ci.quantity, p.price
		FROM cart_items ci
		JOIN products p ON ci.product_id = p.id
		WHERE ci.user_id = ?
		FOR UPDATE`
	rows, err := tx.QueryContext(ctx, cartQuery, userID)
	s.metrics.RecordDBQuery(ctx, "SELECT", "cart_items", start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart items: %w", err)
	}

	type checkoutItem struct {
		ProductID int64
		Quantity  int
		Price     decimal.Decimal
	}
	var items []checkoutItem
	for rows.Next() {
		var item checkoutItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.Price); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to read cart items: %w", err)
	}
	rows.Close()

	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	// Exact decimal sum of price x quantity; currency never touches floats
	totalAmount := decimal.Zero
	for _, item := range items {
		totalAmount = totalAmount.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	start = time.Now()
	orderQuery := "INSERT INTO orders (user_id, total_amount, status) VALUES (?, ?, 'pending')"
	result, err := tx.ExecContext(ctx, orderQuery, userID, totalAmount)
	s.metrics.RecordDBQuery(ctx, "INSERT", "orders", start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	orderID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get order ID: %w", err)
	}

	itemQuery := "INSERT INTO order_items (order_id, product_id, quantity, price) VALUES (?, ?, ?, ?)"
	soldQuery := "UPDATE products SET status = 'sold' WHERE id = ? AND status = 'active'"
	for _, item := range items {
		start = time.Now()
		_, err = tx.ExecContext(ctx, itemQuery, orderID, item.ProductID, item.Quantity, item.Price)
		s.metrics.RecordDBQuery(ctx, "INSERT", "order_items", start, err == nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}

		start = time.Now()
		soldResult, err := tx.ExecContext(ctx, soldQuery, item.ProductID)
		s.metrics.RecordDBQuery(ctx, "UPDATE", "products", start, err == nil)
		if err != nil {
			return nil, fmt.Errorf("failed to mark product sold: %w", err)
		}
		affected, err := soldResult.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			// Guard failed: the listing was bought or withdrawn since it
			// went into the cart. Abort the whole checkout.
			s.metrics.CheckoutConflict.Add(ctx, 1, metric.WithAttributes(s.metrics.WithServiceName([]attribute.KeyValue{
				attribute.Int64("product_id", item.ProductID),
			})...))
			return nil, ErrListingUnavailable
		}
	}

	start = time.Now()
	clearQuery := "DELETE FROM cart_items WHERE user_id = ?"
	_, err = tx.ExecContext(ctx, clearQuery, userID)
	s.metrics.RecordDBQuery(ctx, "DELETE", "cart_items", start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	total, _ := totalAmount.Float64()
	attrs := s.metrics.WithServiceName([]attribute.KeyValue{
		attribute.Int("item_count", len(items)),
	})
	s.metrics.OrdersCreated.Add(ctx, 1, metric.WithAttributes(attrs...))
	s.metrics.RevenueTotal.Add(ctx, total, metric.WithAttributes(attrs...))
	log.Printf("[ORDER] Checkout complete: order_id=%d, user_id=%d, total=%s, items=%d",
		orderID, userID, totalAmount.StringFixed(2), len(items))

	return s.GetOrder(ctx, userID, orderID)
}

const orderItemJoin = `SELECT o.id, o.user_id, o.total_amount, o.status, o.created_at,
	       oi.product_id, oi.quantity, oi.price, p.title, p.image_url
	FROM orders o
	JOIN order_items oi ON o.id = oi.order_id
	JOIN products p ON oi.product_id = p.id`

func scanOrderRow(rows *sql.Rows) (models.Order, models.OrderItem, error) {
	var order models.Order
	var item models.OrderItem
	err := rows.Scan(
		&order.ID, &order.UserID, &order.TotalAmount, &order.Status, &order.CreatedAt,
		&item.ProductID, &item.Quantity, &item.Price, &item.Title, &item.ImageURL,
	)
	return order, item, err
}

// GetOrder returns one of the caller's orders with its materialized items
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	start := time.Now()

	query := orderItemJoin + " WHERE o.id = ? AND o.user_id = ?"
	rows, err := s.db.QueryContext(ctx, query, orderID, userID)
	s.metrics.RecordDBQuery(ctx, "SELECT", "orders", start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	defer rows.Close()

	var order *models.Order
	for rows.Next() {
		o, item, err := scanOrderRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		if order == nil {
			order = &o
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read order: %w", err)
	}
	if order == nil {
		return nil, &NotFoundError{Resource: "order"}
	}
	return order, nil
}

// ListOrders returns the caller's orders, newest first, with items grouped
// per order.
func (s *OrderService) ListOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	start := time.Now()

	query := orderItemJoin + " WHERE o.user_id = ? ORDER BY o.created_at DESC, o.id DESC"
	rows, err := s.db.QueryContext(ctx, query, userID)
	s.metrics.RecordDBQuery(ctx, "SELECT", "orders", start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	index := make(map[int64]int)
	for rows.Next() {
		o, item, err := scanOrderRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		i, ok := index[o.ID]
		if !ok {
			orders = append(orders, o)
			i = len(orders) - 1
			index[o.ID] = i
		}
		orders[i].Items = append(orders[i].Items, item)
	}
	return orders, rows.Err()
}

// UpdateStatus transitions the status of an order owned by the caller
func (s *OrderService) UpdateStatus(ctx context.Context, userID, orderID int64, status string) error {
	switch status {
	case models.OrderStatusPending, models.OrderStatusCompleted, models.OrderStatusCancelled:
	default:
		return &ValidationError{Fields: []FieldError{{Field: "status", Message: "invalid status: " + status}}}
	}

	start := time.Now()
	var exists bool
	checkQuery := "SELECT EXISTS(SELECT 1 FROM orders WHERE id = ? AND user_id = ?)"
	err := s.db.QueryRowContext(ctx, checkQuery, orderID, userID).Scan(&exists)
	s.metrics.RecordDBQuery(ctx, "SELECT", "orders", start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to check order: %w", err)
	}
	if !exists {
		return &NotFoundError{Resource: "order"}
	}

	start = time.Now()
	updateQuery := "UPDATE orders SET status = ? WHERE id = ? AND user_id = ?"
	_, err = s.db.ExecContext(ctx, updateQuery, status, orderID, userID)
	s.metrics.RecordDBQuery(ctx, "UPDATE", "orders", start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return nil
}
