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

// ReviewService handles review submission and the seller rating aggregate
type ReviewService struct {
	db      *db.DB
	metrics *metrics.AppMetrics
}

// NewReviewService creates a new review service
func NewReviewService(db *db.DB, metrics *metrics.AppMetrics) *ReviewService {
	return &ReviewService{
		db:      db,
		metrics: metrics,
	}
}

// SubmitReview checks the preconditions in order (product exists, reviewer
// has a completed purchase, no prior review), then inserts the review and
// fully recomputes the seller's rating and rating_count in the same
// transaction. A reader can never observe the review without the updated
// aggregate, or vice versa.
func (s *ReviewService) SubmitReview(ctx context.Context, reviewerID, productID int64, rating int, comment string) (*models.Review, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	start := time.Now()
	var sellerID int64
	sellerQuery := "SELECT user_id FROM products WHERE id = ?"
	err = tx.QueryRowContext(ctx, sellerQuery, productID).Scan(&sellerID)
	s.metrics.RecordDBQuery(ctx, "SELECT", "products", start, err == nil || err == sql.ErrNoRows)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Resource: "product"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	start = time.Now()
	var purchased bool
	purchaseQuery := `SELECT EXISTS(
		SELECT 1 FROM orders o
		JOIN order_items oi ON o.id = oi.order_id
		WHERE o.user_id = ? AND oi.product_id = ? AND o.status = 'completed')`
	err = tx.QueryRowContext(ctx, purchaseQuery, reviewerID, productID).Scan(&purchased)
	s.metrics.RecordDBQuery(ctx, "SELECT", "orders", start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check purchase: %w", err)
	}
	if !purchased {
		return nil, ErrPurchaseRequired
	}

	start = time.Now()
	var reviewed bool
	dupQuery := "SELECT EXISTS(SELECT 1 FROM reviews WHERE product_id = ? AND reviewer_id = ?)"
	err = tx.QueryRowContext(ctx, dupQuery, productID, reviewerID).Scan(&reviewed)
	s.metrics.RecordDBQuery(ctx, "SELECT", "reviews", start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}
	if reviewed {
		return nil, ErrDuplicateReview
	}

	start = time.Now()
	insertQuery := "INSERT INTO reviews (product_id, reviewer_id, seller_id, rating, comment) VALUES (?, ?, ?, ?, ?)"
	result, err := tx.ExecContext(ctx, insertQuery, productID, reviewerID, sellerID, rating, comment)
	s.metrics.RecordDBQuery(ctx, "INSERT", "reviews", start, err == nil)
	if err != nil {
		// Unique (product, reviewer) key backstops a concurrent submit
		if strings.Contains(err.Error(), "Duplicate entry") {
			return nil, ErrDuplicateReview
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	reviewID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get review ID: %w", err)
	}

	// Full recompute of the derived aggregate, never an incremental update
	start = time.Now()
	aggregateQuery := `UPDATE users
		SET rating = (SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE seller_id = ?),
		    rating_count = (SELECT COUNT(*) FROM reviews WHERE seller_id = ?)
		WHERE id = ?`
	_, err = tx.ExecContext(ctx, aggregateQuery, sellerID, sellerID, sellerID)
	s.metrics.RecordDBQuery(ctx, "UPDATE", "users", start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to update seller rating: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.metrics.ReviewsCreated.Add(ctx, 1, metric.WithAttributes(s.metrics.WithServiceName([]attribute.KeyValue{
		attribute.Int64("seller_id", sellerID),
		attribute.Int("rating", rating),
	})...))

	return s.getReview(ctx, reviewID)
}

func (s *ReviewService) getReview(ctx context.Context, reviewID int64) (*models.Review, error) {
	start := time.Now()

	query := `SELECT r.id, r.product_id, r.reviewer_id, r.seller_id, r.rating, r.comment, r.created_at,
		       u.username, u.profile_image
		FROM reviews r
		JOIN users u ON r.reviewer_id = u.id
		WHERE r.id = ?`
	var review models.Review
	err := s.db.QueryRowContext(ctx, query, reviewID).Scan(
		&review.ID, &review.ProductID, &review.ReviewerID, &review.SellerID,
		&review.Rating, &review.Comment, &review.CreatedAt,
		&review.ReviewerName, &review.ReviewerImage,
	)
	s.metrics.RecordDBQuery(ctx, "SELECT", "reviews", start, err == nil || err == sql.ErrNoRows)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Resource: "review"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return &review, nil
}

// ListProductReviews returns a product's reviews, newest first
func (s *ReviewService) ListProductReviews(ctx context.Context, productID int64) ([]models.Review, error) {
	start := time.Now()

	query := `SELECT r.id, r.product_id, r.reviewer_id, r.seller_id, r.rating, r.comment, r.created_at,
		       u.username, u.profile_image
		FROM reviews r
		JOIN users u ON r.reviewer_id = u.id
		WHERE r.product_id = ?
		ORDER BY r.created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, productID)
	s.metrics.RecordDBQuery(ctx, "SELECT", "reviews", start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(
			&r.ID, &r.ProductID, &r.ReviewerID, &r.SellerID, &r.Rating, &r.Comment, &r.CreatedAt,
			&r.ReviewerName, &r.ReviewerImage,
		); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// ListSellerReviews returns every review referencing the seller, newest
// first, joined with reviewer and product info.
func (s *ReviewService) ListSellerReviews(ctx context.Context, sellerID int64) ([]models.Review, error) {
	start := time.Now()

	query := `SELECT r.id, r.product_id, r.reviewer_id, r.seller_id, r.rating, r.comment, r.created_at,
		       u.username, u.profile_image, p.title, p.image_url
		FROM reviews r
		JOIN users u ON r.reviewer_id = u.id
		JOIN products p ON r.product_id = p.id
		WHERE r.seller_id = ?
		ORDER BY r.created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, sellerID)
	s.metrics.RecordDBQuery(ctx, "SELECT", "reviews", start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query seller reviews: %w", err)
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(
			&r.ID, &r.ProductID, &r.ReviewerID, &r.SellerID, &r.Rating, &r.Comment, &r.CreatedAt,
			&r.ReviewerName, &r.ReviewerImage, &r.ProductTitle, &r.ProductImage,
		); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}
