package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ecofinds/marketplace-api/internal/db"
	"github.com/ecofinds/marketplace-api/internal/metrics"
	"github.com/ecofinds/marketplace-api/internal/models"
)

// MessageService handles buyer/seller messaging
type MessageService struct {
	db      *db.DB
	metrics *metrics.AppMetrics
}

// NewMessageService creates a new message service
func NewMessageService(db *db.DB, metrics *metrics.AppMetrics) *MessageService {
	return &MessageService{
		db:      db,
		metrics: metrics,
	}
}

// Send creates a message from the caller to another user, optionally tagged
// with a product.
func (s *MessageService) Send(ctx context.Context, senderID int64, req models.SendMessageRequest) (*models.Message, error) {
	start := time.Now()

	var exists bool
	checkQuery := "SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)"
	err := s.db.QueryRowContext(ctx, checkQuery, req.ReceiverID).Scan(&exists)
	s.metrics.RecordDBQuery(ctx, "SELECT", "users", start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to verify receiver: %w", err)
	}
	if !exists {
		return nil, &NotFoundError{Resource: "receiver"}
	}

	start = time.Now()
	insertQuery := "INSERT INTO messages (sender_id, receiver_id, product_id, message) VALUES (?, ?, ?, ?)"
	result, err := s.db.ExecContext(ctx, insertQuery, senderID, req.ReceiverID, req.ProductID, req.Message)
	s.metrics.RecordDBQuery(ctx, "INSERT", "messages", start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get message ID: %w", err)
	}

	start = time.Now()
	query := `SELECT m.id, m.sender_id, m.receiver_id, m.product_id, m.message, m.read_at, m.created_at,
		       u.username, u.profile_image
		FROM messages m
		JOIN users u ON m.sender_id = u.id
		WHERE m.id = ?`
	var msg models.Message
	err = s.db.QueryRowContext(ctx, query, id).Scan(
		&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.ProductID, &msg.Message, &msg.ReadAt, &msg.CreatedAt,
		&msg.SenderName, &msg.SenderImage,
	)
	s.metrics.RecordDBQuery(ctx, "SELECT", "messages", start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &msg, nil
}

// Conversation returns the two-way history between the caller and another
// user, oldest first.
func (s *MessageService) Conversation(ctx context.Context, userID, otherID int64) ([]models.Message, error) {
	start := time.Now()

	query := `SELECT m.id, m.sender_id, m.receiver_id, m.product_id, m.message, m.read_at, m.created_at,
		       u1.username, u1.profile_image, u2.username, p.title
		FROM messages m
		JOIN users u1 ON m.sender_id = u1.id
		JOIN users u2 ON m.receiver_id = u2.id
		LEFT JOIN products p ON m.product_id = p.id
		WHERE (m.sender_id = ? AND m.receiver_id = ?)
		   OR (m.sender_id = ? AND m.receiver_id = ?)
		ORDER BY m.created_at ASC`
	rows, err := s.db.QueryContext(ctx, query, userID, otherID, otherID, userID)
	s.metrics.RecordDBQuery(ctx, "SELECT", "messages", start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(
			&m.ID, &m.SenderID, &m.ReceiverID, &m.ProductID, &m.Message, &m.ReadAt, &m.CreatedAt,
			&m.SenderName, &m.SenderImage, &m.ReceiverName, &m.ProductTitle,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// MarkRead stamps read_at on every unread message from the given sender to
// the caller.
func (s *MessageService) MarkRead(ctx context.Context, userID, senderID int64) error {
	start := time.Now()

	query := `UPDATE messages
		SET read_at = CURRENT_TIMESTAMP
		WHERE sender_id = ? AND receiver_id = ? AND read_at IS NULL`
	_, err := s.db.ExecContext(ctx, query, senderID, userID)
	s.metrics.RecordDBQuery(ctx, "UPDATE", "messages", start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return nil
}

// UnreadCount returns the number of unread messages addressed to the caller
func (s *MessageService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	start := time.Now()

	var count int
	query := "SELECT COUNT(*) FROM messages WHERE receiver_id = ? AND read_at IS NULL"
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&count)
	s.metrics.RecordDBQuery(ctx, "SELECT", "messages", start, err == nil)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}
