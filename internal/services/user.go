package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ecofinds/marketplace-api/internal/auth"
	"github.com/ecofinds/marketplace-api/internal/db"
	"github.com/ecofinds/marketplace-api/internal/metrics"
	"github.com/ecofinds/marketplace-api/internal/models"
)

// UserService handles accounts: registration, login, profile
type UserService struct {
	db      *db.DB
	metrics *metrics.AppMetrics
}

// NewUserService creates a new user service
func NewUserService(db *db.DB, metrics *metrics.AppMetrics) *UserService {
	return &UserService{
		db:      db,
		metrics: metrics,
	}
}

const userColumns = "id, username, email, password, profile_image, bio, phone, rating, rating_count, created_at"

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.ProfileImage,
		&u.Bio, &u.Phone, &u.Rating, &u.RatingCount, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Register creates a new account with a bcrypt-hashed password
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	start := time.Now()

	var exists bool
	checkQuery := "SELECT EXISTS(SELECT 1 FROM users WHERE email = ? OR username = ?)"
	err := s.db.QueryRowContext(ctx, checkQuery, email, username).Scan(&exists)
	s.metrics.RecordDBQuery(ctx, "SELECT", "users", start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	start = time.Now()
	insertQuery := "INSERT INTO users (username, email, password) VALUES (?, ?, ?)"
	result, err := s.db.ExecContext(ctx, insertQuery, username, email, hash)
	s.metrics.RecordDBQuery(ctx, "INSERT", "users", start, err == nil)
	if err != nil {
		// MySQL error 1062: a concurrent registration won the unique key
		if strings.Contains(err.Error(), "Duplicate entry") {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get user ID: %w", err)
	}

	return s.GetUser(ctx, id)
}

// Authenticate verifies credentials for login. Unknown email and wrong
// password return the same error so callers cannot probe accounts.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	start := time.Now()

	query := "SELECT " + userColumns + " FROM users WHERE email = ?"
	user, err := scanUser(s.db.QueryRowContext(ctx, query, email))
	s.metrics.RecordDBQuery(ctx, "SELECT", "users", start, err == nil || err == sql.ErrNoRows)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUser returns a user by ID
func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	start := time.Now()

	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	user, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	s.metrics.RecordDBQuery(ctx, "SELECT", "users", start, err == nil || err == sql.ErrNoRows)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Resource: "user"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateProfile updates only the provided fields and returns the fresh row
func (s *UserService) UpdateProfile(ctx context.Context, id int64, req models.UpdateProfileRequest) (*models.User, error) {
	start := time.Now()

	query := `UPDATE users
		SET username = COALESCE(?, username),
		    email = COALESCE(?, email),
		    phone = COALESCE(?, phone),
		    bio = COALESCE(?, bio)
		WHERE id = ?`
	_, err := s.db.ExecContext(ctx, query, req.Username, req.Email, req.Phone, req.Bio, id)
	s.metrics.RecordDBQuery(ctx, "UPDATE", "users", start, err == nil)
	if err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return s.GetUser(ctx, id)
}

// ChangePassword verifies the current password before storing the new hash
func (s *UserService) ChangePassword(ctx context.Context, id int64, currentPassword, newPassword string) error {
	start := time.Now()

	var storedHash string
	query := "SELECT password FROM users WHERE id = ?"
	err := s.db.QueryRowContext(ctx, query, id).Scan(&storedHash)
	s.metrics.RecordDBQuery(ctx, "SELECT", "users", start, err == nil || err == sql.ErrNoRows)
	if err == sql.ErrNoRows {
		return &NotFoundError{Resource: "user"}
	}
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !auth.CheckPassword(storedHash, currentPassword) {
		return &PreconditionError{Message: "current password is incorrect"}
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	start = time.Now()
	updateQuery := "UPDATE users SET password = ? WHERE id = ?"
	_, err = s.db.ExecContext(ctx, updateQuery, hash, id)
	s.metrics.RecordDBQuery(ctx, "UPDATE", "users", start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}
