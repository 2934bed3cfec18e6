package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product statuses. Only active products are purchasable or cart-addable.
const (
	ProductStatusActive   = "active"
	ProductStatusSold     = "sold"
	ProductStatusInactive = "inactive"
)

// Order statuses.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// User represents a user account. Rating and RatingCount are derived from
// reviews and never written directly outside the rating recomputation.
type User struct {
	ID           int64           `json:"id" db:"id"`
	Username     string          `json:"username" db:"username"`
	Email        string          `json:"email" db:"email"`
	PasswordHash string          `json:"-" db:"password"`
	ProfileImage *string         `json:"profile_image" db:"profile_image"`
	Bio          *string         `json:"bio" db:"bio"`
	Phone        *string         `json:"phone" db:"phone"`
	Rating       decimal.Decimal `json:"rating" db:"rating"`
	RatingCount  int             `json:"rating_count" db:"rating_count"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// Product represents a listing owned by exactly one seller
type Product struct {
	ID            int64           `json:"id" db:"id"`
	UserID        int64           `json:"user_id" db:"user_id"`
	Title         string          `json:"title" db:"title"`
	Description   string          `json:"description" db:"description"`
	Price         decimal.Decimal `json:"price" db:"price"`
	Category      string          `json:"category" db:"category"`
	ImageURL      *string         `json:"image_url" db:"image_url"`
	Status        string          `json:"status" db:"status"`
	ViewCount     int             `json:"view_count" db:"view_count"`
	WishlistCount int             `json:"wishlist_count" db:"wishlist_count"`
	ShareCount    int             `json:"share_count" db:"share_count"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`

	// Seller username, populated by joined reads
	Username string `json:"username,omitempty" db:"username"`
}

// CartItem represents an item in a user's cart. At most one row exists per
// (user, product) pair; repeated adds increment the quantity.
type CartItem struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	ProductID int64     `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Joined product fields
	Title         string          `json:"title,omitempty" db:"title"`
	Price         decimal.Decimal `json:"price" db:"price"`
	ImageURL      *string         `json:"image_url,omitempty" db:"image_url"`
	ProductStatus string          `json:"status,omitempty" db:"status"`
}

// Order represents a checkout result. TotalAmount is frozen at checkout.
type Order struct {
	ID          int64           `json:"id" db:"id"`
	UserID      int64           `json:"user_id" db:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount" db:"total_amount"`
	Status      string          `json:"status" db:"status"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	Items       []OrderItem     `json:"items,omitempty"`
}

// OrderItem freezes quantity and price at time of purchase
type OrderItem struct {
	ProductID int64           `json:"product_id" db:"product_id"`
	Title     string          `json:"title,omitempty" db:"title"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Price     decimal.Decimal `json:"price" db:"price"`
	ImageURL  *string         `json:"image_url,omitempty" db:"image_url"`
}

// Review references a product, its reviewer and the product's seller at
// review time. At most one review exists per (product, reviewer) pair.
type Review struct {
	ID         int64     `json:"id" db:"id"`
	ProductID  int64     `json:"product_id" db:"product_id"`
	ReviewerID int64     `json:"reviewer_id" db:"reviewer_id"`
	SellerID   int64     `json:"seller_id" db:"seller_id"`
	Rating     int       `json:"rating" db:"rating"`
	Comment    string    `json:"comment" db:"comment"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`

	ReviewerName  string  `json:"reviewer_name,omitempty" db:"reviewer_name"`
	ReviewerImage *string `json:"reviewer_image,omitempty" db:"reviewer_image"`
	ProductTitle  string  `json:"product_title,omitempty" db:"product_title"`
	ProductImage  *string `json:"product_image,omitempty" db:"product_image"`
}

// Message is a directed message between two users, optionally about a product.
// ReadAt is nil while the message is unread.
type Message struct {
	ID         int64      `json:"id" db:"id"`
	SenderID   int64      `json:"sender_id" db:"sender_id"`
	ReceiverID int64      `json:"receiver_id" db:"receiver_id"`
	ProductID  *int64     `json:"product_id" db:"product_id"`
	Message    string     `json:"message" db:"message"`
	ReadAt     *time.Time `json:"read_at" db:"read_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`

	SenderName   string  `json:"sender_name,omitempty" db:"sender_name"`
	SenderImage  *string `json:"sender_image,omitempty" db:"sender_image"`
	ReceiverName string  `json:"receiver_name,omitempty" db:"receiver_name"`
	ProductTitle *string `json:"product_title,omitempty" db:"product_title"`
}

// WishlistItem is a wishlist entry joined with its product
type WishlistItem struct {
	ID         int64     `json:"id" db:"id"`
	ProductID  int64     `json:"product_id" db:"product_id"`
	AddedAt    time.Time `json:"added_at" db:"created_at"`
	Product    Product   `json:"product"`
	SellerName string    `json:"seller_name" db:"seller_name"`
}

// CartResponse is a cart with its items and the exact decimal total
type CartResponse struct {
	Items []CartItem      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// ProductFilter narrows the catalog listing query
type ProductFilter struct {
	Search   string
	Category string
	Page     int
	Limit    int
}

// ProductPage is one page of the catalog plus the total match count
type ProductPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
}

// RegisterRequest is the register input
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest is the login input
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest updates only the fields that are present
type UpdateProfileRequest struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=50"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone" validate:"omitempty,max=20"`
	Bio      *string `json:"bio"`
}

// ChangePasswordRequest is the password change input
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// CreateProductRequest is the listing creation input
type CreateProductRequest struct {
	Title       string          `json:"title" validate:"required,min=3,max=100"`
	Description string          `json:"description" validate:"required,min=10"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category" validate:"required,max=50"`
	ImageURL    *string         `json:"image_url"`
}

// UpdateProductRequest is the listing update input
type UpdateProductRequest struct {
	Title       string          `json:"title" validate:"required,min=3,max=100"`
	Description string          `json:"description" validate:"required,min=10"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category" validate:"required,max=50"`
	ImageURL    *string         `json:"image_url"`
	Status      *string         `json:"status" validate:"omitempty,oneof=active sold inactive"`
}

// AddToCartRequest adds a product to the caller's cart
type AddToCartRequest struct {
	ProductID int64 `json:"product_id" validate:"required,min=1"`
	Quantity  int   `json:"quantity" validate:"required,min=1"`
}

// UpdateCartItemRequest sets the quantity of a cart item
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// UpdateOrderStatusRequest transitions an order's status
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending completed cancelled"`
}

// CreateReviewRequest is the review submission input
type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,min=3"`
}

// SendMessageRequest is the message send input
type SendMessageRequest struct {
	ReceiverID int64  `json:"receiver_id" validate:"required,min=1"`
	ProductID  *int64 `json:"product_id" validate:"omitempty,min=1"`
	Message    string `json:"message" validate:"required,min=1"`
}
