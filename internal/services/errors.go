package services

import "errors"

// Domain error taxonomy. Handlers map these to HTTP statuses; anything that
// is none of them is treated as a persistence/internal failure and surfaced
// generically.

// FieldError describes a single violated input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries field-level detail for malformed input. It is
// produced before any domain call touches the database.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return "validation failed: " + e.Fields[0].Field
	}
	return "validation failed"
}

// NotFoundError means a referenced entity is absent or not owned by the
// caller. Ownership failures deliberately look identical to absence.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// ConflictError means the request lost against current state: a duplicate
// row or a concurrent purchase race.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// PreconditionError means a domain precondition did not hold before any
// mutation was attempted.
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string {
	return e.Message
}

var (
	// ErrEmptyCart is returned by checkout when the cart has no items.
	ErrEmptyCart = &PreconditionError{Message: "cart is empty"}

	// ErrPurchaseRequired is returned when a reviewer has no completed
	// purchase of the product.
	ErrPurchaseRequired = &PreconditionError{Message: "you must purchase the product before leaving a review"}

	// ErrDuplicateReview is returned on a second review for the same
	// (product, reviewer) pair.
	ErrDuplicateReview = &ConflictError{Message: "you have already reviewed this product"}

	// ErrListingUnavailable is returned when a checkout loses the race for
	// a listing that is no longer active. The whole checkout rolls back.
	ErrListingUnavailable = &ConflictError{Message: "a product in your cart is no longer available"}

	// ErrUserExists is returned when a registration collides with an
	// existing username or email.
	ErrUserExists = &ConflictError{Message: "user already exists"}

	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
