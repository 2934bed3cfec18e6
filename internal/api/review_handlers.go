package api

import (
	"net/http"

	"github.com/ecofinds/marketplace-api/internal/auth"
	"github.com/ecofinds/marketplace-api/internal/models"
)

// CreateReviewHandler handles POST /api/v1/reviews/{productId}
func (a *App) CreateReviewHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(r)
	if !ok {
		respondError(w, auth.ErrInvalidToken)
		return
	}

	productID, err := pathID(r, "productId")
	if err != nil {
		respondError(w, err)
		return
	}

	var req models.CreateReviewRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	review, err := a.reviewService.SubmitReview(r.Context(), caller.ID, productID, req.Rating, req.Comment)
	if err != nil {
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusCreated, map[string]interface{}{"review": review})
}

// ListProductReviewsHandler handles GET /api/v1/reviews/product/{productId}
func (a *App) ListProductReviewsHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "productId")
	if err != nil {
		respondError(w, err)
		return
	}

	reviews, err := a.reviewService.ListProductReviews(r.Context(), productID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{"reviews": reviews})
}

// ListSellerReviewsHandler handles GET /api/v1/reviews/seller/{sellerId}
func (a *App) ListSellerReviewsHandler(w http.ResponseWriter, r *http.Request) {
	sellerID, err := pathID(r, "sellerId")
	if err != nil {
		respondError(w, err)
		return
	}

	reviews, err := a.reviewService.ListSellerReviews(r.Context(), sellerID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{"reviews": reviews})
}
