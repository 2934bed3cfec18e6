package api

import (
	"net/http"

	"github.com/ecofinds/marketplace-api/internal/auth"
)

// ToggleWishlistHandler handles POST /api/v1/wishlist/{productId}
func (a *App) ToggleWishlistHandler(w http.ResponseWriter, r *http.Request) {
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

	inWishlist, err := a.wishlistService.Toggle(r.Context(), caller.ID, productID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{"inWishlist": inWishlist})
}

// GetWishlistHandler handles GET /api/v1/wishlist
func (a *App) GetWishlistHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(r)
	if !ok {
		respondError(w, auth.ErrInvalidToken)
		return
	}

	items, err := a.wishlistService.List(r.Context(), caller.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{"wishlist": items})
}

// ClearWishlistHandler handles DELETE /api/v1/wishlist
func (a *App) ClearWishlistHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(r)
	if !ok {
		respondError(w, auth.ErrInvalidToken)
		return
	}

	if err := a.wishlistService.Clear(r.Context(), caller.ID); err != nil {
		respondError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, "Wishlist cleared")
}
