package api

import (
	"net/http"

	"github.com/ecofinds/marketplace-api/internal/auth"
	"github.com/ecofinds/marketplace-api/internal/models"
)

// GetCartHandler handles GET /api/v1/cart
func (a *App) GetCartHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(r)
	if !ok {
		respondError(w, auth.ErrInvalidToken)
		return
	}

	cart, err := a.cartService.GetCart(r.Context(), caller.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, cart)
}

// AddToCartHandler handles POST /api/v1/cart
func (a *App) AddToCartHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(r)
	if !ok {
		respondError(w, auth.ErrInvalidToken)
		return
	}

	var req models.AddToCartRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	cart, err := a.cartService.AddItem(r.Context(), caller.ID, req.ProductID, req.Quantity)
	if err != nil {
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusCreated, cart)
}

// UpdateCartItemHandler handles PUT /api/v1/cart/{id}
func (a *App) UpdateCartItemHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(r)
	if !ok {
		respondError(w, auth.ErrInvalidToken)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var req models.UpdateCartItemRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	cart, err := a.cartService.UpdateItem(r.Context(), caller.ID, id, req.Quantity)
	if err != nil {
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, cart)
}

// RemoveCartItemHandler handles DELETE /api/v1/cart/{id}
func (a *App) RemoveCartItemHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(r)
	if !ok {
		respondError(w, auth.ErrInvalidToken)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	cart, err := a.cartService.RemoveItem(r.Context(), caller.ID, id)
	if err != nil {
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, cart)
}

// ClearCartHandler handles DELETE /api/v1/cart
func (a *App) ClearCartHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(r)
	if !ok {
		respondError(w, auth.ErrInvalidToken)
		return
	}

	if err := a.cartService.Clear(r.Context(), caller.ID); err != nil {
		respondError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, "Cart cleared successfully")
}
