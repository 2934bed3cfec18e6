package api

import (
	"net/http"

	"github.com/ecofinds/marketplace-api/internal/auth"
	"github.com/ecofinds/marketplace-api/internal/models"
)

// CheckoutHandler handles POST /api/v1/orders
func (a *App) CheckoutHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(r)
	if !ok {
		respondError(w, auth.ErrInvalidToken)
		return
	}

	order, err := a.orderService.Checkout(r.Context(), caller.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusCreated, map[string]interface{}{"order": order})
}

// ListOrdersHandler handles GET /api/v1/orders
func (a *App) ListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(r)
	if !ok {
		respondError(w, auth.ErrInvalidToken)
		return
	}

	orders, err := a.orderService.ListOrders(r.Context(), caller.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

// GetOrderHandler handles GET /api/v1/orders/{id}
func (a *App) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
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

	order, err := a.orderService.GetOrder(r.Context(), caller.ID, id)
	if err != nil {
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{"order": order})
}

// UpdateOrderStatusHandler handles PUT /api/v1/orders/{id}/status
func (a *App) UpdateOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
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

	var req models.UpdateOrderStatusRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := a.orderService.UpdateStatus(r.Context(), caller.ID, id, req.Status); err != nil {
		respondError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, "Order status updated")
}
