package api

import (
	"net/http"
	"strconv"

	"github.com/ecofinds/marketplace-api/internal/auth"
	"github.com/ecofinds/marketplace-api/internal/models"
)

// ListProductsHandler handles GET /api/v1/products
func (a *App) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	filter := models.ProductFilter{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
		Page:     1,
		Limit:    10,
	}
	if p := r.URL.Query().Get("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed >= 1 {
			filter.Page = parsed
		}
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed >= 1 {
			filter.Limit = parsed
		}
	}

	page, err := a.productService.ListProducts(r.Context(), filter)
	if err != nil {
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"products": page.Products,
		"pagination": map[string]int{
			"total": page.Total,
			"page":  page.Page,
			"limit": page.Limit,
		},
	})
}

// GetProductHandler handles GET /api/v1/products/{id}
func (a *App) GetProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	product, err := a.productService.GetProduct(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{"product": product})
}

// ListUserProductsHandler handles GET /api/v1/products/user/{userId}
func (a *App) ListUserProductsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		respondError(w, err)
		return
	}

	products, err := a.productService.ListUserProducts(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{"products": products})
}

// CreateProductHandler handles POST /api/v1/products
func (a *App) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(r)
	if !ok {
		respondError(w, auth.ErrInvalidToken)
		return
	}

	var req models.CreateProductRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	product, err := a.productService.CreateProduct(r.Context(), caller.ID, req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusCreated, map[string]interface{}{"product": product})
}

// UpdateProductHandler handles PUT /api/v1/products/{id}
func (a *App) UpdateProductHandler(w http.ResponseWriter, r *http.Request) {
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

	var req models.UpdateProductRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	product, err := a.productService.UpdateProduct(r.Context(), caller.ID, id, req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{"product": product})
}

// DeleteProductHandler handles DELETE /api/v1/products/{id}
func (a *App) DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
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

	if err := a.productService.DeleteProduct(r.Context(), caller.ID, id); err != nil {
		respondError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, "Product deleted successfully")
}

// RecordProductViewHandler handles POST /api/v1/products/{id}/view
func (a *App) RecordProductViewHandler(w http.ResponseWriter, r *http.Request) {
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

	if err := a.productService.RecordView(r.Context(), caller.ID, id); err != nil {
		respondError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, "View recorded")
}
