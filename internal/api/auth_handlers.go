package api

import (
	"net/http"

	"github.com/ecofinds/marketplace-api/internal/auth"
	"github.com/ecofinds/marketplace-api/internal/models"
)

// RegisterHandler handles POST /api/v1/auth/register
func (a *App) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	user, err := a.userService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	token, err := a.tokens.Issue(auth.Identity{ID: user.ID, Username: user.Username})
	if err != nil {
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusCreated, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// LoginHandler handles POST /api/v1/auth/login
func (a *App) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	user, err := a.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	token, err := a.tokens.Issue(auth.Identity{ID: user.ID, Username: user.Username})
	if err != nil {
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// MeHandler handles GET /api/v1/auth/me
func (a *App) MeHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(r)
	if !ok {
		respondError(w, auth.ErrInvalidToken)
		return
	}

	user, err := a.userService.GetUser(r.Context(), caller.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{"user": user})
}

// UpdateProfileHandler handles PUT /api/v1/auth/profile
func (a *App) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(r)
	if !ok {
		respondError(w, auth.ErrInvalidToken)
		return
	}

	var req models.UpdateProfileRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	user, err := a.userService.UpdateProfile(r.Context(), caller.ID, req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{"user": user})
}

// ChangePasswordHandler handles PUT /api/v1/auth/password
func (a *App) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(r)
	if !ok {
		respondError(w, auth.ErrInvalidToken)
		return
	}

	var req models.ChangePasswordRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := a.userService.ChangePassword(r.Context(), caller.ID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, "Password updated successfully")
}
