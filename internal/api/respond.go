package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/ecofinds/marketplace-api/internal/auth"
	"github.com/ecofinds/marketplace-api/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type successEnvelope struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
}

type errorEnvelope struct {
	Status  string                `json:"status"`
	Message string                `json:"message,omitempty"`
	Errors  []services.FieldError `json:"errors,omitempty"`
}

func respondSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(successEnvelope{Status: "success", Data: data})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"status": "success", "message": message})
}

// respondError maps the domain error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is logged and surfaced as an opaque 500.
func respondError(w http.ResponseWriter, err error) {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, errorEnvelope{Status: "error", Errors: ve.Fields})
		return
	}
	if errors.Is(err, services.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, errorEnvelope{Status: "error", Message: "Invalid credentials"})
		return
	}
	if errors.Is(err, auth.ErrInvalidToken) {
		writeError(w, http.StatusUnauthorized, errorEnvelope{Status: "error", Message: "Invalid token."})
		return
	}
	if errors.Is(err, services.ErrPurchaseRequired) {
		writeError(w, http.StatusForbidden, errorEnvelope{Status: "error", Message: err.Error()})
		return
	}

	var nf *services.NotFoundError
	if errors.As(err, &nf) {
		writeError(w, http.StatusNotFound, errorEnvelope{Status: "error", Message: nf.Error()})
		return
	}
	var ce *services.ConflictError
	if errors.As(err, &ce) {
		writeError(w, http.StatusConflict, errorEnvelope{Status: "error", Message: ce.Error()})
		return
	}
	var pe *services.PreconditionError
	if errors.As(err, &pe) {
		writeError(w, http.StatusBadRequest, errorEnvelope{Status: "error", Message: pe.Error()})
		return
	}

	log.Printf("internal error: %v", err)
	writeError(w, http.StatusInternalServerError, errorEnvelope{Status: "error", Message: "Server error"})
}

func writeError(w http.ResponseWriter, status int, envelope errorEnvelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope)
}

// decodeAndValidate decodes the JSON body into dst and validates it,
// returning a field-level ValidationError before any domain call runs.
func decodeAndValidate(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &services.ValidationError{Fields: []services.FieldError{{Field: "body", Message: "invalid request body"}}}
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]services.FieldError, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, services.FieldError{
					Field:   strings.ToLower(fe.Field()),
					Message: validationMessage(fe),
				})
			}
			return &services.ValidationError{Fields: fields}
		}
		return err
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}

// identity returns the authenticated caller. The auth middleware guarantees
// it is present on protected routes.
func identity(r *http.Request) (auth.Identity, bool) {
	return auth.IdentityFromContext(r.Context())
}

// pathID parses a numeric path variable
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id < 1 {
		return 0, &services.ValidationError{Fields: []services.FieldError{{Field: name, Message: "must be a positive integer"}}}
	}
	return id, nil
}
