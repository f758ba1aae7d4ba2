package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/epten08/go-rest-api/pkg/errors"
	"github.com/epten08/go-rest-api/pkg/logger"
	"github.com/epten08/go-rest-api/pkg/pagination"
	"github.com/epten08/go-rest-api/pkg/validator"
)

// Response is the uniform JSON envelope returned by every endpoint.
type Response struct {
	Success    bool                   `json:"success"`
	Message    string                 `json:"message"`
	Data       any                    `json:"data,omitempty"`
	Pagination *pagination.Pagination `json:"pagination,omitempty"`
	Errors     []apperrors.FieldError `json:"errors,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a success envelope with the given message and payload.
func WriteSuccess(w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// WritePaginated writes a success envelope carrying a paginated list.
func WritePaginated(w http.ResponseWriter, message string, data any, p pagination.Pagination) {
	WriteJSON(w, http.StatusOK, Response{
		Success:    true,
		Message:    message,
		Data:       data,
		Pagination: &p,
	})
}

// WriteError writes a failure envelope based on the error type. AppError
// statuses and messages pass through; anything else is reported as a 500 and
// logged with the request-scoped logger from context (set by the
// RequestLogger middleware), falling back to the provided logger.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		WriteJSON(w, appErr.Status, Response{
			Success: false,
			Message: appErr.Message,
			Errors:  appErr.Fields,
		})
		return
	}

	l := logger.FromContext(r.Context())
	if l == slog.Default() && fallback != nil {
		l = fallback
	}
	l.ErrorContext(r.Context(), "internal error",
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	WriteJSON(w, http.StatusInternalServerError, Response{
		Success: false,
		Message: "Internal server error",
	})
}

// WriteValidationError writes a 400 envelope with field-level errors.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Message: "Validation failed",
			Errors:  valErr.Fields(),
		})
		return
	}

	WriteJSON(w, http.StatusBadRequest, Response{
		Success: false,
		Message: err.Error(),
	})
}
