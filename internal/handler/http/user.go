package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/epten08/go-rest-api/internal/service"
	apperrors "github.com/epten08/go-rest-api/pkg/errors"
	"github.com/epten08/go-rest-api/pkg/httputil"
	"github.com/epten08/go-rest-api/pkg/middleware"
	"github.com/epten08/go-rest-api/pkg/pagination"
	"github.com/epten08/go-rest-api/pkg/validator"
)

// UserHandler handles HTTP requests for user endpoints.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new user HTTP handler.
func NewUserHandler(userSvc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: userSvc, logger: logger}
}

// CreateUserRequest is the JSON request body for creating a user.
type CreateUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,password"`
	Name      string `json:"name" validate:"omitempty,min=2"`
	FirstName string `json:"firstName" validate:"omitempty,min=1"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

// UpdateUserRequest is the JSON request body for updating a user. All fields
// are optional.
type UpdateUserRequest struct {
	Email     *string `json:"email" validate:"omitempty,email"`
	Name      *string `json:"name" validate:"omitempty,min=2"`
	FirstName *string `json:"firstName" validate:"omitempty,min=1"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
	DeviceID  *string `json:"deviceId"`
}

// AddressRequest carries the optional address block of a profile update.
type AddressRequest struct {
	Street     *string `json:"street"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	Country    *string `json:"country"`
	PostalCode *string `json:"postalCode"`
}

// PreferencesRequest carries the optional preferences block of a profile update.
type PreferencesRequest struct {
	Language      *string `json:"language"`
	Theme         *string `json:"theme" validate:"omitempty,oneof=light dark system"`
	Notifications *bool   `json:"notifications"`
}

// UpdateProfileRequest is the JSON request body for updating the
// authenticated user's profile.
type UpdateProfileRequest struct {
	FirstName   *string             `json:"firstName" validate:"omitempty,min=1"`
	LastName    *string             `json:"lastName"`
	Phone       *string             `json:"phone"`
	Avatar      *string             `json:"avatar" validate:"omitempty,url"`
	DateOfBirth *string             `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	Gender      *string             `json:"gender" validate:"omitempty,oneof=male female other"`
	Address     *AddressRequest     `json:"address"`
	Preferences *PreferencesRequest `json:"preferences"`
}

// DeleteAccountRequest is the JSON request body for deleting the
// authenticated user's account.
type DeleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

// Create handles POST /api/v1/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if req.FirstName == "" && req.Name == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Success: false,
			Message: "Validation failed",
			Errors: []apperrors.FieldError{
				{Field: "firstName", Message: "firstName or name is required"},
			},
		})
		return
	}

	profile, err := h.users.Create(r.Context(), service.CreateUserInput{
		Email:     req.Email,
		Password:  req.Password,
		Name:      req.Name,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, "User created successfully", profile)
}

// Get handles GET /api/v1/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	profile, err := h.users.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "User retrieved successfully", profile)
}

// List handles GET /api/v1/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	profiles, p, err := h.users.List(r.Context(), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WritePaginated(w, "Users retrieved successfully", profiles, p)
}

// Update handles PATCH /api/v1/users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	profile, err := h.users.Update(r.Context(), id, service.UpdateUserInput{
		Email:     req.Email,
		Name:      req.Name,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		DeviceID:  req.DeviceID,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "User updated successfully", profile)
}

// Delete handles DELETE /api/v1/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.users.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "User deleted successfully", nil)
}

// GetProfile handles GET /api/v1/users/me/profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	profile, err := h.users.GetProfile(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Profile retrieved successfully", profile)
}

// UpdateProfile handles PATCH /api/v1/users/me/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := service.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Avatar:    req.Avatar,
		Gender:    req.Gender,
	}
	if req.DateOfBirth != nil {
		dob, err := time.Parse("2006-01-02", strings.TrimSpace(*req.DateOfBirth))
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Success: false,
				Message: "Validation failed",
				Errors: []apperrors.FieldError{
					{Field: "dateOfBirth", Message: "must match the 2006-01-02 format"},
				},
			})
			return
		}
		input.DateOfBirth = &dob
	}
	if req.Address != nil {
		input.Address = &service.AddressInput{
			Street:     req.Address.Street,
			City:       req.Address.City,
			State:      req.Address.State,
			Country:    req.Address.Country,
			PostalCode: req.Address.PostalCode,
		}
	}
	if req.Preferences != nil {
		input.Preferences = &service.PreferencesInput{
			Language:      req.Preferences.Language,
			Theme:         req.Preferences.Theme,
			Notifications: req.Preferences.Notifications,
		}
	}

	profile, err := h.users.UpdateProfile(r.Context(), userID, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Profile updated successfully", profile)
}

// DeleteAccount handles DELETE /api/v1/users/me
func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req DeleteAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.users.DeleteAccount(r.Context(), userID, req.Password); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Account deleted successfully", nil)
}
