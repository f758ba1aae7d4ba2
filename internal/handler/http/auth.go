package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/epten08/go-rest-api/internal/domain"
	"github.com/epten08/go-rest-api/internal/service"
	apperrors "github.com/epten08/go-rest-api/pkg/errors"
	"github.com/epten08/go-rest-api/pkg/httputil"
	"github.com/epten08/go-rest-api/pkg/middleware"
	"github.com/epten08/go-rest-api/pkg/validator"
)

// AuthHandler handles HTTP requests for auth endpoints.
type AuthHandler struct {
	auth   *service.AuthService
	users  *service.UserService
	logger *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(authSvc *service.AuthService, userSvc *service.UserService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: authSvc, users: userSvc, logger: logger}
}

// --- Request DTOs ---

// RegisterRequest is the JSON request body for user registration. Either a
// combined name or a discrete firstName must be present.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,password"`
	Name      string `json:"name" validate:"omitempty,min=2"`
	FirstName string `json:"firstName" validate:"omitempty,min=1"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	DeviceID  string `json:"deviceId"`
	// Snake_case alias accepted for older clients.
	DeviceIDAlias string `json:"device_id"`
}

// LoginRequest is the JSON request body for user login.
type LoginRequest struct {
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required"`
	DeviceID      string `json:"deviceId"`
	DeviceIDAlias string `json:"device_id"`
}

// RefreshRequest is the JSON request body for token refresh. Both casings are
// accepted.
type RefreshRequest struct {
	RefreshToken      string `json:"refreshToken"`
	RefreshTokenSnake string `json:"refresh_token"`
}

// ResendVerificationRequest is the JSON request body for resending a
// verification email.
type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPasswordRequest is the JSON request body for requesting a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest is the JSON request body for completing a password reset.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,password"`
}

// ChangePasswordRequest is the JSON request body for changing the password of
// the authenticated user. Both casings are accepted.
type ChangePasswordRequest struct {
	CurrentPassword      string `json:"currentPassword"`
	CurrentPasswordSnake string `json:"current_password"`
	NewPassword          string `json:"newPassword"`
	NewPasswordSnake     string `json:"new_password"`
}

// --- Response types ---

// AuthResponse is the payload returned by register and login.
type AuthResponse struct {
	User         domain.Profile `json:"user"`
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	TokenType    string         `json:"tokenType"`
	ExpiresIn    int64          `json:"expiresIn"`
}

// RefreshResponse is the payload returned by refresh. Both casings are
// mirrored on output for client compatibility.
type RefreshResponse struct {
	AccessToken       string `json:"accessToken"`
	AccessTokenSnake  string `json:"access_token"`
	RefreshToken      string `json:"refreshToken"`
	RefreshTokenSnake string `json:"refresh_token"`
	TokenType         string `json:"tokenType"`
	ExpiresIn         int64  `json:"expiresIn"`
}

// --- Handlers ---

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
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

	deviceID := req.DeviceID
	if deviceID == "" {
		deviceID = req.DeviceIDAlias
	}

	profile, tokens, err := h.auth.Register(r.Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		Name:      req.Name,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		DeviceID:  deviceID,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, "User registered successfully", AuthResponse{
		User:         profile,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenType:    tokens.TokenType,
		ExpiresIn:    tokens.ExpiresIn,
	})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	deviceID := req.DeviceID
	if deviceID == "" {
		deviceID = req.DeviceIDAlias
	}

	profile, tokens, err := h.auth.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		DeviceID: deviceID,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Login successful", AuthResponse{
		User:         profile,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenType:    tokens.TokenType,
		ExpiresIn:    tokens.ExpiresIn,
	})
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token := req.RefreshToken
	if token == "" {
		token = req.RefreshTokenSnake
	}
	if token == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Success: false,
			Message: "Validation failed",
			Errors: []apperrors.FieldError{
				{Field: "refreshToken", Message: "Refresh token is required"},
			},
		})
		return
	}

	tokens, err := h.auth.Refresh(r.Context(), token)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Token refreshed successfully", RefreshResponse{
		AccessToken:       tokens.AccessToken,
		AccessTokenSnake:  tokens.AccessToken,
		RefreshToken:      tokens.RefreshToken,
		RefreshTokenSnake: tokens.RefreshToken,
		TokenType:         tokens.TokenType,
		ExpiresIn:         tokens.ExpiresIn,
	})
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	if err := h.auth.Logout(r.Context(), userID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Logged out successfully", nil)
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	profile, err := h.auth.Me(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "User retrieved successfully", profile)
}

// VerifyEmail handles GET /api/v1/auth/verify-email?token=
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Success: false,
			Message: "Validation failed",
			Errors: []apperrors.FieldError{
				{Field: "token", Message: "Verification token is required"},
			},
		})
		return
	}

	profile, err := h.auth.VerifyEmail(r.Context(), token)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Email verified successfully", profile)
}

// SendVerification handles POST /api/v1/auth/send-verification
func (h *AuthHandler) SendVerification(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	if err := h.auth.SendVerificationEmail(r.Context(), userID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Verification email sent", nil)
}

// ResendVerification handles POST /api/v1/auth/resend-verification
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req ResendVerificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.auth.ResendVerificationEmail(r.Context(), req.Email); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "If an account exists for that email, a verification message has been sent", nil)
}

// ForgotPassword handles POST /api/v1/auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "If an account exists for that email, a password reset message has been sent", nil)
}

// ResetPassword handles POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.auth.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Password reset successfully", nil)
}

// ChangePassword handles PUT /api/v1/auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	current := req.CurrentPassword
	if current == "" {
		current = req.CurrentPasswordSnake
	}
	next := req.NewPassword
	if next == "" {
		next = req.NewPasswordSnake
	}

	var fields []apperrors.FieldError
	if current == "" {
		fields = append(fields, apperrors.FieldError{Field: "currentPassword", Message: "Current password is required"})
	}
	if next == "" {
		fields = append(fields, apperrors.FieldError{Field: "newPassword", Message: "New password is required"})
	}
	if len(fields) > 0 {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Success: false,
			Message: "Validation failed",
			Errors:  fields,
		})
		return
	}

	if err := validator.Validate(struct {
		NewPassword string `json:"newPassword" validate:"min=8,password"`
	}{next}); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	if err := h.users.ChangePassword(r.Context(), userID, current, next); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Password changed successfully", nil)
}

// decodeJSON decodes a request body, writing the error response itself when
// decoding fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Success: false,
			Message: "Invalid request body",
		})
		return false
	}
	return true
}
