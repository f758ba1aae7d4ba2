package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epten08/go-rest-api/internal/auth"
	"github.com/epten08/go-rest-api/internal/domain"
	"github.com/epten08/go-rest-api/internal/service"
	apperrors "github.com/epten08/go-rest-api/pkg/errors"
	"github.com/epten08/go-rest-api/pkg/health"
	"github.com/epten08/go-rest-api/pkg/logger"
	"github.com/epten08/go-rest-api/pkg/middleware"
	"github.com/epten08/go-rest-api/pkg/pagination"
)

// fakeUserRepo is an in-memory user store backing the full-router tests.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return apperrors.ErrConflict
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeUserRepo) GetByVerificationTokenHash(ctx context.Context, tokenHash string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.EmailVerificationTokenHash != "" && u.EmailVerificationTokenHash == tokenHash {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeUserRepo) GetByPasswordResetTokenHash(ctx context.Context, tokenHash string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.PasswordResetTokenHash != "" && u.PasswordResetTokenHash == tokenHash {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeUserRepo) List(ctx context.Context, params pagination.Params) ([]domain.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []domain.User
	for _, u := range r.users {
		all = append(all, *u)
	}
	total := len(all)
	if params.Offset >= total {
		return nil, total, nil
	}
	end := params.Offset + params.Limit
	if end > total {
		end = total
	}
	return all[params.Offset:end], total, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[user.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	for _, u := range r.users {
		if u.ID != user.ID && u.Email == user.Email {
			return apperrors.ErrConflict
		}
	}
	cp := *user
	cp.RefreshTokenHash = stored.RefreshTokenHash
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.PasswordResetTokenHash = ""
	u.PasswordResetExpiresAt = nil
	u.RefreshTokenHash = ""
	return nil
}

func (r *fakeUserRepo) SetRefreshToken(ctx context.Context, id, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.RefreshTokenHash = tokenHash
	return nil
}

func (r *fakeUserRepo) ClearRefreshToken(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.RefreshTokenHash = ""
	}
	return nil
}

func (r *fakeUserRepo) SetVerificationToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.EmailVerificationTokenHash = tokenHash
	u.EmailVerificationExpiresAt = &expiresAt
	return nil
}

func (r *fakeUserRepo) MarkEmailVerified(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.EmailVerified = true
	u.EmailVerificationTokenHash = ""
	u.EmailVerificationExpiresAt = nil
	return nil
}

func (r *fakeUserRepo) SetPasswordResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.PasswordResetTokenHash = tokenHash
	u.PasswordResetExpiresAt = &expiresAt
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

// fakePostRepo is an in-memory post store.
type fakePostRepo struct {
	mu    sync.Mutex
	posts map[string]*domain.Post
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[string]*domain.Post)}
}

func (r *fakePostRepo) Create(ctx context.Context, post *domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *post
	r.posts[post.ID] = &cp
	return nil
}

func (r *fakePostRepo) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePostRepo) List(ctx context.Context, params pagination.Params) ([]domain.Post, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []domain.Post
	for _, p := range r.posts {
		all = append(all, *p)
	}
	return all, len(all), nil
}

func (r *fakePostRepo) Update(ctx context.Context, post *domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[post.ID]; !ok {
		return apperrors.ErrNotFound
	}
	cp := *post
	r.posts[post.ID] = &cp
	return nil
}

func (r *fakePostRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

// captureSender records outgoing emails on a channel so tests can receive
// verification and reset tokens.
type captureSender struct {
	sent chan capturedEmail
}

type capturedEmail struct {
	Kind  string
	To    string
	Token string
}

func newCaptureSender() *captureSender {
	return &captureSender{sent: make(chan capturedEmail, 16)}
}

func (s *captureSender) SendVerificationEmail(ctx context.Context, to, token string) error {
	s.sent <- capturedEmail{Kind: "verification", To: to, Token: token}
	return nil
}

func (s *captureSender) SendPasswordResetEmail(ctx context.Context, to, token string) error {
	s.sent <- capturedEmail{Kind: "password_reset", To: to, Token: token}
	return nil
}

func (s *captureSender) SendWelcomeEmail(ctx context.Context, to, name string) error {
	s.sent <- capturedEmail{Kind: "welcome", To: to}
	return nil
}

func (s *captureSender) wait(t *testing.T) capturedEmail {
	t.Helper()
	select {
	case e := <-s.sent:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for email dispatch")
		return capturedEmail{}
	}
}

// apiFixture wires the full router over in-memory stores.
type apiFixture struct {
	router http.Handler
	sender *captureSender
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	log := logger.NewWithWriter("test", "error", testLogWriter{t})
	jwtManager := auth.NewJWTManager("test-secret", time.Hour, 168*time.Hour)
	sender := newCaptureSender()

	userRepo := newFakeUserRepo()
	postRepo := newFakePostRepo()
	authSvc := service.NewAuthService(userRepo, jwtManager, sender, nil, log)
	userSvc := service.NewUserService(userRepo, nil, log)
	postSvc := service.NewPostService(postRepo, log)

	router := NewRouter(RouterConfig{
		AuthHandler: NewAuthHandler(authSvc, userSvc, log),
		UserHandler: NewUserHandler(userSvc, log),
		PostHandler: NewPostHandler(postSvc, log),
		JWTManager:  jwtManager,
		Health:      health.NewHandler(),
		CORS:        middleware.DefaultCORSConfig(),
		Logger:      log,
	})

	return &apiFixture{router: router, sender: sender}
}

type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimSpace(string(p)))
	return len(p), nil
}

// envelope mirrors the wire shape of every response.
type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Pagination json.RawMessage `json:"pagination"`
	Errors     json.RawMessage `json:"errors"`
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env), "body: %s", rec.Body.String())
	return rec, env
}

// register creates a user through the API and returns the auth payload.
func (f *apiFixture) register(t *testing.T, email string) map[string]any {
	t.Helper()

	rec, env := f.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":     email,
		"password":  "Str0ng!pass",
		"firstName": "Alice",
		"lastName":  "Smith",
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", env.Message)

	var data map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data
}

func TestAPI_Register(t *testing.T) {
	f := newAPIFixture(t)

	rec, env := f.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":     "alice@x.com",
		"password":  "Str0ng!pass",
		"firstName": "Alice",
		"lastName":  "Smith",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "User registered successfully", env.Message)

	var data struct {
		User struct {
			Email         string `json:"email"`
			FullName      string `json:"fullName"`
			EmailVerified bool   `json:"emailVerified"`
		} `json:"user"`
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
		TokenType    string `json:"tokenType"`
		ExpiresIn    int64  `json:"expiresIn"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "alice@x.com", data.User.Email)
	assert.Equal(t, "Alice Smith", data.User.FullName)
	assert.False(t, data.User.EmailVerified)
	assert.NotEmpty(t, data.AccessToken)
	assert.NotEmpty(t, data.RefreshToken)
	assert.Equal(t, "Bearer", data.TokenType)

	// The raw body must never carry credential material.
	e := f.sender.wait(t)
	assert.Equal(t, "verification", e.Kind)
}

func TestAPI_Register_ValidationFailure(t *testing.T) {
	f := newAPIFixture(t)

	rec, env := f.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":     "alice@x.com",
		"password":  "weakpassword",
		"firstName": "Alice",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Validation failed", env.Message)
	assert.NotEmpty(t, env.Errors)
}

func TestAPI_Register_NameRequired(t *testing.T) {
	f := newAPIFixture(t)

	rec, env := f.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":    "alice@x.com",
		"password": "Str0ng!pass",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Contains(t, string(env.Errors), "firstName or name is required")
}

func TestAPI_Register_Duplicate(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t, "alice@x.com")
	f.sender.wait(t)

	rec, env := f.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":     "alice@x.com",
		"password":  "Str0ng!pass",
		"firstName": "Mallory",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "User with this email already exists", env.Message)
}

func TestAPI_Login_WrongCredentials(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t, "alice@x.com")
	f.sender.wait(t)

	rec, env := f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "alice@x.com",
		"password": "Wrong1!pass",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", env.Message)
}

func TestAPI_Login_Success(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t, "alice@x.com")
	f.sender.wait(t)

	rec, env := f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "alice@x.com",
		"password": "Str0ng!pass",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Login successful", env.Message)
}

func TestAPI_Refresh_SnakeCaseAliasAndRotation(t *testing.T) {
	f := newAPIFixture(t)
	data := f.register(t, "alice@x.com")
	f.sender.wait(t)

	refreshToken, _ := data["refreshToken"].(string)
	require.NotEmpty(t, refreshToken)

	// The snake_case alias is accepted on input.
	rec, env := f.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]any{
		"refresh_token": refreshToken,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Token refreshed successfully", env.Message)

	// Both casings are mirrored on output.
	var out struct {
		AccessToken       string `json:"accessToken"`
		AccessTokenSnake  string `json:"access_token"`
		RefreshToken      string `json:"refreshToken"`
		RefreshTokenSnake string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, out.AccessToken, out.AccessTokenSnake)
	assert.Equal(t, out.RefreshToken, out.RefreshTokenSnake)
	assert.NotEqual(t, refreshToken, out.RefreshToken)

	// The consumed token is single-use.
	rec, env = f.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]any{
		"refreshToken": refreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid refresh token", env.Message)
}

func TestAPI_Refresh_MissingToken(t *testing.T) {
	f := newAPIFixture(t)

	rec, env := f.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]any{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
}

func TestAPI_Me_RequiresToken(t *testing.T) {
	f := newAPIFixture(t)

	rec, env := f.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Access token is required", env.Message)

	rec, env = f.do(t, http.MethodGet, "/api/v1/auth/me", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid access token", env.Message)
}

func TestAPI_Me_Success(t *testing.T) {
	f := newAPIFixture(t)
	data := f.register(t, "alice@x.com")
	f.sender.wait(t)

	access, _ := data["accessToken"].(string)
	rec, env := f.do(t, http.MethodGet, "/api/v1/auth/me", access, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User retrieved successfully", env.Message)
	assert.Contains(t, string(env.Data), "alice@x.com")
	assert.NotContains(t, string(env.Data), "passwordHash")
}

func TestAPI_Me_RefreshTokenRejected(t *testing.T) {
	f := newAPIFixture(t)
	data := f.register(t, "alice@x.com")
	f.sender.wait(t)

	// A refresh token is not valid as an access token.
	refresh, _ := data["refreshToken"].(string)
	rec, env := f.do(t, http.MethodGet, "/api/v1/auth/me", refresh, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid access token", env.Message)
}

func TestAPI_Logout_RevokesSession(t *testing.T) {
	f := newAPIFixture(t)
	data := f.register(t, "alice@x.com")
	f.sender.wait(t)

	access, _ := data["accessToken"].(string)
	refresh, _ := data["refreshToken"].(string)

	rec, env := f.do(t, http.MethodPost, "/api/v1/auth/logout", access, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged out successfully", env.Message)

	rec, _ = f.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]any{
		"refreshToken": refresh,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_VerifyEmail_Flow(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t, "alice@x.com")
	e := f.sender.wait(t)
	require.Equal(t, "verification", e.Kind)

	rec, env := f.do(t, http.MethodGet, "/api/v1/auth/verify-email?token="+e.Token, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Email verified successfully", env.Message)
	assert.Contains(t, string(env.Data), `"emailVerified":true`)

	// Welcome email follows.
	welcome := f.sender.wait(t)
	assert.Equal(t, "welcome", welcome.Kind)

	// Token is consumed.
	rec, env = f.do(t, http.MethodGet, "/api/v1/auth/verify-email?token="+e.Token, "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid or expired verification token", env.Message)
}

func TestAPI_VerifyEmail_MissingToken(t *testing.T) {
	f := newAPIFixture(t)

	rec, env := f.do(t, http.MethodGet, "/api/v1/auth/verify-email", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
}

func TestAPI_ResendVerification_EnumerationSafe(t *testing.T) {
	f := newAPIFixture(t)

	rec, env := f.do(t, http.MethodPost, "/api/v1/auth/resend-verification", "", map[string]any{
		"email": "ghost@x.com",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}

func TestAPI_PasswordResetFlow(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t, "alice@x.com")
	f.sender.wait(t)

	rec, _ := f.do(t, http.MethodPost, "/api/v1/auth/forgot-password", "", map[string]any{
		"email": "alice@x.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	reset := f.sender.wait(t)
	require.Equal(t, "password_reset", reset.Kind)

	rec, env := f.do(t, http.MethodPost, "/api/v1/auth/reset-password", "", map[string]any{
		"token":       reset.Token,
		"newPassword": "N3w!password",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password reset successfully", env.Message)

	rec, _ = f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "alice@x.com",
		"password": "N3w!password",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_ChangePassword_SnakeCaseAliases(t *testing.T) {
	f := newAPIFixture(t)
	data := f.register(t, "alice@x.com")
	f.sender.wait(t)

	access, _ := data["accessToken"].(string)

	rec, env := f.do(t, http.MethodPut, "/api/v1/auth/change-password", access, map[string]any{
		"current_password": "Str0ng!pass",
		"new_password":     "N3w!password",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password changed successfully", env.Message)

	rec, _ = f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "alice@x.com",
		"password": "N3w!password",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_Posts_PublicReadAuthedWrite(t *testing.T) {
	f := newAPIFixture(t)
	data := f.register(t, "alice@x.com")
	f.sender.wait(t)
	access, _ := data["accessToken"].(string)

	// Creating requires auth.
	rec, _ := f.do(t, http.MethodPost, "/api/v1/posts", "", map[string]any{
		"title": "Hello", "content": "Body",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env := f.do(t, http.MethodPost, "/api/v1/posts", access, map[string]any{
		"title": "Hello", "content": "Body", "published": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Post created successfully", env.Message)

	var post struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &post))

	// Reading is public.
	rec, env = f.do(t, http.MethodGet, "/api/v1/posts/"+post.ID, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), "Hello")

	rec, env = f.do(t, http.MethodGet, "/api/v1/posts", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, env.Pagination)
}

func TestAPI_Posts_ForeignAuthorSeesNotFound(t *testing.T) {
	f := newAPIFixture(t)
	alice := f.register(t, "alice@x.com")
	f.sender.wait(t)
	bob := f.register(t, "bob@x.com")
	f.sender.wait(t)

	aliceToken, _ := alice["accessToken"].(string)
	bobToken, _ := bob["accessToken"].(string)

	rec, env := f.do(t, http.MethodPost, "/api/v1/posts", aliceToken, map[string]any{
		"title": "Hello", "content": "Body",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var post struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &post))

	rec, env = f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/posts/%s", post.ID), bobToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Post not found", env.Message)
}

func TestAPI_Users_List(t *testing.T) {
	f := newAPIFixture(t)
	data := f.register(t, "alice@x.com")
	f.sender.wait(t)
	access, _ := data["accessToken"].(string)

	rec, env := f.do(t, http.MethodGet, "/api/v1/users?page=1&limit=10", access, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Users retrieved successfully", env.Message)
	assert.Contains(t, string(env.Pagination), `"total":1`)
}

func TestAPI_Users_Profile(t *testing.T) {
	f := newAPIFixture(t)
	data := f.register(t, "alice@x.com")
	f.sender.wait(t)
	access, _ := data["accessToken"].(string)

	rec, env := f.do(t, http.MethodPatch, "/api/v1/users/me/profile", access, map[string]any{
		"dateOfBirth": "1990-05-01",
		"gender":      "female",
		"address":     map[string]any{"city": "Lisbon"},
		"preferences": map[string]any{"theme": "dark"},
	})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", env.Message)
	assert.Contains(t, string(env.Data), "Lisbon")
	assert.Contains(t, string(env.Data), `"theme":"dark"`)

	rec, env = f.do(t, http.MethodGet, "/api/v1/users/me/profile", access, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), "Lisbon")
}

func TestAPI_ContentTypeEnforced(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("email=alice"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Contains(t, rec.Body.String(), "Content-Type must be application/json")
}

func TestAPI_UnknownRoute(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
