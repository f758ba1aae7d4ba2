package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/epten08/go-rest-api/internal/service"
	"github.com/epten08/go-rest-api/pkg/httputil"
	"github.com/epten08/go-rest-api/pkg/middleware"
	"github.com/epten08/go-rest-api/pkg/pagination"
	"github.com/epten08/go-rest-api/pkg/validator"
)

// PostHandler handles HTTP requests for post endpoints.
type PostHandler struct {
	posts  *service.PostService
	logger *slog.Logger
}

// NewPostHandler creates a new post HTTP handler.
func NewPostHandler(postSvc *service.PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{posts: postSvc, logger: logger}
}

// CreatePostRequest is the JSON request body for creating a post.
type CreatePostRequest struct {
	Title     string `json:"title" validate:"required,min=1,max=200"`
	Content   string `json:"content" validate:"required,min=1"`
	Published bool   `json:"published"`
}

// UpdatePostRequest is the JSON request body for updating a post. All fields
// are optional.
type UpdatePostRequest struct {
	Title     *string `json:"title" validate:"omitempty,min=1,max=200"`
	Content   *string `json:"content" validate:"omitempty,min=1"`
	Published *bool   `json:"published"`
}

// Create handles POST /api/v1/posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	authorID := middleware.UserIDFromContext(r.Context())

	post, err := h.posts.Create(r.Context(), authorID, service.CreatePostInput{
		Title:     req.Title,
		Content:   req.Content,
		Published: req.Published,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, "Post created successfully", post)
}

// Get handles GET /api/v1/posts/{id}
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	post, err := h.posts.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Post retrieved successfully", post)
}

// List handles GET /api/v1/posts
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	posts, p, err := h.posts.List(r.Context(), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WritePaginated(w, "Posts retrieved successfully", posts, p)
}

// Update handles PATCH /api/v1/posts/{id}
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	authorID := middleware.UserIDFromContext(r.Context())

	post, err := h.posts.Update(r.Context(), id, authorID, service.UpdatePostInput{
		Title:     req.Title,
		Content:   req.Content,
		Published: req.Published,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Post updated successfully", post)
}

// Delete handles DELETE /api/v1/posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	authorID := middleware.UserIDFromContext(r.Context())

	if err := h.posts.Delete(r.Context(), id, authorID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Post deleted successfully", nil)
}
