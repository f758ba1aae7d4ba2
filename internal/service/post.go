package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/epten08/go-rest-api/internal/domain"
	"github.com/epten08/go-rest-api/internal/repository"
	apperrors "github.com/epten08/go-rest-api/pkg/errors"
	"github.com/epten08/go-rest-api/pkg/pagination"
)

// PostService implements post CRUD with author-based ownership checks.
type PostService struct {
	posts  repository.PostRepository
	logger *slog.Logger
}

// NewPostService creates a new post service.
func NewPostService(posts repository.PostRepository, logger *slog.Logger) *PostService {
	return &PostService{
		posts:  posts,
		logger: logger,
	}
}

// CreatePostInput holds the parameters for creating a post.
type CreatePostInput struct {
	Title     string
	Content   string
	Published bool
}

// UpdatePostInput holds the parameters for updating a post. Nil fields are
// left unchanged.
type UpdatePostInput struct {
	Title     *string
	Content   *string
	Published *bool
}

// Create inserts a new post authored by the given user.
func (s *PostService) Create(ctx context.Context, authorID string, input CreatePostInput) (*domain.Post, error) {
	now := time.Now().UTC()
	post := &domain.Post{
		ID:        uuid.New().String(),
		Title:     input.Title,
		Content:   input.Content,
		Published: input.Published,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.logger.InfoContext(ctx, "post created",
		slog.String("post_id", post.ID),
		slog.String("author_id", authorID),
	)

	return post, nil
}

// Get returns a post by id.
func (s *PostService) Get(ctx context.Context, id string) (*domain.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("Post not found")
		}
		return nil, fmt.Errorf("get post by id: %w", err)
	}
	return post, nil
}

// List returns a page of posts with pagination metadata.
func (s *PostService) List(ctx context.Context, params pagination.Params) ([]domain.Post, pagination.Pagination, error) {
	posts, total, err := s.posts.List(ctx, params)
	if err != nil {
		return nil, pagination.Pagination{}, fmt.Errorf("list posts: %w", err)
	}
	return posts, pagination.New(params, total), nil
}

// Update modifies a post. Only the author may update it; a foreign post is
// reported as not found rather than forbidden so post ownership is not
// disclosed.
func (s *PostService) Update(ctx context.Context, id, authorID string, input UpdatePostInput) (*domain.Post, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if post.AuthorID != authorID {
		return nil, apperrors.NotFound("Post not found")
	}

	if input.Title != nil {
		post.Title = *input.Title
	}
	if input.Content != nil {
		post.Content = *input.Content
	}
	if input.Published != nil {
		post.Published = *input.Published
	}

	if err := s.posts.Update(ctx, post); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("Post not found")
		}
		return nil, fmt.Errorf("update post: %w", err)
	}

	return post, nil
}

// Delete removes a post. Only the author may delete it.
func (s *PostService) Delete(ctx context.Context, id, authorID string) error {
	post, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if post.AuthorID != authorID {
		return apperrors.NotFound("Post not found")
	}

	if err := s.posts.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("Post not found")
		}
		return fmt.Errorf("delete post: %w", err)
	}

	s.logger.InfoContext(ctx, "post deleted",
		slog.String("post_id", id),
		slog.String("author_id", authorID),
	)

	return nil
}
