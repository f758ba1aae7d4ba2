package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/epten08/go-rest-api/internal/domain"
	apperrors "github.com/epten08/go-rest-api/pkg/errors"
	"github.com/epten08/go-rest-api/pkg/pagination"
)

const postColumns = `id, title, content, published, author_id, created_at, updated_at`

// PostRepository implements repository.PostRepository using PostgreSQL.
type PostRepository struct {
	db DB
}

// NewPostRepository creates a new PostgreSQL-backed post repository.
func NewPostRepository(db DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts a new post into the database.
func (r *PostRepository) Create(ctx context.Context, p *domain.Post) error {
	query := `
		INSERT INTO posts (` + postColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		p.ID,
		p.Title,
		p.Content,
		p.Published,
		p.AuthorID,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	return nil
}

// GetByID retrieves a post by its ID.
func (r *PostRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	var p domain.Post
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Title,
		&p.Content,
		&p.Published,
		&p.AuthorID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan post: %w", err)
	}

	return &p, nil
}

// List returns a page of posts, newest first, with the total match count.
func (r *PostRepository) List(ctx context.Context, params pagination.Params) ([]domain.Post, int, error) {
	var (
		whereClause string
		args        []any
		argIndex    = 1
	)

	if params.Search != "" {
		whereClause = fmt.Sprintf("WHERE (title ILIKE $%d OR content ILIKE $%d)", argIndex, argIndex)
		args = append(args, "%"+params.Search+"%")
		argIndex++
	}

	query := fmt.Sprintf(`
		SELECT `+postColumns+`, count(*) OVER() AS total_count
		FROM posts
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1,
	)

	args = append(args, params.Limit, params.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var (
		posts      []domain.Post
		totalCount int
	)

	for rows.Next() {
		var p domain.Post
		if err := rows.Scan(
			&p.ID,
			&p.Title,
			&p.Content,
			&p.Published,
			&p.AuthorID,
			&p.CreatedAt,
			&p.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan post row: %w", err)
		}
		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate posts: %w", err)
	}

	return posts, totalCount, nil
}

// Update modifies an existing post in the database.
func (r *PostRepository) Update(ctx context.Context, p *domain.Post) error {
	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE posts
		SET title = $1, content = $2, published = $3, updated_at = $4
		WHERE id = $5`

	ct, err := r.db.Exec(ctx, query,
		p.Title,
		p.Content,
		p.Published,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// Delete removes a post from the database by its ID.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM posts WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}
