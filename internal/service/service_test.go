package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/epten08/go-rest-api/internal/domain"
	apperrors "github.com/epten08/go-rest-api/pkg/errors"
	"github.com/epten08/go-rest-api/pkg/logger"
	"github.com/epten08/go-rest-api/pkg/pagination"
)

// memUserRepo is an in-memory UserRepository used across the service tests.
type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User)}
}

func (r *memUserRepo) Create(ctx context.Context, user *domain.User) error {
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

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
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

func (r *memUserRepo) GetByVerificationTokenHash(ctx context.Context, tokenHash string) (*domain.User, error) {
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

func (r *memUserRepo) GetByPasswordResetTokenHash(ctx context.Context, tokenHash string) (*domain.User, error) {
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

func (r *memUserRepo) List(ctx context.Context, params pagination.Params) ([]domain.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []domain.User
	for _, u := range r.users {
		if params.Search != "" {
			needle := strings.ToLower(params.Search)
			if !strings.Contains(strings.ToLower(u.Email), needle) &&
				!strings.Contains(strings.ToLower(u.Name), needle) {
				continue
			}
		}
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
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

func (r *memUserRepo) Update(ctx context.Context, user *domain.User) error {
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

func (r *memUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
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

func (r *memUserRepo) SetRefreshToken(ctx context.Context, id, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.RefreshTokenHash = tokenHash
	return nil
}

func (r *memUserRepo) ClearRefreshToken(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.RefreshTokenHash = ""
	}
	return nil
}

func (r *memUserRepo) SetVerificationToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
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

func (r *memUserRepo) MarkEmailVerified(ctx context.Context, id string) error {
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

func (r *memUserRepo) SetPasswordResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
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

func (r *memUserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

// memPostRepo is an in-memory PostRepository.
type memPostRepo struct {
	mu    sync.Mutex
	posts map[string]*domain.Post
}

func newMemPostRepo() *memPostRepo {
	return &memPostRepo{posts: make(map[string]*domain.Post)}
}

func (r *memPostRepo) Create(ctx context.Context, post *domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *post
	r.posts[post.ID] = &cp
	return nil
}

func (r *memPostRepo) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memPostRepo) List(ctx context.Context, params pagination.Params) ([]domain.Post, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []domain.Post
	for _, p := range r.posts {
		if params.Search != "" {
			needle := strings.ToLower(params.Search)
			if !strings.Contains(strings.ToLower(p.Title), needle) &&
				!strings.Contains(strings.ToLower(p.Content), needle) {
				continue
			}
		}
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
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

func (r *memPostRepo) Update(ctx context.Context, post *domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[post.ID]; !ok {
		return apperrors.ErrNotFound
	}
	cp := *post
	r.posts[post.ID] = &cp
	return nil
}

func (r *memPostRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

// sentEmail records one outgoing message from the recording sender.
type sentEmail struct {
	Kind  string
	To    string
	Token string
	Name  string
}

// recordingSender captures outgoing emails on a channel so tests can wait for
// the detached send goroutine.
type recordingSender struct {
	sent chan sentEmail
}

func newRecordingSender() *recordingSender {
	return &recordingSender{sent: make(chan sentEmail, 16)}
}

func (s *recordingSender) SendVerificationEmail(ctx context.Context, to, token string) error {
	s.sent <- sentEmail{Kind: "verification", To: to, Token: token}
	return nil
}

func (s *recordingSender) SendPasswordResetEmail(ctx context.Context, to, token string) error {
	s.sent <- sentEmail{Kind: "password_reset", To: to, Token: token}
	return nil
}

func (s *recordingSender) SendWelcomeEmail(ctx context.Context, to, name string) error {
	s.sent <- sentEmail{Kind: "welcome", To: to, Name: name}
	return nil
}

// waitEmail blocks until the sender records a message or the test times out.
func waitEmail(t *testing.T, s *recordingSender) sentEmail {
	t.Helper()
	select {
	case e := <-s.sent:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for email dispatch")
		return sentEmail{}
	}
}

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return logger.NewWithWriter("test", "error", testWriter{t})
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimSpace(string(p)))
	return len(p), nil
}
