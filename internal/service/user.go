package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/epten08/go-rest-api/internal/auth"
	"github.com/epten08/go-rest-api/internal/domain"
	"github.com/epten08/go-rest-api/internal/event"
	"github.com/epten08/go-rest-api/internal/repository"
	apperrors "github.com/epten08/go-rest-api/pkg/errors"
	"github.com/epten08/go-rest-api/pkg/pagination"
)

// UserService implements user CRUD and profile management.
type UserService struct {
	users    repository.UserRepository
	producer event.Publisher
	logger   *slog.Logger
}

// NewUserService creates a new user service. The producer may be nil when
// event publishing is disabled.
func NewUserService(users repository.UserRepository, producer event.Publisher, logger *slog.Logger) *UserService {
	return &UserService{
		users:    users,
		producer: producer,
		logger:   logger,
	}
}

// CreateUserInput holds the parameters for creating a user directly.
type CreateUserInput struct {
	Email     string
	Password  string
	Name      string
	FirstName string
	LastName  string
	Phone     string
	DeviceID  string
}

// UpdateUserInput holds the parameters for updating a user. Nil fields are
// left unchanged.
type UpdateUserInput struct {
	Email     *string
	Name      *string
	FirstName *string
	LastName  *string
	Phone     *string
	DeviceID  *string
}

// AddressInput holds structured address fields for a profile update.
type AddressInput struct {
	Street     *string
	City       *string
	State      *string
	Country    *string
	PostalCode *string
}

// PreferencesInput holds user preference fields for a profile update.
type PreferencesInput struct {
	Language      *string
	Theme         *string
	Notifications *bool
}

// UpdateProfileInput holds the parameters for a rich profile update. Nil
// fields are left unchanged.
type UpdateProfileInput struct {
	FirstName   *string
	LastName    *string
	Phone       *string
	Avatar      *string
	DateOfBirth *time.Time
	Gender      *string
	DeviceID    *string
	Address     *AddressInput
	Preferences *PreferencesInput
}

// Create inserts a new user without going through registration.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (domain.Profile, error) {
	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return domain.Profile{}, apperrors.Conflict("User with this email already exists")
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return domain.Profile{}, fmt.Errorf("check existing user: %w", err)
	}

	passwordHash, err := auth.HashPassword(input.Password)
	if err != nil {
		return domain.Profile{}, err
	}

	firstName, lastName := input.FirstName, input.LastName
	if firstName == "" && lastName == "" {
		firstName, lastName = domain.SplitName(input.Name)
	}
	fullName := strings.TrimSpace(firstName + " " + lastName)
	if fullName == "" {
		fullName = input.Name
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:                       uuid.New().String(),
		Email:                    input.Email,
		PasswordHash:             passwordHash,
		Name:                     fullName,
		FirstName:                firstName,
		LastName:                 lastName,
		Phone:                    input.Phone,
		DeviceID:                 input.DeviceID,
		PreferencesLanguage:      "en",
		PreferencesTheme:         "system",
		PreferencesNotifications: true,
		CreatedAt:                now,
		UpdatedAt:                now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return domain.Profile{}, apperrors.Conflict("User with this email already exists")
		}
		return domain.Profile{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user created", slog.String("user_id", user.ID))

	return domain.NewProfile(user), nil
}

// Get returns a user's sanitized profile by id.
func (s *UserService) Get(ctx context.Context, id string) (domain.Profile, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return domain.Profile{}, err
	}
	return domain.NewProfile(user), nil
}

// List returns a page of sanitized profiles with pagination metadata.
func (s *UserService) List(ctx context.Context, params pagination.Params) ([]domain.Profile, pagination.Pagination, error) {
	users, total, err := s.users.List(ctx, params)
	if err != nil {
		return nil, pagination.Pagination{}, fmt.Errorf("list users: %w", err)
	}

	profiles := make([]domain.Profile, 0, len(users))
	for i := range users {
		profiles = append(profiles, domain.NewProfile(&users[i]))
	}

	return profiles, pagination.New(params, total), nil
}

// Update modifies a user's base fields, enforcing email uniqueness.
func (s *UserService) Update(ctx context.Context, id string, input UpdateUserInput) (domain.Profile, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return domain.Profile{}, err
	}

	if input.Email != nil && *input.Email != user.Email {
		existing, err := s.users.GetByEmail(ctx, *input.Email)
		if err == nil && existing.ID != id {
			return domain.Profile{}, apperrors.Conflict("Email already in use")
		}
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return domain.Profile{}, fmt.Errorf("check email uniqueness: %w", err)
		}
		user.Email = *input.Email
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Name != nil {
		user.Name = *input.Name
		if input.FirstName == nil && input.LastName == nil {
			user.FirstName, user.LastName = domain.SplitName(*input.Name)
		}
	}
	if input.FirstName != nil || input.LastName != nil {
		user.Name = strings.TrimSpace(user.FirstName + " " + user.LastName)
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.DeviceID != nil {
		user.DeviceID = *input.DeviceID
	}

	if err := s.updateUser(ctx, user); err != nil {
		return domain.Profile{}, err
	}

	return domain.NewProfile(user), nil
}

// Delete removes a user by id.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("User not found")
		}
		return fmt.Errorf("delete user: %w", err)
	}

	s.logger.InfoContext(ctx, "user deleted", slog.String("user_id", id))
	return nil
}

// GetProfile returns the authenticated user's own profile.
func (s *UserService) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	return s.Get(ctx, userID)
}

// UpdateProfile applies a rich profile update, recomputing the legacy
// combined name from the name parts.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (domain.Profile, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if name := strings.TrimSpace(user.FirstName + " " + user.LastName); name != "" {
		user.Name = name
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Avatar != nil {
		user.Avatar = *input.Avatar
	}
	if input.DateOfBirth != nil {
		dob := input.DateOfBirth.UTC()
		user.DateOfBirth = &dob
	}
	if input.Gender != nil {
		user.Gender = *input.Gender
	}
	if input.DeviceID != nil {
		user.DeviceID = *input.DeviceID
	}

	if input.Address != nil {
		if input.Address.Street != nil {
			user.AddressStreet = *input.Address.Street
		}
		if input.Address.City != nil {
			user.AddressCity = *input.Address.City
		}
		if input.Address.State != nil {
			user.AddressState = *input.Address.State
		}
		if input.Address.Country != nil {
			user.AddressCountry = *input.Address.Country
		}
		if input.Address.PostalCode != nil {
			user.AddressPostalCode = *input.Address.PostalCode
		}
	}

	if input.Preferences != nil {
		if input.Preferences.Language != nil {
			user.PreferencesLanguage = *input.Preferences.Language
		}
		if input.Preferences.Theme != nil {
			user.PreferencesTheme = *input.Preferences.Theme
		}
		if input.Preferences.Notifications != nil {
			user.PreferencesNotifications = *input.Preferences.Notifications
		}
	}

	if err := s.updateUser(ctx, user); err != nil {
		return domain.Profile{}, err
	}

	return domain.NewProfile(user), nil
}

// ChangePassword verifies the current password and replaces it. The stored
// refresh token is cleared so other sessions must log in again.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if !auth.CheckPassword(currentPassword, user.PasswordHash) {
		return apperrors.Unauthorized("Current password is incorrect")
	}

	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.InfoContext(ctx, "password changed", slog.String("user_id", userID))
	return nil
}

// DeleteAccount removes the authenticated user's account after verifying
// their password.
func (s *UserService) DeleteAccount(ctx context.Context, userID, password string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return apperrors.Unauthorized("Password is incorrect")
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.logger.InfoContext(ctx, "account deleted", slog.String("user_id", userID))
	return nil
}

func (s *UserService) getUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

func (s *UserService) updateUser(ctx context.Context, user *domain.User) error {
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return apperrors.Conflict("Email already in use")
		}
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("User not found")
		}
		return fmt.Errorf("update user: %w", err)
	}

	if s.producer != nil {
		if err := s.producer.PublishUserUpdated(ctx, user); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish user.updated event",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}
