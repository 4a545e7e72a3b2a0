package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonathan/resume-screener/internal/config"
	"github.com/jonathan/resume-screener/internal/db"
	"github.com/jonathan/resume-screener/internal/types"
)

// UserRepository is the subset of the database the user service needs.
type UserRepository interface {
	CreateUser(ctx context.Context, email, passwordHash string) (uuid.UUID, error)
	GetUser(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	CheckEmailExists(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	CreateUserProfile(ctx context.Context, userID uuid.UUID, fields db.ProfileFields) (*db.UserProfile, error)
}

// UserService provides business logic for user authentication operations
type UserService struct {
	repo           UserRepository
	passwordConfig *config.PasswordConfig
}

// NewUserService creates a new UserService with the given dependencies
func NewUserService(repo UserRepository, passwordConfig *config.PasswordConfig) *UserService {
	return &UserService{
		repo:           repo,
		passwordConfig: passwordConfig,
	}
}

// convertDBUserToTypesUser converts db.User to types.User, excluding password hash
func convertDBUserToTypesUser(dbUser *db.User) *types.User {
	if dbUser == nil {
		return nil
	}
	return &types.User{
		ID:        dbUser.ID,
		Email:     dbUser.Email,
		CreatedAt: dbUser.CreatedAt,
		UpdatedAt: dbUser.UpdatedAt,
	}
}

// validationError turns the first validator failure into an ErrValidation.
func validationError(err error) error {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fe := verrs[0]
		return &ErrValidation{Field: strings.ToLower(fe.Field()), Message: fmt.Sprintf("failed %s check", fe.Tag())}
	}
	return &ErrValidation{Field: "request", Message: err.Error()}
}

// Register creates a new user with password authentication and an initial profile
func (s *UserService) Register(ctx context.Context, req *types.CreateUserRequest) (*types.User, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	exists, err := s.repo.CheckEmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, &ErrEmailAlreadyExists{Email: req.Email}
	}

	passwordHash, err := s.passwordConfig.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := s.repo.CreateUser(ctx, req.Email, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	fields := db.ProfileFields{FullName: &req.FullName}
	if req.Company != "" {
		fields.Company = &req.Company
	}
	if req.Role != "" {
		fields.Role = &req.Role
	}
	if _, err := s.repo.CreateUserProfile(ctx, userID, fields); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	dbUser, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve created user: %w", err)
	}
	if dbUser == nil {
		return nil, fmt.Errorf("created user not found: %s", userID)
	}

	return convertDBUserToTypesUser(dbUser), nil
}

// Login authenticates a user and returns user data
func (s *UserService) Login(ctx context.Context, req *types.LoginRequest) (*types.User, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	dbUser, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	// Unknown email and wrong password are indistinguishable to the caller.
	if dbUser == nil || dbUser.PasswordHash == "" {
		return nil, &ErrInvalidCredentials{}
	}
	if !s.passwordConfig.VerifyPassword(req.Password, dbUser.PasswordHash) {
		return nil, &ErrInvalidCredentials{}
	}

	return convertDBUserToTypesUser(dbUser), nil
}

// UpdatePassword updates a user's password
func (s *UserService) UpdatePassword(ctx context.Context, userID uuid.UUID, req *types.UpdatePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	dbUser, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if dbUser == nil {
		return &ErrUserNotFound{UserID: userID}
	}

	if !s.passwordConfig.VerifyPassword(req.CurrentPassword, dbUser.PasswordHash) {
		return &ErrPasswordMismatch{}
	}

	newPasswordHash, err := s.passwordConfig.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, userID, newPasswordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}
