package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonathan/resume-screener/internal/db"
	"github.com/jonathan/resume-screener/internal/types"
)

// ProfileRepository is the subset of the database the profile service needs.
type ProfileRepository interface {
	EnsureUserProfile(ctx context.Context, userID uuid.UUID) (*db.UserProfile, error)
	UpdateUserProfile(ctx context.Context, userID uuid.UUID, fields db.ProfileFields) (*db.UserProfile, error)
}

// ProfileService reads and edits the display profile of an account.
type ProfileService struct {
	repo ProfileRepository
}

// NewProfileService creates a new ProfileService
func NewProfileService(repo ProfileRepository) *ProfileService {
	return &ProfileService{repo: repo}
}

func convertDBProfile(p *db.UserProfile) *types.UserProfile {
	return &types.UserProfile{
		UserID:    p.ID.String(),
		FullName:  p.FullName,
		AvatarURL: p.AvatarURL,
		Company:   p.Company,
		Role:      p.Role,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// Get returns the user's profile. Accounts created before profiles existed get an empty one.
func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error) {
	p, err := s.repo.EnsureUserProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return convertDBProfile(p), nil
}

// Update applies the non-nil fields of update and returns the stored profile.
func (s *ProfileService) Update(ctx context.Context, userID uuid.UUID, update *types.ProfileUpdate) (*types.UserProfile, error) {
	if err := update.Validate(); err != nil {
		return nil, validationError(err)
	}
	if update.Empty() {
		return s.Get(ctx, userID)
	}

	// Make sure a row exists so the update cannot silently miss.
	if _, err := s.repo.EnsureUserProfile(ctx, userID); err != nil {
		return nil, err
	}
	p, err := s.repo.UpdateUserProfile(ctx, userID, db.ProfileFields{
		FullName:  update.FullName,
		AvatarURL: update.AvatarURL,
		Company:   update.Company,
		Role:      update.Role,
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &ErrUserNotFound{UserID: userID}
	}
	return convertDBProfile(p), nil
}
