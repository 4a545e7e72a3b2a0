package types

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// UserProfile holds the display details of an account.
type UserProfile struct {
	UserID    string    `json:"userId"`
	FullName  string    `json:"fullName,omitempty"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	Company   string    `json:"company,omitempty"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProfileUpdate carries the profile fields a user may change. Nil fields are left untouched.
type ProfileUpdate struct {
	FullName  *string `json:"fullName,omitempty" validate:"omitempty,max=200"`
	AvatarURL *string `json:"avatarUrl,omitempty" validate:"omitempty,url"`
	Company   *string `json:"company,omitempty" validate:"omitempty,max=200"`
	Role      *string `json:"role,omitempty" validate:"omitempty,max=200"`
}

// Empty reports whether the update changes nothing.
func (u *ProfileUpdate) Empty() bool {
	return u.FullName == nil && u.AvatarURL == nil && u.Company == nil && u.Role == nil
}

// Validate validates the ProfileUpdate using the validator.
func (u *ProfileUpdate) Validate() error {
	validate := validator.New()
	return validate.Struct(u)
}

// Stats summarizes an account's analysis history.
type Stats struct {
	TotalAnalyses  int              `json:"totalAnalyses"`
	AverageScore   int              `json:"averageScore"`
	RecentAnalyses []StoredAnalysis `json:"recentAnalyses"`
	ScoreTrend     []float64        `json:"scoreTrend"`
}
