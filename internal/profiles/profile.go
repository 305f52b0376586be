package profiles

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	// DefaultDisplayName is used when the identity provider supplies no name.
	DefaultDisplayName   = "Anonymous"
	maxDisplayNameLength = 120
	maxIdentifierLength  = 190
)

// Profile is the one-per-identity record created the first time an identity is seen.
type Profile struct {
	UserID      string    `gorm:"column:user_id;primaryKey;size:190;not null"`
	DisplayName string    `gorm:"column:display_name;size:320;not null;default:'Anonymous'"`
	Email       string    `gorm:"column:email;size:320"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName exposes the table backing profiles.
func (Profile) TableName() string {
	return "profiles"
}

// ProvisionRequest carries the identity facts copied into a new profile.
type ProvisionRequest struct {
	UserID      string
	Email       string
	DisplayName string
}

func (r ProvisionRequest) normalized() ProvisionRequest {
	displayName := normalize(r.DisplayName)
	if displayName == "" {
		displayName = DefaultDisplayName
	}
	return ProvisionRequest{
		UserID:      normalize(r.UserID),
		Email:       normalize(r.Email),
		DisplayName: displayName,
	}
}

// Validate checks the identity is usable as a profile key.
func (r ProvisionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required, validation.RuneLength(1, maxIdentifierLength)),
	)
}

// UpdateProfileRequest is the owner-editable part of a profile.
type UpdateProfileRequest struct {
	DisplayName string
}

// Validate enforces the display name bounds after trimming.
func (r UpdateProfileRequest) Validate() error {
	r.DisplayName = normalize(r.DisplayName)
	return validation.ValidateStruct(&r,
		validation.Field(&r.DisplayName,
			validation.Required.Error("display name is required"),
			validation.RuneLength(1, maxDisplayNameLength).Error("display name must be at most 120 characters"),
		),
	)
}

func normalize(value string) string {
	return strings.TrimSpace(value)
}
