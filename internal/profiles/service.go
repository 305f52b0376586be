package profiles

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MarcoPoloResearchLab/feedbackwall/internal/policy"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrInvalidIdentity indicates the identity did not contain a usable identifier.
	ErrInvalidIdentity = errors.New("profiles: invalid identity")
	// ErrInvalidProfile indicates an update request failed validation.
	ErrInvalidProfile = errors.New("profiles: invalid profile")
	// ErrNotFound indicates the caller has no visible profile.
	ErrNotFound = errors.New("profiles: not found")
	// ErrForbidden indicates the caller may not act on the profile.
	ErrForbidden = errors.New("profiles: forbidden")

	errMissingDatabase = errors.New("profiles: database connection required")
)

// ServiceConfig describes the dependencies required for profile management.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service provisions and maintains profiles.
type Service struct {
	db          *gorm.DB
	now         func() time.Time
	logger      *zap.Logger
	provisioned sync.Map
}

// NewService constructs the profile service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:     cfg.Database,
		now:    clock,
		logger: logger,
	}, nil
}

// Provision creates the profile for an identity the first time it is seen. Later calls for the
// same identity leave the stored profile untouched.
func (s *Service) Provision(ctx context.Context, caller policy.Caller, request ProvisionRequest) error {
	request = request.normalized()
	if err := request.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}
	if !policy.CanInsertProfile(caller, request.UserID) {
		return ErrForbidden
	}
	if _, seen := s.provisioned.Load(request.UserID); seen {
		return nil
	}

	now := s.now().UTC()
	profile := Profile{
		UserID:      request.UserID,
		DisplayName: request.DisplayName,
		Email:       request.Email,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&profile)
	if result.Error != nil {
		s.logger.Error("profile provisioning failed", zap.String("user_id", request.UserID), zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected > 0 {
		s.logger.Info("profile provisioned", zap.String("user_id", request.UserID))
	}

	s.provisioned.Store(request.UserID, struct{}{})
	return nil
}

// Get returns the caller's own profile.
func (s *Service) Get(ctx context.Context, caller policy.Caller) (Profile, error) {
	if !caller.IsAuthenticated() {
		return Profile{}, ErrForbidden
	}
	var profile Profile
	err := s.db.WithContext(ctx).
		Scopes(policy.OwnProfile(caller)).
		Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	if !policy.CanReadProfile(caller, profile.UserID) {
		return Profile{}, ErrNotFound
	}
	return profile, nil
}

// Update applies the owner-editable fields to the caller's profile.
func (s *Service) Update(ctx context.Context, caller policy.Caller, request UpdateProfileRequest) (Profile, error) {
	if err := request.Validate(); err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	profile, err := s.Get(ctx, caller)
	if err != nil {
		return Profile{}, err
	}
	if !policy.CanUpdateProfile(caller, profile.UserID) {
		return Profile{}, ErrForbidden
	}

	updates := map[string]interface{}{
		"display_name": normalize(request.DisplayName),
		"updated_at":   s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).
		Model(&Profile{}).
		Scopes(policy.OwnProfile(caller)).
		Updates(updates).Error; err != nil {
		s.logger.Error("profile update failed", zap.String("user_id", caller.UserID), zap.Error(err))
		return Profile{}, err
	}
	return s.Get(ctx, caller)
}
