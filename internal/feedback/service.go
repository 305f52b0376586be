package feedback

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/feedbackwall/internal/policy"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	columnID              = "id"
	columnSlug            = "slug"
	columnPageID          = "page_id"
	orderNewestFirst      = "created_at DESC, id DESC"
	queryID               = columnID + " = ?"
	querySlug             = columnSlug + " = ?"
	queryPageID           = columnPageID + " = ?"
	uniqueViolationSQLite = "unique constraint failed"
	uniqueViolationPG     = "duplicate key value"
)

var noOpLogger = zap.NewNop()

// Notifier receives submission events after they are committed.
type Notifier interface {
	FeedbackReceived(event FeedbackEvent)
}

// ServiceConfig describes the dependencies of the feedback service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
	Notifier   Notifier
}

// Service implements page management, feedback review and anonymous submission. Every
// operation evaluates the row rules in package policy for the calling identity.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
	notifier   Notifier
}

// NewService validates the configuration and constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, reasonMissingDatabase, errMissingDatabase)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, reasonMissingIDProv, errMissingIDProvider)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		db:         cfg.Database,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
		notifier:   cfg.Notifier,
	}, nil
}

func (s *Service) ready(operation string) error {
	if s == nil || s.db == nil {
		s.logError(operation, reasonMissingDatabase, errMissingDatabase)
		return newServiceError(operation, reasonMissingDatabase, errMissingDatabase)
	}
	return nil
}

func (s *Service) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

func (s *Service) newID(operation string) (string, error) {
	if s.idProvider == nil {
		return "", newServiceError(operation, reasonMissingIDProv, errMissingIDProvider)
	}
	id, err := s.idProvider.NewID()
	if err != nil {
		s.logError(operation, reasonIDFailed, err)
		return "", newServiceError(operation, reasonIDFailed, err)
	}
	return id, nil
}

func requireIdentity(operation string, caller policy.Caller) error {
	if !caller.IsAuthenticated() {
		return newServiceError(operation, reasonUnauthenticated, ErrForbidden)
	}
	return nil
}

func validationFailure(operation string, err error) error {
	return newServiceError(operation, validationReason(err), fmt.Errorf("%w: %v", ErrValidation, err))
}

func pageFacts(page Page) policy.PageFacts {
	return policy.PageFacts{OwnerID: page.OwnerID, IsActive: page.IsActive}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, uniqueViolationSQLite) || strings.Contains(message, uniqueViolationPG)
}

func (s *Service) loggerOrDefault() *zap.Logger {
	if s == nil || s.logger == nil {
		return noOpLogger
	}
	return s.logger
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.loggerOrDefault().Error("feedback service error", attrs...)
}
