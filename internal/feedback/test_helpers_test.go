package feedback

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/feedbackwall/internal/policy"
	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []FeedbackEvent
}

func (n *recordingNotifier) FeedbackReceived(event FeedbackEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) received() []FeedbackEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]FeedbackEvent(nil), n.events...)
}

type failingIDProvider struct{}

func (failingIDProvider) NewID() (string, error) {
	return "", errors.New("entropy exhausted")
}

func openTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feedback.db") + "?_pragma=foreign_keys(1)"
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Page{}, &Entry{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// steppingClock advances one second per call so creation order is unambiguous.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	current := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *recordingNotifier) {
	t.Helper()
	db := openTestDatabase(t)
	notifier := &recordingNotifier{}
	service, err := NewService(ServiceConfig{
		Database:   db,
		Clock:      steppingClock(),
		IDProvider: NewUUIDProvider(),
		Logger:     zap.NewNop(),
		Notifier:   notifier,
	})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return service, db, notifier
}

func mustCreatePage(t *testing.T, service *Service, caller policy.Caller, request CreatePageRequest) Page {
	t.Helper()
	page, err := service.CreatePage(context.Background(), caller, request)
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	return page
}

func mustSubmit(t *testing.T, service *Service, slug, message string) {
	t.Helper()
	if err := service.SubmitFeedback(context.Background(), policy.Anonymous(), slug, SubmitFeedbackRequest{Message: message}); err != nil {
		t.Fatalf("unexpected submit error: %v", err)
	}
}

func expectReason(t *testing.T, err error, sentinel error, reason string) {
	t.Helper()
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected %v, got %v", sentinel, err)
	}
	var serviceErr *ServiceError
	if !errors.As(err, &serviceErr) {
		t.Fatalf("expected service error, got %T", err)
	}
	if serviceErr.Reason() != reason {
		t.Fatalf("expected reason %q, got %q (code %s)", reason, serviceErr.Reason(), serviceErr.Code())
	}
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var count int64
	if err := db.Model(model).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return count
}
