package feedback

import (
	"context"
	"errors"
	"strings"

	"github.com/MarcoPoloResearchLab/feedbackwall/internal/policy"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReviewPage returns an owned page with its feedback, newest first, labelled with ordinals.
func (s *Service) ReviewPage(ctx context.Context, caller policy.Caller, pageID string) (Review, error) {
	if err := s.ready(opReviewPage); err != nil {
		return Review{}, err
	}
	if err := requireIdentity(opReviewPage, caller); err != nil {
		return Review{}, err
	}

	db := s.db.WithContext(ctx)
	page, err := s.loadOwnedPage(db, opReviewPage, caller, pageID)
	if err != nil {
		return Review{}, err
	}
	if !policy.CanReadFeedback(caller, pageFacts(page)) {
		return Review{}, newServiceError(opReviewPage, reasonPageNotFound, ErrNotFound)
	}

	var entries []Entry
	if err := db.Where(queryPageID, page.ID).
		Order(orderNewestFirst).
		Find(&entries).Error; err != nil {
		s.logError(opReviewPage, reasonQueryFailed, err, zap.String("page_id", page.ID))
		return Review{}, newServiceError(opReviewPage, reasonQueryFailed, err)
	}
	return newReview(page, entries), nil
}

// GetPublicPage resolves an active page by slug. Unknown and inactive slugs are both
// reported as ErrNotFound.
func (s *Service) GetPublicPage(ctx context.Context, slug string) (Page, error) {
	if err := s.ready(opGetPublicPage); err != nil {
		return Page{}, err
	}
	return s.loadPublicPage(s.db.WithContext(ctx), opGetPublicPage, slug)
}

func (s *Service) loadPublicPage(db *gorm.DB, operation, slug string) (Page, error) {
	trimmed := strings.TrimSpace(slug)
	if trimmed == "" || len(trimmed) > maxSlugLength {
		return Page{}, newServiceError(operation, reasonNotFound, ErrNotFound)
	}
	var page Page
	err := db.Scopes(policy.PublicPages).
		Where(querySlug, trimmed).
		Take(&page).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Page{}, newServiceError(operation, reasonNotFound, ErrNotFound)
	}
	if err != nil {
		s.logError(operation, reasonQueryFailed, err, zap.String("slug", trimmed))
		return Page{}, newServiceError(operation, reasonQueryFailed, err)
	}
	if !policy.CanReadPage(policy.Anonymous(), pageFacts(page)) {
		return Page{}, newServiceError(operation, reasonNotFound, ErrNotFound)
	}
	return page, nil
}

// SubmitFeedback stores an anonymous message for the active page addressed by slug. Nothing
// about the caller is recorded. Empty messages are rejected before the store is touched.
func (s *Service) SubmitFeedback(ctx context.Context, caller policy.Caller, slug string, request SubmitFeedbackRequest) error {
	request = request.normalized()
	if err := request.Validate(); err != nil {
		return validationFailure(opSubmitFeedback, err)
	}
	if err := s.ready(opSubmitFeedback); err != nil {
		return err
	}

	entryID, err := s.newID(opSubmitFeedback)
	if err != nil {
		return err
	}

	var event FeedbackEvent
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		page, err := s.loadPublicPage(tx, opSubmitFeedback, slug)
		if err != nil {
			return err
		}
		if !policy.CanInsertFeedback(caller, pageFacts(page)) {
			return newServiceError(opSubmitFeedback, reasonNotFound, ErrNotFound)
		}
		now := s.now()
		entry := Entry{
			ID:        entryID,
			PageID:    page.ID,
			Message:   request.Message,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&entry).Error; err != nil {
			s.logError(opSubmitFeedback, reasonInsertFailed, err, zap.String("page_id", page.ID))
			return newServiceError(opSubmitFeedback, reasonInsertFailed, err)
		}
		event = FeedbackEvent{
			OwnerID:    page.OwnerID,
			PageID:     page.ID,
			Slug:       page.Slug,
			ReceivedAt: now,
		}
		return nil
	})
	if txErr != nil {
		return txErr
	}

	if s.notifier != nil {
		s.notifier.FeedbackReceived(event)
	}
	return nil
}
