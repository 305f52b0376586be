package feedback

import (
	"context"
	"errors"

	"github.com/MarcoPoloResearchLab/feedbackwall/internal/policy"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ListOwnedPages returns the caller's pages, newest first.
func (s *Service) ListOwnedPages(ctx context.Context, caller policy.Caller) ([]Page, error) {
	if err := s.ready(opListOwnedPages); err != nil {
		return nil, err
	}
	if err := requireIdentity(opListOwnedPages, caller); err != nil {
		return nil, err
	}

	var pages []Page
	if err := s.db.WithContext(ctx).
		Scopes(policy.OwnedPages(caller)).
		Order(orderNewestFirst).
		Find(&pages).Error; err != nil {
		s.logError(opListOwnedPages, reasonQueryFailed, err, zap.String("user_id", caller.UserID))
		return nil, newServiceError(opListOwnedPages, reasonQueryFailed, err)
	}
	return pages, nil
}

// CreatePage inserts a page owned by the caller. The slug must be unique across all owners;
// a collision leaves existing rows untouched and reports ErrSlugTaken.
func (s *Service) CreatePage(ctx context.Context, caller policy.Caller, request CreatePageRequest) (Page, error) {
	if err := s.ready(opCreatePage); err != nil {
		return Page{}, err
	}
	if err := requireIdentity(opCreatePage, caller); err != nil {
		return Page{}, err
	}
	if !policy.CanInsertPage(caller, caller.UserID) {
		return Page{}, newServiceError(opCreatePage, reasonForbidden, ErrForbidden)
	}

	request = request.normalized()
	if err := request.Validate(); err != nil {
		return Page{}, validationFailure(opCreatePage, err)
	}

	pageID, err := s.newID(opCreatePage)
	if err != nil {
		return Page{}, err
	}
	now := s.now()
	page := Page{
		ID:          pageID,
		OwnerID:     caller.UserID,
		Title:       request.Title,
		Description: request.Description,
		Slug:        request.Slug,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var holders int64
		if err := tx.Model(&Page{}).Where(querySlug, page.Slug).Count(&holders).Error; err != nil {
			s.logError(opCreatePage, reasonQueryFailed, err, zap.String("slug", page.Slug))
			return newServiceError(opCreatePage, reasonQueryFailed, err)
		}
		if holders > 0 {
			return newServiceError(opCreatePage, reasonSlugTaken, ErrSlugTaken)
		}
		if err := tx.Omit("Entries").Create(&page).Error; err != nil {
			if isUniqueViolation(err) {
				return newServiceError(opCreatePage, reasonSlugTaken, errors.Join(ErrSlugTaken, err))
			}
			s.logError(opCreatePage, reasonInsertFailed, err, zap.String("slug", page.Slug))
			return newServiceError(opCreatePage, reasonInsertFailed, err)
		}
		return nil
	})
	if txErr != nil {
		return Page{}, txErr
	}

	s.loggerOrDefault().Info("feedback page created",
		zap.String("user_id", caller.UserID),
		zap.String("page_id", page.ID),
		zap.String("slug", page.Slug))
	return page, nil
}

// GetOwnedPage returns the page only when the caller owns it. A page owned by someone else is
// reported exactly like an absent one.
func (s *Service) GetOwnedPage(ctx context.Context, caller policy.Caller, pageID string) (Page, error) {
	if err := s.ready(opGetOwnedPage); err != nil {
		return Page{}, err
	}
	if err := requireIdentity(opGetOwnedPage, caller); err != nil {
		return Page{}, err
	}
	return s.loadOwnedPage(s.db.WithContext(ctx), opGetOwnedPage, caller, pageID)
}

func (s *Service) loadOwnedPage(db *gorm.DB, operation string, caller policy.Caller, pageID string) (Page, error) {
	if !validPageID(pageID) {
		return Page{}, newServiceError(operation, reasonPageNotFound, ErrNotFound)
	}
	var page Page
	err := db.Scopes(policy.OwnedPages(caller)).
		Where(queryID, pageID).
		Take(&page).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Page{}, newServiceError(operation, reasonPageNotFound, ErrNotFound)
	}
	if err != nil {
		s.logError(operation, reasonQueryFailed, err, zap.String("page_id", pageID))
		return Page{}, newServiceError(operation, reasonQueryFailed, err)
	}
	if !policy.CanManagePage(caller, pageFacts(page)) {
		return Page{}, newServiceError(operation, reasonPageNotFound, ErrNotFound)
	}
	return page, nil
}

// SetPageActive toggles whether the page is publicly visible and accepts submissions.
func (s *Service) SetPageActive(ctx context.Context, caller policy.Caller, pageID string, active bool) (Page, error) {
	if err := s.ready(opSetPageActive); err != nil {
		return Page{}, err
	}
	if err := requireIdentity(opSetPageActive, caller); err != nil {
		return Page{}, err
	}

	var updated Page
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		page, err := s.loadOwnedPage(tx, opSetPageActive, caller, pageID)
		if err != nil {
			return err
		}
		if !policy.CanUpdatePage(caller, pageFacts(page)) {
			return newServiceError(opSetPageActive, reasonPageNotFound, ErrNotFound)
		}
		updatedAt := s.now()
		if err := tx.Model(&Page{}).
			Scopes(policy.OwnedPages(caller)).
			Where(queryID, page.ID).
			Updates(map[string]interface{}{"is_active": active, "updated_at": updatedAt}).Error; err != nil {
			s.logError(opSetPageActive, reasonUpdateFailed, err, zap.String("page_id", page.ID))
			return newServiceError(opSetPageActive, reasonUpdateFailed, err)
		}
		page.IsActive = active
		page.UpdatedAt = updatedAt
		updated = page
		return nil
	})
	if txErr != nil {
		return Page{}, txErr
	}
	return updated, nil
}

// DeletePage removes the page and all feedback submitted to it, freeing the slug.
func (s *Service) DeletePage(ctx context.Context, caller policy.Caller, pageID string) error {
	if err := s.ready(opDeletePage); err != nil {
		return err
	}
	if err := requireIdentity(opDeletePage, caller); err != nil {
		return err
	}

	var removedEntries int64
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		page, err := s.loadOwnedPage(tx, opDeletePage, caller, pageID)
		if err != nil {
			return err
		}
		if !policy.CanDeletePage(caller, pageFacts(page)) {
			return newServiceError(opDeletePage, reasonPageNotFound, ErrNotFound)
		}
		entries := tx.Where(queryPageID, page.ID).Delete(&Entry{})
		if entries.Error != nil {
			s.logError(opDeletePage, reasonDeleteFailed, entries.Error, zap.String("page_id", page.ID))
			return newServiceError(opDeletePage, reasonDeleteFailed, entries.Error)
		}
		removedEntries = entries.RowsAffected
		if err := tx.Scopes(policy.OwnedPages(caller)).Where(queryID, page.ID).Delete(&Page{}).Error; err != nil {
			s.logError(opDeletePage, reasonDeleteFailed, err, zap.String("page_id", page.ID))
			return newServiceError(opDeletePage, reasonDeleteFailed, err)
		}
		return nil
	})
	if txErr != nil {
		return txErr
	}

	s.loggerOrDefault().Info("feedback page deleted",
		zap.String("user_id", caller.UserID),
		zap.String("page_id", pageID),
		zap.Int64("feedback_removed", removedEntries))
	return nil
}
