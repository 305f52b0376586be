package feedback

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input rejected before any store interaction.
	ErrValidation = errors.New("feedback: validation failed")
	// ErrNotFound marks a row that is absent or not visible to the caller.
	ErrNotFound = errors.New("feedback: not found")
	// ErrSlugTaken marks a create rejected because another page holds the slug.
	ErrSlugTaken = errors.New("feedback: slug already taken")
	// ErrForbidden marks an operation the caller's identity does not permit.
	ErrForbidden = errors.New("feedback: forbidden")

	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
)

const (
	opServiceNew     = "feedback.service.new"
	opListOwnedPages = "feedback.list_owned_pages"
	opCreatePage     = "feedback.create_page"
	opGetOwnedPage   = "feedback.get_owned_page"
	opSetPageActive  = "feedback.set_page_active"
	opDeletePage     = "feedback.delete_page"
	opReviewPage     = "feedback.review_page"
	opGetPublicPage  = "feedback.get_public_page"
	opSubmitFeedback = "feedback.submit_feedback"

	reasonInvalidRequest  = "invalid_request"
	reasonMissingDatabase = "missing_database"
	reasonMissingIDProv   = "missing_id_provider"
	reasonUnauthenticated = "unauthenticated"
	reasonForbidden       = "forbidden"
	reasonPageNotFound    = "page_not_found"
	reasonNotFound        = "not_found"
	reasonSlugTaken       = "slug_taken"
	reasonQueryFailed     = "query_failed"
	reasonInsertFailed    = "insert_failed"
	reasonUpdateFailed    = "update_failed"
	reasonDeleteFailed    = "delete_failed"
	reasonIDFailed        = "id_generation_failed"
)

// ServiceError carries a stable "<operation>.<reason>" code and wraps the underlying cause.
type ServiceError struct {
	code   string
	reason string
	err    error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// Code returns the fully qualified error code.
func (e *ServiceError) Code() string {
	return e.code
}

// Reason returns the short reason suitable for API responses.
func (e *ServiceError) Reason() string {
	return e.reason
}

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, reason: reason, err: cause}
}
