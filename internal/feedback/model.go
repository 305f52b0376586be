package feedback

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
	maxSlugLength        = 190
	maxIdentifierLength  = 64
)

// Page is a named feedback collection owned by one user and addressed publicly by its slug.
type Page struct {
	ID          string    `gorm:"column:id;primaryKey;size:64"`
	OwnerID     string    `gorm:"column:owner_id;size:190;not null;index:idx_feedback_pages_owner_created,priority:1"`
	Title       string    `gorm:"column:title;size:200;not null"`
	Description string    `gorm:"column:description;type:text;not null;default:''"`
	Slug        string    `gorm:"column:slug;size:190;not null;uniqueIndex:idx_feedback_pages_slug"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime;index:idx_feedback_pages_owner_created,priority:2"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
	Entries     []Entry   `gorm:"foreignKey:PageID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName provides the explicit table binding for GORM.
func (Page) TableName() string {
	return "feedback_pages"
}

// Entry is one anonymous submission. It carries no column that could identify the submitter.
type Entry struct {
	ID        string    `gorm:"column:id;primaryKey;size:64"`
	PageID    string    `gorm:"column:page_id;size:64;not null;index:idx_feedback_page_created,priority:1"`
	Message   string    `gorm:"column:message;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index:idx_feedback_page_created,priority:2"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Entry) TableName() string {
	return "feedback"
}

// CreatePageRequest describes a new page. A blank slug is derived from the title.
type CreatePageRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Slug        string `json:"slug"`
}

func (r CreatePageRequest) normalized() CreatePageRequest {
	title := strings.TrimSpace(r.Title)
	slugSource := r.Slug
	if strings.TrimSpace(slugSource) == "" {
		slugSource = title
	}
	return CreatePageRequest{
		Title:       title,
		Description: strings.TrimSpace(r.Description),
		Slug:        DeriveSlug(slugSource),
	}
}

// Validate checks a normalized request.
func (r CreatePageRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.Required.Error("title is required"),
			validation.RuneLength(1, maxTitleLength),
		),
		validation.Field(&r.Slug,
			validation.Required.Error("slug is required"),
			validation.RuneLength(1, maxSlugLength),
		),
		validation.Field(&r.Description, validation.RuneLength(0, maxDescriptionLength)),
	)
}

// SubmitFeedbackRequest is an anonymous message for a page.
type SubmitFeedbackRequest struct {
	Message string `json:"message"`
}

func (r SubmitFeedbackRequest) normalized() SubmitFeedbackRequest {
	return SubmitFeedbackRequest{Message: strings.TrimSpace(r.Message)}
}

// Validate rejects empty and whitespace-only messages.
func (r SubmitFeedbackRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Message, validation.Required.Error("message is required")),
	)
}

// ReviewEntry is a feedback row as shown to the page owner.
type ReviewEntry struct {
	Ordinal   int
	Message   string
	CreatedAt time.Time
}

// Review is the owner's view of one page and its feedback, newest first.
type Review struct {
	Page    Page
	Entries []ReviewEntry
}

// Total returns the number of feedback entries on the page.
func (r Review) Total() int {
	return len(r.Entries)
}

// newReview labels entries so the newest of N is N and the oldest is 1.
func newReview(page Page, entries []Entry) Review {
	total := len(entries)
	labelled := make([]ReviewEntry, 0, total)
	for index, entry := range entries {
		labelled = append(labelled, ReviewEntry{
			Ordinal:   total - index,
			Message:   entry.Message,
			CreatedAt: entry.CreatedAt,
		})
	}
	return Review{Page: page, Entries: labelled}
}

// FeedbackEvent announces a new submission to the page owner. It carries no message text.
type FeedbackEvent struct {
	OwnerID    string
	PageID     string
	Slug       string
	ReceivedAt time.Time
}

var validatedFields = []string{"title", "slug", "description", "message"}

// validationReason maps the first failing field onto a stable reason code.
func validationReason(err error) string {
	var fieldErrors validation.Errors
	if !errors.As(err, &fieldErrors) {
		return reasonInvalidRequest
	}
	for _, field := range validatedFields {
		fieldErr, ok := fieldErrors[field]
		if !ok {
			continue
		}
		var ruleErr validation.Error
		if errors.As(fieldErr, &ruleErr) && ruleErr.Code() == validation.ErrRequired.Code() {
			return field + "_required"
		}
		return field + "_invalid"
	}
	return reasonInvalidRequest
}

func validPageID(pageID string) bool {
	trimmed := strings.TrimSpace(pageID)
	return trimmed != "" && len(trimmed) <= maxIdentifierLength
}
