package server

import (
	"net/http"
	"time"

	"github.com/MarcoPoloResearchLab/feedbackwall/internal/feedback"
	"github.com/gin-gonic/gin"
)

const emptyPagesCallToAction = "Create your first feedback page"

type pagePayload struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Slug        string    `json:"slug"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	PublicURL   string    `json:"public_url"`
	ReviewURL   string    `json:"review_url"`
}

type pageListPayload struct {
	Pages        []pagePayload `json:"pages"`
	Empty        bool          `json:"empty"`
	CallToAction string        `json:"call_to_action,omitempty"`
}

type reviewEntryPayload struct {
	Ordinal   int       `json:"ordinal"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type reviewPayload struct {
	Page      pagePayload          `json:"page"`
	PublicURL string               `json:"public_url"`
	Total     int                  `json:"total"`
	Feedback  []reviewEntryPayload `json:"feedback"`
}

type updatePageRequest struct {
	IsActive *bool `json:"is_active"`
}

func (h *httpHandler) pagePayload(page feedback.Page) pagePayload {
	return pagePayload{
		ID:          page.ID,
		Title:       page.Title,
		Description: page.Description,
		Slug:        page.Slug,
		IsActive:    page.IsActive,
		CreatedAt:   page.CreatedAt.UTC(),
		UpdatedAt:   page.UpdatedAt.UTC(),
		PublicURL:   h.publicURL(page.Slug),
		ReviewURL:   pagesPath + "/" + page.ID,
	}
}

func (h *httpHandler) handleListPages(c *gin.Context) {
	pages, err := h.feedback.ListOwnedPages(c.Request.Context(), callerFromContext(c))
	if err != nil {
		h.respondFeedbackError(c, err)
		return
	}
	response := pageListPayload{Pages: make([]pagePayload, 0, len(pages))}
	for _, page := range pages {
		response.Pages = append(response.Pages, h.pagePayload(page))
	}
	if len(response.Pages) == 0 {
		response.Empty = true
		response.CallToAction = emptyPagesCallToAction
	}
	c.JSON(http.StatusOK, response)
}

func (h *httpHandler) handleCreatePage(c *gin.Context) {
	var request feedback.CreatePageRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondInvalidRequest(c)
		return
	}
	page, err := h.feedback.CreatePage(c.Request.Context(), callerFromContext(c), request)
	if err != nil {
		h.respondFeedbackError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.pagePayload(page))
}

func (h *httpHandler) handleSlugPreview(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"slug": feedback.DeriveSlug(c.Query("title"))})
}

func (h *httpHandler) handleReviewPage(c *gin.Context) {
	review, err := h.feedback.ReviewPage(c.Request.Context(), callerFromContext(c), c.Param("id"))
	if err != nil {
		h.respondFeedbackError(c, err)
		return
	}
	response := reviewPayload{
		Page:      h.pagePayload(review.Page),
		PublicURL: h.publicURL(review.Page.Slug),
		Total:     review.Total(),
		Feedback:  make([]reviewEntryPayload, 0, review.Total()),
	}
	for _, entry := range review.Entries {
		response.Feedback = append(response.Feedback, reviewEntryPayload{
			Ordinal:   entry.Ordinal,
			Message:   entry.Message,
			CreatedAt: entry.CreatedAt.UTC(),
		})
	}
	c.JSON(http.StatusOK, response)
}

func (h *httpHandler) handleUpdatePage(c *gin.Context) {
	var request updatePageRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondInvalidRequest(c)
		return
	}
	if request.IsActive == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_active_required"})
		return
	}
	page, err := h.feedback.SetPageActive(c.Request.Context(), callerFromContext(c), c.Param("id"), *request.IsActive)
	if err != nil {
		h.respondFeedbackError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.pagePayload(page))
}

func (h *httpHandler) handleDeletePage(c *gin.Context) {
	if err := h.feedback.DeletePage(c.Request.Context(), callerFromContext(c), c.Param("id")); err != nil {
		h.respondFeedbackError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
