package server

import (
	"net/http"

	"github.com/MarcoPoloResearchLab/feedbackwall/internal/feedback"
	"github.com/gin-gonic/gin"
)

type publicPagePayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Slug        string `json:"slug"`
}

func (h *httpHandler) handlePublicPage(c *gin.Context) {
	page, err := h.feedback.GetPublicPage(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondFeedbackError(c, err)
		return
	}
	c.JSON(http.StatusOK, publicPagePayload{
		Title:       page.Title,
		Description: page.Description,
		Slug:        page.Slug,
	})
}

func (h *httpHandler) handleSubmitFeedback(c *gin.Context) {
	var request feedback.SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondInvalidRequest(c)
		return
	}
	if err := h.feedback.SubmitFeedback(c.Request.Context(), callerFromContext(c), c.Param("slug"), request); err != nil {
		h.respondFeedbackError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "received", "submit_another": true})
}
