package server

import (
	"errors"
	"net/http"

	"github.com/MarcoPoloResearchLab/feedbackwall/internal/feedback"
	"github.com/MarcoPoloResearchLab/feedbackwall/internal/profiles"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	reasonInvalidRequest = "invalid_request"
	reasonInternal       = "internal_error"
	reasonPageNotFound   = "page_not_found"
)

func feedbackStatus(err error) int {
	switch {
	case errors.Is(err, feedback.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, feedback.ErrSlugTaken):
		return http.StatusConflict
	case errors.Is(err, feedback.ErrNotFound), errors.Is(err, feedback.ErrForbidden):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondFeedbackError renders a feedback service failure as {"error": reason, "code": code}.
func (h *httpHandler) respondFeedbackError(c *gin.Context, err error) {
	status := feedbackStatus(err)
	body := gin.H{"error": reasonInternal}
	var serviceErr *feedback.ServiceError
	if errors.As(err, &serviceErr) {
		body["error"] = serviceErr.Reason()
		body["code"] = serviceErr.Code()
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	if body["error"] == reasonPageNotFound {
		body["redirect"] = pagesPath
	}
	c.JSON(status, body)
}

func (h *httpHandler) respondProfileError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, profiles.ErrInvalidProfile):
		c.JSON(http.StatusBadRequest, gin.H{"error": "display_name_invalid"})
	case errors.Is(err, profiles.ErrNotFound), errors.Is(err, profiles.ErrForbidden):
		c.JSON(http.StatusNotFound, gin.H{"error": "profile_not_found"})
	default:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": reasonInternal})
	}
}

func respondInvalidRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": reasonInvalidRequest})
}
