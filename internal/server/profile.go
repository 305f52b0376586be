package server

import (
	"net/http"
	"time"

	"github.com/MarcoPoloResearchLab/feedbackwall/internal/profiles"
	"github.com/gin-gonic/gin"
)

type profilePayload struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type updateProfilePayload struct {
	DisplayName string `json:"display_name"`
}

func newProfilePayload(profile profiles.Profile) profilePayload {
	return profilePayload{
		UserID:      profile.UserID,
		DisplayName: profile.DisplayName,
		Email:       profile.Email,
		CreatedAt:   profile.CreatedAt.UTC(),
		UpdatedAt:   profile.UpdatedAt.UTC(),
	}
}

func (h *httpHandler) handleGetProfile(c *gin.Context) {
	profile, err := h.profiles.Get(c.Request.Context(), callerFromContext(c))
	if err != nil {
		h.respondProfileError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProfilePayload(profile))
}

func (h *httpHandler) handleUpdateProfile(c *gin.Context) {
	var request updateProfilePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		respondInvalidRequest(c)
		return
	}
	profile, err := h.profiles.Update(c.Request.Context(), callerFromContext(c), profiles.UpdateProfileRequest{
		DisplayName: request.DisplayName,
	})
	if err != nil {
		h.respondProfileError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProfilePayload(profile))
}
