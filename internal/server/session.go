package server

import (
	"errors"
	"net/http"

	"github.com/MarcoPoloResearchLab/feedbackwall/internal/auth"
	"github.com/MarcoPoloResearchLab/feedbackwall/internal/policy"
	"github.com/MarcoPoloResearchLab/feedbackwall/internal/profiles"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	callerContextKey = "feedbackwall_caller"
	claimsContextKey = "feedbackwall_claims"
)

// resolveSession attaches the caller to every request. Requests without a valid session
// continue as anonymous; protected routes reject them in requireSession.
func (h *httpHandler) resolveSession(c *gin.Context) {
	claims, err := h.sessions.ValidateRequest(c.Request)
	if err != nil {
		if !errors.Is(err, auth.ErrMissingSessionToken) {
			h.logSessionFailure(err)
		}
		c.Set(callerContextKey, policy.Anonymous())
		c.Next()
		return
	}

	caller := policy.Authenticated(claims.UserID)
	if h.profiles != nil {
		provisionErr := h.profiles.Provision(c.Request.Context(), caller, profiles.ProvisionRequest{
			UserID:      claims.UserID,
			Email:       claims.UserEmail,
			DisplayName: claims.UserDisplayName,
		})
		if provisionErr != nil {
			h.logger.Error("profile provisioning failed", zap.String("user_id", claims.UserID), zap.Error(provisionErr))
		}
	}
	c.Set(callerContextKey, caller)
	c.Set(claimsContextKey, claims)
	c.Next()
}

func (h *httpHandler) logSessionFailure(err error) {
	if errors.Is(err, jwt.ErrTokenExpired) {
		h.logger.Info("session validation failed", zap.Error(err))
		return
	}
	h.logger.Warn("session validation failed", zap.Error(err))
}

func (h *httpHandler) requireSession(c *gin.Context) {
	if !callerFromContext(c).IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Next()
}

func callerFromContext(c *gin.Context) policy.Caller {
	value, ok := c.Get(callerContextKey)
	if !ok {
		return policy.Anonymous()
	}
	caller, ok := value.(policy.Caller)
	if !ok {
		return policy.Anonymous()
	}
	return caller
}

func claimsFromContext(c *gin.Context) (auth.SessionClaims, bool) {
	value, ok := c.Get(claimsContextKey)
	if !ok {
		return auth.SessionClaims{}, false
	}
	claims, ok := value.(auth.SessionClaims)
	return claims, ok
}

type sessionUserPayload struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

func (h *httpHandler) currentUser(c *gin.Context) sessionUserPayload {
	caller := callerFromContext(c)
	user := sessionUserPayload{ID: caller.UserID}
	if claims, ok := claimsFromContext(c); ok {
		user.Email = claims.UserEmail
		user.DisplayName = claims.UserDisplayName
	}
	profile, err := h.profiles.Get(c.Request.Context(), caller)
	if err == nil {
		user.Email = profile.Email
		user.DisplayName = profile.DisplayName
	}
	if user.DisplayName == "" {
		user.DisplayName = profiles.DefaultDisplayName
	}
	return user
}

func (h *httpHandler) handleLanding(c *gin.Context) {
	if !callerFromContext(c).IsAuthenticated() {
		c.Redirect(http.StatusFound, h.signInURL)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user": h.currentUser(c),
		"links": gin.H{
			"pages":    pagesPath,
			"profile":  profilePath,
			"events":   eventsPath,
			"sign_out": logoutPath,
		},
	})
}

func (h *httpHandler) handleSession(c *gin.Context) {
	response := gin.H{"user": h.currentUser(c)}
	if claims, ok := claimsFromContext(c); ok && claims.ExpiresAt != nil {
		response["expires_at"] = claims.ExpiresAt.Time.UTC()
	}
	c.JSON(http.StatusOK, response)
}

func (h *httpHandler) handleLogout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.sessions.CookieName(), "", -1, "/", "", c.Request.TLS != nil, true)
	c.Status(http.StatusNoContent)
}
