package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/feedbackwall/internal/auth"
	"github.com/MarcoPoloResearchLab/feedbackwall/internal/feedback"
	"github.com/MarcoPoloResearchLab/feedbackwall/internal/profiles"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultHeartbeatInterval = 25 * time.Second
	pagesPath                = "/api/pages"
	profilePath              = "/api/profile"
	eventsPath               = "/api/events"
	publicPathPrefix         = "/p/"
	logoutPath               = "/auth/logout"
)

var (
	errMissingSessionValidator = errors.New("session validator dependency required")
	errMissingProfilesService  = errors.New("profiles service dependency required")
	errMissingFeedbackService  = errors.New("feedback service dependency required")
	errMissingRealtime         = errors.New("realtime dispatcher dependency required")
)

// SessionValidator resolves the signed-in identity carried by a request.
type SessionValidator interface {
	ValidateRequest(r *http.Request) (auth.SessionClaims, error)
	CookieName() string
}

// Dependencies wires the HTTP surface to its services.
type Dependencies struct {
	SessionValidator  SessionValidator
	Profiles          *profiles.Service
	Feedback          *feedback.Service
	Realtime          *RealtimeDispatcher
	Logger            *zap.Logger
	SignInURL         string
	PublicBaseURL     string
	AllowedOrigins    []string
	HeartbeatInterval time.Duration
}

// NewHTTPHandler builds the gin router serving the dashboard, the management API and the
// public submission endpoints.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.SessionValidator == nil {
		return nil, errMissingSessionValidator
	}
	if deps.Profiles == nil {
		return nil, errMissingProfilesService
	}
	if deps.Feedback == nil {
		return nil, errMissingFeedbackService
	}
	if deps.Realtime == nil {
		return nil, errMissingRealtime
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	heartbeat := deps.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeatInterval
	}

	handler := &httpHandler{
		sessions:          deps.SessionValidator,
		profiles:          deps.Profiles,
		feedback:          deps.Feedback,
		realtime:          deps.Realtime,
		logger:            logger,
		signInURL:         deps.SignInURL,
		publicBaseURL:     strings.TrimRight(deps.PublicBaseURL, "/"),
		heartbeatInterval: heartbeat,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(deps.AllowedOrigins...))
	router.Use(handler.resolveSession)

	router.GET("/healthz", handler.handleHealth)
	router.GET("/", handler.handleLanding)
	router.GET("/auth/session", handler.requireSession, handler.handleSession)
	router.POST(logoutPath, handler.handleLogout)

	public := router.Group(publicPathPrefix)
	public.GET(":slug", handler.handlePublicPage)
	public.POST(":slug/feedback", handler.handleSubmitFeedback)

	api := router.Group("/api")
	api.Use(handler.requireSession)
	api.GET("/profile", handler.handleGetProfile)
	api.PATCH("/profile", handler.handleUpdateProfile)
	api.GET("/slug", handler.handleSlugPreview)
	api.GET("/pages", handler.handleListPages)
	api.POST("/pages", handler.handleCreatePage)
	api.GET("/pages/:id", handler.handleReviewPage)
	api.PATCH("/pages/:id", handler.handleUpdatePage)
	api.DELETE("/pages/:id", handler.handleDeletePage)
	api.GET("/events", handler.handleEvents)

	return router, nil
}

type httpHandler struct {
	sessions          SessionValidator
	profiles          *profiles.Service
	feedback          *feedback.Service
	realtime          *RealtimeDispatcher
	logger            *zap.Logger
	signInURL         string
	publicBaseURL     string
	heartbeatInterval time.Duration
}

// corsMiddleware allows credentialed cross-origin requests only from listed origins. Without a
// list any origin may call the API, but browsers will not attach the session cookie.
func corsMiddleware(allowedOrigins ...string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	if len(allowedOrigins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = allowedOrigins
		config.AllowCredentials = true
	}
	return cors.New(config)
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *httpHandler) publicURL(slug string) string {
	return h.publicBaseURL + publicPathPrefix + slug
}
