package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newCORSRouter(allowedOrigins ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(corsMiddleware(allowedOrigins...))
	router.GET("/api/pages", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.OPTIONS("/api/pages", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestCORSMiddlewareDefaultOmitsCredentials(t *testing.T) {
	router := newCORSRouter()

	request := httptest.NewRequest(http.MethodGet, "/api/pages", http.NoBody)
	request.Header.Set("Origin", "https://evil.example.net")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if origin := recorder.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Fatalf("expected wildcard origin, got %q", origin)
	}
	if credentials := recorder.Header().Get("Access-Control-Allow-Credentials"); credentials != "" {
		t.Fatalf("expected credentials to be disabled without configured origins, got %q", credentials)
	}
}

func TestCORSMiddlewareDefaultPreflight(t *testing.T) {
	router := newCORSRouter()

	request := httptest.NewRequest(http.MethodOptions, "/api/pages", http.NoBody)
	request.Header.Set("Origin", "https://app.example.com")
	request.Header.Set("Access-Control-Request-Method", http.MethodPost)
	request.Header.Set("Access-Control-Request-Headers", "Content-Type")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, recorder.Code)
	}
	allowHeaders := strings.ToLower(recorder.Header().Get("Access-Control-Allow-Headers"))
	if !strings.Contains(allowHeaders, "content-type") {
		t.Fatalf("expected Access-Control-Allow-Headers to include Content-Type, got %q", allowHeaders)
	}
	if recorder.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Fatalf("expected no credentials on default preflight")
	}
}

func TestCORSMiddlewareListedOriginGetsCredentials(t *testing.T) {
	router := newCORSRouter("https://wall.example.com")

	request := httptest.NewRequest(http.MethodGet, "/api/pages", http.NoBody)
	request.Header.Set("Origin", "https://wall.example.com")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	if origin := recorder.Header().Get("Access-Control-Allow-Origin"); origin != "https://wall.example.com" {
		t.Fatalf("expected listed origin to be echoed, got %q", origin)
	}
	if recorder.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("expected credentials for listed origin")
	}
}

func TestCORSMiddlewareRestrictsConfiguredOrigins(t *testing.T) {
	router := newCORSRouter("https://wall.example.com")

	request := httptest.NewRequest(http.MethodGet, "/api/pages", http.NoBody)
	request.Header.Set("Origin", "https://evil.example.net")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected status %d for unlisted origin, got %d", http.StatusForbidden, recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Fatalf("expected no credentials for unlisted origin")
	}
}
