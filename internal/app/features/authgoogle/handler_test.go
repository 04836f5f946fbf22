package authgoogle_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/WaffleZilla55/BesPick/internal/app/features/authgoogle"
	"github.com/WaffleZilla55/BesPick/internal/app/store/oauthstate"
	"github.com/WaffleZilla55/BesPick/internal/app/system/auth"
	"github.com/WaffleZilla55/BesPick/internal/testutil"
	"go.uber.org/zap"
)

func newHandlerWithCreds(t *testing.T, clientID, clientSecret string) *authgoogle.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}

	return authgoogle.NewHandler(
		db,
		sessionMgr,
		oauthstate.New(db),
		clientID,
		clientSecret,
		"http://localhost:8080",
		logger,
	)
}

func newTestHandler(t *testing.T) *authgoogle.Handler {
	t.Helper()
	return newHandlerWithCreds(t, "test-client-id", "test-client-secret")
}

func TestNewHandler(t *testing.T) {
	h := newTestHandler(t)
	if h == nil {
		t.Fatal("NewHandler() returned nil")
	}
}

func TestIsConfigured_Configured(t *testing.T) {
	h := newTestHandler(t)
	if !h.IsConfigured() {
		t.Error("IsConfigured() should return true with client ID and secret")
	}
}

func TestIsConfigured_NotConfigured(t *testing.T) {
	h := newHandlerWithCreds(t, "", "")
	if h.IsConfigured() {
		t.Error("IsConfigured() should return false without client ID and secret")
	}
}

func TestServeLogin_NotConfigured(t *testing.T) {
	h := newHandlerWithCreds(t, "", "")

	req := httptest.NewRequest("GET", "/auth/google", nil)
	rec := httptest.NewRecorder()

	h.ServeLogin(rec, req)

	// Should redirect to login with error
	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}

	location := rec.Header().Get("Location")
	if !strings.Contains(location, "google_not_configured") {
		t.Errorf("Location = %q, want to contain 'google_not_configured'", location)
	}
}

func TestServeLogin_RedirectsToGoogle(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest("GET", "/auth/google", nil)
	rec := httptest.NewRecorder()

	handler.ServeLogin(rec, req)

	// Should redirect to Google
	if rec.Code != http.StatusTemporaryRedirect {
		t.Errorf("expected status %d, got %d", http.StatusTemporaryRedirect, rec.Code)
	}

	location := rec.Header().Get("Location")
	if !strings.Contains(location, "accounts.google.com") {
		t.Errorf("Location = %q, want to contain 'accounts.google.com'", location)
	}
}

func TestServeCallback_MissingState(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest("GET", "/auth/google/callback?code=test-code", nil)
	rec := httptest.NewRecorder()

	handler.ServeCallback(rec, req)

	// Should redirect with invalid_state error
	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}

	location := rec.Header().Get("Location")
	if !strings.Contains(location, "invalid_state") {
		t.Errorf("Location = %q, want to contain 'invalid_state'", location)
	}
}

func TestServeCallback_GoogleError(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest("GET", "/auth/google/callback?error=access_denied", nil)
	rec := httptest.NewRecorder()

	handler.ServeCallback(rec, req)

	// Should redirect with google_denied error
	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}

	location := rec.Header().Get("Location")
	if !strings.Contains(location, "google_denied") {
		t.Errorf("Location = %q, want to contain 'google_denied'", location)
	}
}

func TestServeCallback_InvalidState(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest("GET", "/auth/google/callback?state=invalid-state&code=test-code", nil)
	rec := httptest.NewRecorder()

	handler.ServeCallback(rec, req)

	// Should redirect with invalid_state error
	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}

	location := rec.Header().Get("Location")
	if !strings.Contains(location, "invalid_state") {
		t.Errorf("Location = %q, want to contain 'invalid_state'", location)
	}
}

func TestRoutes(t *testing.T) {
	handler := newTestHandler(t)

	router := authgoogle.Routes(handler)
	if router == nil {
		t.Fatal("Routes() returned nil")
	}
}
