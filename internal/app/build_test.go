package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/eduqa/internal/config"
	"github.com/hitoshi/eduqa/internal/gateway"
	"github.com/hitoshi/eduqa/internal/logger"
	"github.com/hitoshi/eduqa/internal/middleware"
	"github.com/hitoshi/eduqa/internal/model"
	"github.com/hitoshi/eduqa/internal/simulated"
)

func demoConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		APIBaseURL:        config.DefaultAPIBaseURL,
		UseMocks:          true,
		JWTSecret:         config.DefaultJWTSecret,
		RequestTimeout:    time.Second,
		SessionDir:        t.TempDir(),
		CORSAllowedOrigin: "http://localhost:5173",
	}
}

func TestBuild_DemoMode_ServesHealth(t *testing.T) {
	srv, err := Build(context.Background(), demoConfig(t), logger.Discard())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer srv.Close()

	if srv.Mode != gateway.ModeSimulated {
		t.Errorf("mode = %q, want %q", srv.Mode, gateway.ModeSimulated)
	}

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"mode":"simulated"`) {
		t.Errorf("body = %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("metrics should include the Go runtime collector")
	}
}

func TestBuild_RestoresPersistedSession(t *testing.T) {
	cfg := demoConfig(t)

	first, err := Build(context.Background(), cfg, logger.Discard())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rec := httptest.NewRecorder()
	first.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/csrf-token", nil))
	var csrf map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&csrf); err != nil || csrf["token"] == "" {
		t.Fatalf("csrf token = %v, err = %v", csrf, err)
	}

	body, _ := json.Marshal(model.LoginRequest{Username: "student01", Password: simulated.FixturePassword})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: middleware.CSRFCookieName, Value: csrf["token"]})
	req.Header.Set(middleware.CSRFHeaderName, csrf["token"])
	rec = httptest.NewRecorder()
	first.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rec.Code, rec.Body.String())
	}
	_ = first.Close()

	second, err := Build(context.Background(), cfg, logger.Discard())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer second.Close()

	user := second.Session.CurrentUser()
	if user == nil || user.ID != simulated.FixtureStudentID {
		t.Fatalf("restored user = %+v", user)
	}

	rec = httptest.NewRecorder()
	second.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profile/me", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("profile status = %d, want 200 (body = %s)", rec.Code, rec.Body.String())
	}
}

func TestBuild_RejectsLoginWithoutCSRFToken(t *testing.T) {
	srv, err := Build(context.Background(), demoConfig(t), logger.Discard())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer srv.Close()

	body, _ := json.Marshal(model.LoginRequest{Username: "admin01", Password: simulated.FixturePassword})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if srv.Session.CurrentUser() != nil {
		t.Error("session must stay empty")
	}
}

func TestBuild_RemoteMode_InvalidBaseURL(t *testing.T) {
	cfg := demoConfig(t)
	cfg.UseMocks = false
	cfg.APIBaseURL = "not a url"

	if _, err := Build(context.Background(), cfg, logger.Discard()); err == nil {
		t.Fatal("expected error for invalid base URL")
	}
}

func TestBuild_UnreachableRedis(t *testing.T) {
	cfg := demoConfig(t)
	cfg.SessionRedisAddr = "127.0.0.1:1"

	if _, err := Build(context.Background(), cfg, logger.Discard()); err == nil {
		t.Fatal("expected error when session redis is unreachable")
	}
}

func TestRunHealthcheck(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"healthy", http.StatusOK, false},
		{"unhealthy", http.StatusServiceUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/health" {
					t.Errorf("path = %q, want /health", r.URL.Path)
				}
				w.WriteHeader(tt.status)
			}))
			defer ts.Close()

			err := runHealthcheck(ts.URL + "/health")
			if (err != nil) != tt.wantErr {
				t.Errorf("runHealthcheck() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRunHealthcheck_ConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL + "/health"
	ts.Close()

	if err := runHealthcheck(url); err == nil {
		t.Fatal("expected error when server is down")
	}
}
