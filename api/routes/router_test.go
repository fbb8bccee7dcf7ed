package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/nutritrack-backend/api/controllers"
	"github.com/angelmondragon/nutritrack-backend/internal/notifications"
	"github.com/angelmondragon/nutritrack-backend/internal/nutrition"
	pkgAuth "github.com/angelmondragon/nutritrack-backend/pkg/auth"
	"github.com/angelmondragon/nutritrack-backend/pkg/config"
	"github.com/angelmondragon/nutritrack-backend/pkg/kv"
	"github.com/angelmondragon/nutritrack-backend/pkg/logger"
	"github.com/angelmondragon/nutritrack-backend/pkg/metrics"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type emptyReader struct{}

func (emptyReader) CountGoals(context.Context, uuid.UUID) (int64, error) { return 1, nil }
func (emptyReader) HasMealPlan(context.Context, uuid.UUID) (bool, error) { return true, nil }
func (emptyReader) LatestMealPlan(context.Context, uuid.UUID) (*nutrition.MealPlan, error) {
	return nil, nil
}
func (emptyReader) TodayProgress(context.Context, uuid.UUID, string) (*nutrition.Progress, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{Secret: "test-secret", Issuer: "nutritrack-test", ExpirationMinutes: 15},
	}
}

func buildToken(t *testing.T, cfg *config.Config, userID uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{UserID: userID})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func newTestRouter(t *testing.T, cfg *config.Config, pingers map[string]controllers.Pinger) (http.Handler, *notifications.Hub, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	hub, err := notifications.NewHub(notifications.HubParams{
		Reader:   emptyReader{},
		KV:       kv.NewMemory(),
		Logger:   logger.Nop(),
		Metrics:  metrics.NewNotificationMetrics(reg),
		Location: time.UTC,
		Interval: time.Hour,
		Now:      func() time.Time { return time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("new hub: %v", err)
	}
	t.Cleanup(func() { _ = hub.Close() })
	router := NewRouter(cfg, logger.Nop(), Dependencies{Hub: hub, Pingers: pingers, Registry: reg})
	return router, hub, reg
}

func serve(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestHealthLive(t *testing.T) {
	router, _, _ := newTestRouter(t, testConfig(), nil)
	resp := serve(router, http.MethodGet, "/health/live", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get("X-Nutritrack-Env") != "test" {
		t.Fatalf("expected env header, got %q", resp.Header().Get("X-Nutritrack-Env"))
	}
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	router, _, _ := newTestRouter(t, testConfig(), map[string]controllers.Pinger{
		"db":    stubPinger{},
		"redis": stubPinger{err: errors.New("down")},
	})
	resp := serve(router, http.MethodGet, "/health/ready", "", "")
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected dependency failure status got %d", resp.Code)
	}
}

func TestHealthReadyOK(t *testing.T) {
	router, _, _ := newTestRouter(t, testConfig(), map[string]controllers.Pinger{"db": stubPinger{}})
	resp := serve(router, http.MethodGet, "/health/ready", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAPIRejectsMissingJWT(t *testing.T) {
	router, _, _ := newTestRouter(t, testConfig(), nil)
	resp := serve(router, http.MethodGet, "/api/v1/notifications", "", "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestNotificationsRequireSession(t *testing.T) {
	cfg := testConfig()
	router, _, _ := newTestRouter(t, cfg, nil)
	resp := serve(router, http.MethodGet, "/api/v1/notifications", buildToken(t, cfg, uuid.New()), "")
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 before sign-in got %d", resp.Code)
	}
}

func TestSessionAndNotificationFlow(t *testing.T) {
	cfg := testConfig()
	router, hub, _ := newTestRouter(t, cfg, nil)
	userID := uuid.New()
	token := buildToken(t, cfg, userID)

	resp := serve(router, http.MethodPost, "/api/v1/session", token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("sign in: expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if !hub.SignedIn(userID) {
		t.Fatalf("expected hub to report user signed in")
	}

	resp = serve(router, http.MethodPost, "/api/v1/notifications", token, `{"id":"manual-1","message":"Hello","type":"system"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("add: expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	resp = serve(router, http.MethodPost, "/api/v1/notifications", token, `{"id":"manual-1","message":"Hello again","type":"system"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("duplicate add: expected 200 got %d", resp.Code)
	}
	var dup struct {
		Data struct {
			Accepted bool `json:"accepted"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &dup); err != nil {
		t.Fatalf("decode duplicate: %v", err)
	}
	if dup.Data.Accepted {
		t.Fatalf("expected duplicate id to be rejected")
	}

	resp = serve(router, http.MethodPost, "/api/v1/notifications/manual-1/read", token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("mark read: expected 200 got %d", resp.Code)
	}

	resp = serve(router, http.MethodPost, "/api/v1/notifications/read-all", token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("read all: expected 200 got %d", resp.Code)
	}
	var snap struct {
		Data notifications.Snapshot `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Data.UnreadCount != 0 {
		t.Fatalf("expected unread 0 after read-all got %d", snap.Data.UnreadCount)
	}

	resp = serve(router, http.MethodDelete, "/api/v1/session", token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("sign out: expected 200 got %d", resp.Code)
	}
	if hub.SignedIn(userID) {
		t.Fatalf("expected user signed out")
	}

	resp = serve(router, http.MethodGet, "/api/v1/notifications", token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("list after sign-out: expected 200 got %d", resp.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t, testConfig(), nil)
	resp := serve(router, http.MethodGet, "/metrics", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
