package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/colabhq/workspace-core/internal/apperr"
	"github.com/colabhq/workspace-core/internal/auth"
	"github.com/colabhq/workspace-core/internal/config"
	"github.com/colabhq/workspace-core/internal/events"
	"github.com/colabhq/workspace-core/internal/middleware"
	"github.com/colabhq/workspace-core/internal/models"
	"github.com/colabhq/workspace-core/internal/rbac"
	"github.com/colabhq/workspace-core/internal/repositories"
	"github.com/colabhq/workspace-core/internal/services"
)

// Fakes shared by the handler tests in this package.

type fakeBroadcaster struct {
	mu         sync.Mutex
	published  []events.Event
	channels   []string
	publishErr error
	membersErr error
	members    map[string][]string
}

func (f *fakeBroadcaster) Publish(_ context.Context, channel string, event events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.channels = append(f.channels, channel)
	f.published = append(f.published, event)
	return nil
}

func (f *fakeBroadcaster) MembersOf(_ context.Context, channel string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.membersErr != nil {
		return nil, f.membersErr
	}
	if m, ok := f.members[channel]; ok {
		return m, nil
	}
	return []string{}, nil
}

func (f *fakeBroadcaster) publishCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

type fakeAuditStore struct {
	mu        sync.Mutex
	inserted  []models.AuditEntry
	insertErr error
	results   []models.AuditEntry
	queryErr  error
}

func (f *fakeAuditStore) Insert(_ context.Context, entry models.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, entry)
	return nil
}

func (f *fakeAuditStore) Query(_ context.Context, filter repositories.AuditFilter) ([]models.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	n := len(f.results)
	if filter.Limit > 0 && filter.Limit < n {
		n = filter.Limit
	}
	return f.results[:n], nil
}

func (f *fakeAuditStore) entriesWithAction(action string) []models.AuditEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AuditEntry
	for _, e := range f.inserted {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	app         *fiber.App
	cfg         *config.Config
	broadcaster *fakeBroadcaster
	store       *fakeAuditStore
	audit       *services.AuditService
}

// newTestEnv wires the real guard chain and services over fakes,
// mirroring the production route composition.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:          "test-secret",
		AuthCookieName:     "ws_access_token",
		AuditWriteTimeout:  time.Second,
		AuditQueryMaxLimit: 200,
	}
	log := zap.NewNop()
	broadcaster := &fakeBroadcaster{}
	store := &fakeAuditStore{}

	auditService := services.NewAuditService(store, cfg, log)
	presenceService := services.NewPresenceService(broadcaster, log)

	auditHandler := NewAuditHandler(auditService, log)
	presenceHandler := NewPresenceHandler(presenceService, log)

	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler(log)})
	protected := app.Group("/api/v1", middleware.Authenticated(cfg, log))
	protected.Get("/audit",
		middleware.RequireAnyPermission(rbac.PermAuditRead, rbac.PermAdminAccess),
		auditHandler.List)
	protected.Post("/presence/typing",
		middleware.RequirePermission(rbac.PermPresenceBroadcast),
		presenceHandler.Typing)
	protected.Get("/presence/workspaces/:id/members",
		middleware.RequirePermission(rbac.PermWorkspaceView),
		presenceHandler.Members)

	return &testEnv{app: app, cfg: cfg, broadcaster: broadcaster, store: store, audit: auditService}
}

func (e *testEnv) token(t *testing.T, role string) string {
	t.Helper()
	token, err := auth.GenerateToken(e.cfg.JWTSecret, uuid.New(), "Test User", role, time.Hour)
	require.NoError(t, err)
	return token
}

func typingRequest(t *testing.T, token string, body map[string]any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/presence/typing", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestTypingUnauthenticated(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(typingRequest(t, "", map[string]any{"workspace_id": "abc"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Zero(t, env.broadcaster.publishCount())
}

// A viewer holds a valid token but not presence.broadcast: 403, no
// broadcast, and no audit entry either (typing is audit-exempt and
// the denied action never ran).
func TestTypingForbiddenForViewer(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(typingRequest(t, env.token(t, rbac.RoleViewer), map[string]any{
		"workspace_id": "abc",
		"channel_id":   "general",
		"is_typing":    true,
	}))
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Zero(t, env.broadcaster.publishCount())
	env.audit.Drain()
	assert.Empty(t, env.store.entriesWithAction("typing"))
}

// Editor with no workspace_id: 400, and the broadcaster is never
// touched.
func TestTypingMissingWorkspaceID(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(typingRequest(t, env.token(t, rbac.RoleEditor), map[string]any{
		"channel_id": "general",
		"is_typing":  true,
	}))
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, env.broadcaster.publishCount())
}

func TestTypingPublishes(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(typingRequest(t, env.token(t, rbac.RoleEditor), map[string]any{
		"workspace_id": "abc",
		"channel_id":   "general",
		"is_typing":    true,
	}))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, env.broadcaster.publishCount())
	assert.Equal(t, "presence-workspace-abc", env.broadcaster.channels[0])
	assert.Equal(t, events.EventTyping, env.broadcaster.published[0].Name)
	assert.Equal(t, "general", env.broadcaster.published[0].Payload["channelId"])

	// Ephemeral signals leave no audit trail.
	env.audit.Drain()
	assert.Empty(t, env.store.entriesWithAction("typing"))
}

func TestTypingTransportFailure(t *testing.T) {
	env := newTestEnv(t)
	env.broadcaster.publishErr = errors.New("connection refused")

	resp, err := env.app.Test(typingRequest(t, env.token(t, rbac.RoleEditor), map[string]any{
		"workspace_id": "abc",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestMembersLookup(t *testing.T) {
	env := newTestEnv(t)
	env.broadcaster.members = map[string][]string{
		"presence-workspace-abc": {"u1", "u2"},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/presence/workspaces/abc/members", nil)
	req.Header.Set("Authorization", "Bearer "+env.token(t, rbac.RoleViewer))
	resp, err := env.app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		OK   bool `json:"ok"`
		Data struct {
			WorkspaceID string   `json:"workspace_id"`
			Members     []string `json:"members"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.OK)
	assert.Equal(t, "abc", body.Data.WorkspaceID)
	assert.ElementsMatch(t, []string{"u1", "u2"}, body.Data.Members)
}

// Transport failure on membership is 503: unavailable, not empty.
func TestMembersUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.broadcaster.membersErr = errors.New("i/o timeout")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/presence/workspaces/abc/members", nil)
	req.Header.Set("Authorization", "Bearer "+env.token(t, rbac.RoleViewer))
	resp, err := env.app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

// Guests cannot even read workspace presence.
func TestMembersForbiddenForGuest(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/presence/workspaces/abc/members", nil)
	req.Header.Set("Authorization", "Bearer "+env.token(t, rbac.RoleGuest))
	resp, err := env.app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
