package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/accounts-backend/api/controllers"
	"github.com/angelmondragon/accounts-backend/internal/contacts"
	"github.com/angelmondragon/accounts-backend/internal/messages"
	"github.com/angelmondragon/accounts-backend/internal/notifications"
	"github.com/angelmondragon/accounts-backend/internal/threads"
	"github.com/angelmondragon/accounts-backend/internal/users"
	pkgAuth "github.com/angelmondragon/accounts-backend/pkg/auth"
	"github.com/angelmondragon/accounts-backend/pkg/auth/session"
	"github.com/angelmondragon/accounts-backend/pkg/config"
	"github.com/angelmondragon/accounts-backend/pkg/db/dbtest"
	"github.com/angelmondragon/accounts-backend/pkg/db/models"
	"github.com/angelmondragon/accounts-backend/pkg/enums"
	"github.com/angelmondragon/accounts-backend/pkg/jalali"
	"github.com/angelmondragon/accounts-backend/pkg/logger"
	"github.com/angelmondragon/accounts-backend/pkg/metrics"
)

// memoryCache is an in-process stand-in for the Redis client.
type memoryCache struct {
	mu     sync.Mutex
	values map[string]string
	counts map[string]int64
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]string{}, counts: map[string]int64{}}
}

func (c *memoryCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[key], nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value.(string)
	return nil
}

func (c *memoryCache) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.values[key]; ok {
		return false, nil
	}
	c.values[key] = value.(string)
	return true, nil
}

func (c *memoryCache) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (c *memoryCache) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.values, k)
	}
	return nil
}

func (c *memoryCache) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[key]++
	return c.counts[key], nil
}

func (c *memoryCache) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	count, _ := c.IncrWithTTL(ctx, scope, window)
	return count <= limit, count, nil
}

type stubSessions struct{}

func (stubSessions) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type harness struct {
	cfg    *config.Config
	router http.Handler
	db     *gorm.DB
	user   *models.User
	admin  *models.User
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
		AuthRateLimit: config.AuthRateLimitConfig{APIWindow: time.Minute, APILimit: 1000},
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testConfig()
	logg := logger.New(logger.Options{ServiceName: "test-routing", Output: io.Discard})
	client := dbtest.Client(t)
	conn := client.DB()

	userRepo := users.NewRepository(conn)
	msgRepo := messages.NewRepository(conn)
	contactRepo := contacts.NewRepository(conn)
	cal := jalali.New(time.UTC)

	usersSvc, err := users.NewService(users.ServiceParams{Repo: userRepo, Messages: msgRepo, Contacts: contactRepo, Calendar: cal})
	require.NoError(t, err)
	msgSvc, err := messages.NewService(messages.ServiceParams{Repo: msgRepo, Users: userRepo})
	require.NoError(t, err)
	contactSvc, err := contacts.NewService(contacts.ServiceParams{DB: client, Repo: contactRepo, Messages: msgRepo, Users: userRepo})
	require.NoError(t, err)
	threadSvc, err := threads.NewService(threads.ServiceParams{
		Messages:      msgRepo,
		Contacts:      contactRepo,
		Users:         userRepo,
		ReadMarker:    msgSvc,
		ContactViewer: contactSvc,
	})
	require.NoError(t, err)
	notifySvc, err := notifications.NewService(notifications.NewRepository(conn), usersSvc)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	router := NewRouter(cfg, logg, Dependencies{
		Ready:         map[string]controllers.Pinger{"db": client},
		Cache:         newMemoryCache(),
		Sessions:      stubSessions{},
		Accounts:      userRepo,
		Gatherer:      registry,
		Metrics:       metrics.NewHTTPMetrics(registry),
		Views:         controllers.NewViews(cal, config.MediaConfig{}),
		Users:         usersSvc,
		Contacts:      contactSvc,
		Messages:      msgSvc,
		Threads:       threadSvc,
		Notifications: notifySvc,
	})

	return &harness{
		cfg:    cfg,
		router: router,
		db:     conn,
		user:   seedUser(t, conn, "ali", "0012345678", false),
		admin:  seedUser(t, conn, "admin", "0098765432", true),
	}
}

func seedUser(t *testing.T, conn *gorm.DB, username, code string, staff bool) *models.User {
	t.Helper()
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		FirstName:    username,
		LastName:     "Tester",
		NationalCode: code,
		UserType:     enums.UserTypeNormal,
		IsStaff:      staff,
		IsActive:     true,
	}
	require.NoError(t, conn.Create(u).Error)
	return u
}

func (h *harness) token(t *testing.T, u *models.User) string {
	t.Helper()
	role := enums.ActorRoleUser
	if u.IsStaff {
		role = enums.ActorRoleStaff
	}
	token, err := pkgAuth.MintAccessToken(h.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   u.ID,
		Username: u.Username,
		Role:     role,
		UserType: u.UserType,
		JTI:      session.NewAccessID(),
	})
	require.NoError(t, err)
	return token
}

func (h *harness) do(t *testing.T, method, path string, as *models.User, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+h.token(t, as))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return envelope.Data
}

func idemKey() map[string]string {
	return map[string]string{"Idempotency-Key": uuid.NewString()}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/api/ping", nil, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminGroupRequiresStaffRole(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/admin/ping", h.user, nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/admin/ping", h.admin, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"scope":"admin"`)
	assert.Contains(t, rec.Body.String(), `"role":"staff"`)
}

func TestDeactivatedUserLosesAccess(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/ping", h.user, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/admin/v1/users/"+h.user.ID.String()+"/toggle-active", h.admin, nil, idemKey())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(t, http.MethodGet, "/api/ping", h.user, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/admin/v1/users/"+h.user.ID.String()+"/toggle-active", h.admin, nil, idemKey())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(t, http.MethodGet, "/api/ping", h.user, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/health/ready", nil, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	h.do(t, http.MethodGet, "/api/ping", h.user, nil, nil)
	rec = h.do(t, http.MethodGet, "/metrics", nil, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestMutatingRoutesRequireIdempotencyKey(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodPost, "/api/v1/contacts", h.user, map[string]string{"subject": "s", "message": "m"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContactSubmitReplaysOnSameKey(t *testing.T) {
	h := newHarness(t)
	headers := idemKey()
	body := map[string]string{"subject": "سوال", "message": "متن سوال"}

	first := h.do(t, http.MethodPost, "/api/v1/contacts", h.user, body, headers)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	second := h.do(t, http.MethodPost, "/api/v1/contacts", h.user, body, headers)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))

	var count int64
	require.NoError(t, h.db.Model(&models.ContactMessage{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestContactRoundTripOverHTTP(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/v1/contacts", h.user, map[string]string{"subject": "سوال", "message": "متن سوال"}, idemKey())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	contact := decode[contacts.ContactDTO](t, rec)
	assert.Equal(t, "pending", contact.Status)

	rec = h.do(t, http.MethodGet, "/api/admin/v1/contacts/"+contact.ID.String(), h.admin, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "read", decode[controllers.ContactDetailView](t, rec).Contact.Status)

	rec = h.do(t, http.MethodPost, "/api/admin/v1/contacts/"+contact.ID.String()+"/respond", h.admin, map[string]string{"response": "پاسخ"}, idemKey())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "replied", decode[contacts.ContactDTO](t, rec).Status)

	rec = h.do(t, http.MethodPost, "/api/admin/v1/contacts/"+contact.ID.String()+"/respond", h.admin, map[string]string{"response": "دوباره"}, idemKey())
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/v1/notifications/unread-count", h.user, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[map[string]int64](t, rec)["unread_count"])

	rec = h.do(t, http.MethodGet, "/api/v1/messages", h.user, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	inbox := decode[controllers.InboxView](t, rec)
	require.Len(t, inbox.Messages, 2)
	response := inbox.Messages[0]
	assert.True(t, response.IsFromAdmin)
	assert.Equal(t, "پاسخ", response.Content)

	rec = h.do(t, http.MethodGet, "/api/v1/messages/"+response.ID.String(), h.user, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	detail := decode[controllers.MessageDetailView](t, rec)
	require.Len(t, detail.Thread, 2)
	assert.Equal(t, "متن سوال", detail.Thread[0].Content)
	assert.Equal(t, "پاسخ", detail.Thread[1].Content)

	rec = h.do(t, http.MethodGet, "/api/v1/notifications/unread-count", h.user, nil, nil)
	assert.Equal(t, int64(0), decode[map[string]int64](t, rec)["unread_count"])
}

func TestPrivateMessagingOverHTTP(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/v1/messages", h.user, map[string]string{"subject": "سلام", "content": "یک سوال دارم"}, idemKey())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sent := decode[messages.MessageDTO](t, rec)
	assert.True(t, sent.IsRead)

	rec = h.do(t, http.MethodGet, "/api/admin/v1/messages", h.admin, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[controllers.MessageListView](t, rec).Messages, 1)

	rec = h.do(t, http.MethodPost, "/api/admin/v1/messages/"+sent.ID.String()+"/reply", h.admin, map[string]string{"content": "بفرمایید"}, idemKey())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reply := decode[messages.MessageDTO](t, rec)
	assert.Equal(t, "پاسخ به: سلام", reply.Subject)

	rec = h.do(t, http.MethodGet, "/api/v1/messages/private", h.user, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	thread := decode[map[string][]messages.MessageDTO](t, rec)["thread"]
	require.Len(t, thread, 2)
	assert.Equal(t, sent.ID, thread[0].ID)
	assert.Equal(t, reply.ID, thread[1].ID)

	rec = h.do(t, http.MethodPost, "/api/admin/v1/users/"+h.user.ID.String()+"/messages", h.user, map[string]string{"subject": "s", "content": "c"}, idemKey())
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminDashboardOverHTTP(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/api/v1/contacts", h.user, map[string]string{"subject": "s", "message": "m"}, idemKey())

	rec := h.do(t, http.MethodGet, "/api/admin/v1/dashboard", h.admin, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	overview := decode[controllers.OverviewView](t, rec)
	assert.Equal(t, int64(2), overview.Users.Total)
	assert.Equal(t, int64(1), overview.PendingCount)
	assert.Len(t, overview.Contacts, 1)
}
