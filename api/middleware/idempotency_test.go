package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/angelmondragon/accounts-backend/pkg/errors"
)

type fakeStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key], _ = value.(string)
	return nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key], _ = value.(string)
	return true, nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func postWithKey(path, body, key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	return req.WithContext(WithUserID(req.Context(), "user-1"))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	return payload.Error.Code
}

func TestIdempotencyTTLSelection(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		want   time.Duration
		ok     bool
	}{
		{"contact submit", http.MethodPost, "/api/v1/contacts", defaultIdempotencyTTL, true},
		{"contact submit trailing slash", http.MethodPost, "/api/v1/contacts/", defaultIdempotencyTTL, true},
		{"private send", http.MethodPost, "/api/v1/messages", defaultIdempotencyTTL, true},
		{"contact respond", http.MethodPost, "/api/admin/v1/contacts/123/respond", criticalIdempotencyTTL, true},
		{"private reply", http.MethodPost, "/api/admin/v1/messages/456/reply", defaultIdempotencyTTL, true},
		{"send to user", http.MethodPost, "/api/admin/v1/users/abc/messages", defaultIdempotencyTTL, true},
		{"mark read", http.MethodPost, "/api/v1/messages/abc/read", 0, false},
		{"respond missing id", http.MethodPost, "/api/admin/v1/contacts//respond", 0, false},
		{"login", http.MethodPost, "/api/v1/auth/login", 0, false},
		{"list contacts", http.MethodGet, "/api/v1/contacts", 0, false},
	}
	for _, tt := range tests {
		ttl, ok := idempotencyTTL(tt.method, tt.path)
		if ok != tt.ok {
			t.Fatalf("%s: expected ok=%v got %v", tt.name, tt.ok, ok)
		}
		if ok && ttl != tt.want {
			t.Fatalf("%s: expected ttl=%v got %v", tt.name, tt.want, ttl)
		}
	}
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	called := false
	handler := Idempotency(newFakeStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, postWithKey("/api/v1/contacts", `{"subject":"سوال"}`, ""))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if called {
		t.Fatalf("handler should not run without idempotency key")
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	calls := 0
	handler := Idempotency(newFakeStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"status":"pending"}}`))
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, postWithKey("/api/v1/contacts", `{"subject":"سوال"}`, "abc"))
	if first.Code != http.StatusCreated {
		t.Fatalf("expected first response 201 got %d", first.Code)
	}

	replay := httptest.NewRecorder()
	handler.ServeHTTP(replay, postWithKey("/api/v1/contacts", `{"subject":"سوال"}`, "abc"))
	if replay.Code != http.StatusCreated {
		t.Fatalf("expected replay status 201 got %d", replay.Code)
	}
	if replay.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected content type preserved")
	}
	if replay.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("expected replay marker header")
	}
	if replay.Body.String() != `{"data":{"status":"pending"}}` {
		t.Fatalf("expected stored body got %s", replay.Body.String())
	}
	if calls != 1 {
		t.Fatalf("handler executed %d times, expected 1", calls)
	}
}

func TestIdempotencyKeysAreScopedPerUser(t *testing.T) {
	calls := 0
	handler := Idempotency(newFakeStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("/api/v1/messages", `{}`, "shared"))
	other := postWithKey("/api/v1/messages", `{}`, "shared")
	other = other.WithContext(WithUserID(other.Context(), "user-2"))
	handler.ServeHTTP(httptest.NewRecorder(), other)

	if calls != 2 {
		t.Fatalf("expected both users to run the handler, got %d calls", calls)
	}
}

func TestIdempotencyRejectsBodyChange(t *testing.T) {
	handler := Idempotency(newFakeStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("/api/v1/contacts", `{"subject":"a"}`, "xyz"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, postWithKey("/api/v1/contacts", `{"subject":"b"}`, "xyz"))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("expected error code %s got %s", pkgerrors.CodeIdempotency, code)
	}
}

func TestIdempotencyRejectsInFlightDuplicate(t *testing.T) {
	store := newFakeStore()
	var inner *httptest.ResponseRecorder
	var handler http.Handler
	handler = Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if inner == nil {
			inner = httptest.NewRecorder()
			handler.ServeHTTP(inner, postWithKey("/api/admin/v1/contacts/c1/respond", `{"response":"پاسخ"}`, "dup"))
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, postWithKey("/api/admin/v1/contacts/c1/respond", `{"response":"پاسخ"}`, "dup"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec.Code)
	}
	if inner.Code != http.StatusConflict {
		t.Fatalf("expected concurrent duplicate to be rejected, got %d", inner.Code)
	}
}

func TestIdempotencyReleasesKeyOnServerError(t *testing.T) {
	store := newFakeStore()
	status := http.StatusServiceUnavailable
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(status)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("/api/v1/messages", `{}`, "retry"))
	status = http.StatusCreated
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, postWithKey("/api/v1/messages", `{}`, "retry"))

	if rec.Code != http.StatusCreated || calls != 2 {
		t.Fatalf("expected retry after 5xx to run again, got %d after %d calls", rec.Code, calls)
	}
}

func TestIdempotencyIgnoresOtherRoutes(t *testing.T) {
	called := false
	handler := Idempotency(newFakeStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/messages", nil))
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected passthrough, got %d", rec.Code)
	}
}
