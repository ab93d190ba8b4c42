package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"achapi-coach/internal/handlers"
)

type fixedCompleter struct{ reply string }

func (f fixedCompleter) Complete(ctx context.Context, message string) (string, error) {
	return f.reply, nil
}

type keyRecorder struct {
	mu   sync.Mutex
	keys []string
}

func (k *keyRecorder) Allow(ctx context.Context, key string) (bool, error) {
	k.mu.Lock()
	k.keys = append(k.keys, key)
	k.mu.Unlock()
	return true, nil
}

type denyAll struct{}

func (denyAll) Allow(ctx context.Context, key string) (bool, error) { return false, nil }

func TestRouter_ChatAndHealth(t *testing.T) {
	h := New(zap.NewNop(), handlers.NewChatHandler(fixedCompleter{reply: "Hi there"}, nil), Options{})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hello"}`))
	req.Header.Set("Origin", "http://10.0.0.5:5173")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"reply":"Hi there"}`, rr.Body.String())
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestRouter_ProfilesUnmountedWithoutStore(t *testing.T) {
	h := New(zap.NewNop(), handlers.NewChatHandler(fixedCompleter{}, nil), Options{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/profiles", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_RateLimitAppliesToChat(t *testing.T) {
	h := New(zap.NewNop(), handlers.NewChatHandler(fixedCompleter{reply: "x"}, nil), Options{Limiter: denyAll{}})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hello"}`)))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code, "health is never limited")
}

func TestRouter_ServesUploads(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "users", "u1", "progressPhotos")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "front_1.png"), []byte("img"), 0o644))

	profiles := handlers.NewProfileHandler(nil, nil, nil)
	h := New(zap.NewNop(), handlers.NewChatHandler(fixedCompleter{}, nil), Options{ProfileHandler: profiles, StoragePath: root})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/uploads/users/u1/progressPhotos/front_1.png", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "img", rr.Body.String())
}

func TestRouter_UploadsNeverListDirectories(t *testing.T) {
	root := t.TempDir()
	for _, id := range []string{"11111111-1111-1111-1111-111111111111", "22222222-2222-2222-2222-222222222222"} {
		dir := filepath.Join(root, "users", id, "progressPhotos")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "front_1.png"), []byte("img"), 0o644))
	}

	profiles := handlers.NewProfileHandler(nil, nil, nil)
	h := New(zap.NewNop(), handlers.NewChatHandler(fixedCompleter{}, nil), Options{ProfileHandler: profiles, StoragePath: root})

	for _, path := range []string{
		"/uploads/",
		"/uploads/users/",
		"/uploads/users",
		"/uploads/users/11111111-1111-1111-1111-111111111111/progressPhotos/",
	} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusNotFound, rr.Code, path)
		assert.NotContains(t, rr.Body.String(), "11111111", path)
	}
}

func TestRouter_ProxyHeadersIgnoredUnlessTrusted(t *testing.T) {
	send := func(h http.Handler, forwarded string) {
		req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hello"}`))
		req.RemoteAddr = "203.0.113.7:40000"
		req.Header.Set("X-Forwarded-For", forwarded)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	keys := &keyRecorder{}
	h := New(zap.NewNop(), handlers.NewChatHandler(fixedCompleter{reply: "x"}, nil), Options{Limiter: keys})
	send(h, "198.51.100.1")
	send(h, "198.51.100.2")
	assert.Equal(t, []string{"203.0.113.7", "203.0.113.7"}, keys.keys, "rotating the header does not change the key")

	keys = &keyRecorder{}
	h = New(zap.NewNop(), handlers.NewChatHandler(fixedCompleter{reply: "x"}, nil), Options{Limiter: keys, TrustProxyHeaders: true})
	send(h, "198.51.100.1")
	assert.Equal(t, []string{"198.51.100.1"}, keys.keys)
}
