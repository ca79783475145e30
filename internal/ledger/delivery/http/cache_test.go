package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestCacheablePath(t *testing.T) {
	cases := map[string]bool{
		"/api/stock":              true,
		"/api/stock/1":            true,
		"/api/stock/1/movements":  true,
		"/api/stock/reconcile":    true,
		"/health":                 false,
		"/metrics":                false,
		"/swagger/index.html":     false,
		"/swagger/doc.json":       false,
	}
	for path, want := range cases {
		if got := cacheablePath(path); got != want {
			t.Errorf("cacheablePath(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestCacheMiddlewareExemptsOperationalEndpoints(t *testing.T) {
	// Unreachable address with a short dial timeout: exempted requests must
	// never touch Redis, cacheable ones tolerate it being down.
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 10 * time.Millisecond,
		ReadTimeout: 10 * time.Millisecond,
		MaxRetries:  -1,
	})

	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"success":true}`))
	})
	wrapped := CacheMiddleware(client, time.Minute)(next)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Header().Get("X-Cache") != "" {
			t.Errorf("request %d: expected /health to bypass the cache, got X-Cache=%q", i, rec.Header().Get("X-Cache"))
		}
	}
	if calls != 2 {
		t.Errorf("expected /health handler invoked on every request, got %d calls", calls)
	}

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stock", nil))
	if rec.Header().Get("X-Cache") != "MISS" {
		t.Errorf("expected stock read to go through the cache as MISS, got X-Cache=%q", rec.Header().Get("X-Cache"))
	}
	if calls != 3 {
		t.Errorf("expected stock handler invoked on miss, got %d calls", calls)
	}
}
