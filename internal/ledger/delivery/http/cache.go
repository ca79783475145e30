package http

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"github.com/seytkalikov/stock-ledger/pkg/logger"
)

// CacheMiddleware caches successful GET responses in Redis with a TTL. Stock
// reads tolerate short staleness; writes always go to the database, and the
// TTL bounds how long a stale level can be served. Only the stock read
// endpoints are cached: /health must ping the database on every request and
// /metrics must never serve a frozen counter snapshot.
func CacheMiddleware(client *redis.Client, ttl time.Duration) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if client == nil || r.Method != http.MethodGet || !cacheablePath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			key := cacheKey(r)
			ctx := r.Context()

			cached, err := client.Get(ctx, key).Bytes()
			if err == nil && len(cached) > 0 {
				logger.Debug(ctx).Str("path", r.URL.Path).Str("cache_key", key).Msg("Cache hit")
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Cache", "HIT")
				w.Write(cached)
				return
			}

			recorder := &cachingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			recorder.Header().Set("X-Cache", "MISS")
			next.ServeHTTP(recorder, r)

			if recorder.statusCode == http.StatusOK && recorder.body.Len() > 0 {
				if err := client.Set(ctx, key, recorder.body.Bytes(), ttl).Err(); err != nil {
					logger.Warn(ctx).Err(err).Str("cache_key", key).Msg("Failed to cache response")
				}
			}
		})
	}
}

// cacheablePath limits caching to the stock read endpoints.
func cacheablePath(path string) bool {
	return strings.HasPrefix(path, "/api/stock")
}

func cacheKey(r *http.Request) string {
	sum := sha256.Sum256([]byte(r.Method + ":" + r.URL.RequestURI()))
	return fmt.Sprintf("stock-ledger:cache:%s", hex.EncodeToString(sum[:]))
}

// cachingResponseWriter tees the response body so it can be stored.
type cachingResponseWriter struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (w *cachingResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *cachingResponseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}
