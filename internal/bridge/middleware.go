package bridge

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/ClaytonMcArthur/not-kahoot/internal/user"
)

type ctxKey int

const (
	ctxKeyUsername ctxKey = iota
	ctxKeyBody
)

// usernameMiddleware resolves the acting username for every game-operation
// endpoint, per spec §6.2's order: the request body's "username" field,
// then the X-Username header, then the subject of a bearer token. The raw
// body is buffered into the request context so handlers can still decode
// their own fields from it.
func usernameMiddleware(tokens *user.TokenSigner) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			r.Body.Close()

			username := usernameFromBody(body)
			if username == "" {
				username = r.Header.Get("X-Username")
			}
			if username == "" {
				username = usernameFromBearer(r, tokens)
			}
			if username == "" {
				writeError(w, http.StatusBadRequest, "could not resolve username")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUsername, username)
			ctx = context.WithValue(ctx, ctxKeyBody, body)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func usernameFromBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var v struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return ""
	}
	return v.Username
}

func usernameFromBearer(r *http.Request, tokens *user.TokenSigner) string {
	auth := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || raw == "" {
		return ""
	}
	claims, err := tokens.Verify(raw)
	if err != nil {
		return ""
	}
	return claims.Username
}

func usernameFrom(r *http.Request) string {
	u, _ := r.Context().Value(ctxKeyUsername).(string)
	return u
}

func bodyFrom(r *http.Request) []byte {
	b, _ := r.Context().Value(ctxKeyBody).([]byte)
	return b
}

func newStructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
