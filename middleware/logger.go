package middleware

import (
	"context"
	"log/slog"
	"net/http"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

type loggerContextKey struct{}

// WithLogger кладёт logger в контекст запроса, добавляя request_id,
// если раньше подключён chi middleware.RequestID.
func WithLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := logger
			if reqID := chiMiddleware.GetReqID(r.Context()); reqID != "" {
				l = l.With(slog.String("request_id", reqID))
			}
			ctx := context.WithValue(r.Context(), loggerContextKey{}, l)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoggerFrom возвращает logger запроса или slog.Default() вне WithLogger.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerContextKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}
