package middleware

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
)

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		LoggerFrom(r.Context()).ErrorContext(r.Context(), "Failed to write middleware error response", slog.Any("error", err))
	}
}

// clientIP возвращает адрес клиента без порта. Заголовки X-Forwarded-For
// учитываются, только если routes подключил chi middleware.RealIP (TRUST_PROXY).
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
