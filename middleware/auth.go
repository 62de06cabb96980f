package middleware

import (
	"net/http"
	"strings"
)

// AdminCookieName - cookie с подписанным токеном сессии администратора.
const AdminCookieName = "admin_session"

type SessionValidator interface {
	ValidateSession(token string) error
}

// RequireAdmin пропускает запрос только с действующей сессией администратора.
// Токен берётся из cookie, а при её отсутствии из заголовка Authorization: Bearer.
func RequireAdmin(validator SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				writeError(w, r, http.StatusUnauthorized, "admin session required")
				return
			}
			if err := validator.ValidateSession(token); err != nil {
				writeError(w, r, http.StatusUnauthorized, err.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func sessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(AdminCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authHeader := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
