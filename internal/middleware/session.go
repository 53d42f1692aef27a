package middleware

import (
	"net/http"
)

// SessionChecker сообщает о наличии сохранённой сессии.
type SessionChecker interface {
	IsAuthenticated() bool
}

// RequireSession не пропускает запрос дальше, если сессия основного API
// не установлена. Проверка локальная: достаточно наличия токена.
func RequireSession(sessions SessionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !sessions.IsAuthenticated() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"authentication required"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
