package api

import (
	"crypto/subtle"
	"log"
	"net/http"
)

// AuthMiddleware проверяет заголовок X-Dashboard-Token.
// Пустой настроенный токен отключает проверку (локальная разработка).
func AuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("X-Dashboard-Token")
			if authHeader == "" {
				http.Error(w, "Unauthorized: Missing X-Dashboard-Token header", http.StatusUnauthorized)
				return
			}
			if subtle.ConstantTimeCompare([]byte(authHeader), []byte(token)) != 1 {
				log.Printf("AuthMiddleware: Неверный токен дашборда с %s", r.RemoteAddr)
				http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
