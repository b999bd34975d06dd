package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

// CookieName is the operator session cookie.
const CookieName = "dwellwatch_auth"

// AuthToken derives the cookie value from the operator password, so changing
// the password logs everyone out.
func AuthToken(password string) string {
	mac := hmac.New(sha256.New, []byte(password))
	mac.Write([]byte("dwellwatch operator"))
	return hex.EncodeToString(mac.Sum(nil))
}

// Auth checks the operator cookie. Login, health and metrics endpoints are
// public. API requests without a valid cookie get 401, page requests are
// redirected to the login form.
func Auth(password string) func(http.Handler) http.Handler {
	token := AuthToken(password)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(CookieName)
			if err != nil || !hmac.Equal([]byte(cookie.Value), []byte(token)) {
				if strings.HasPrefix(r.URL.Path, "/api/") ||
					r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
					r.Header.Get("Content-Type") == "application/json" {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isPublic(path string) bool {
	switch path {
	case "/login", "/auth/login", "/healthz", "/metrics":
		return true
	}
	return false
}
