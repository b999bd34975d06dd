package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := Auth("secret")(ok)

	tests := []struct {
		name     string
		path     string
		cookie   string
		expected int
	}{
		{"public login page", "/login", "", http.StatusOK},
		{"public metrics", "/metrics", "", http.StatusOK},
		{"api without cookie", "/api/sessions", "", http.StatusUnauthorized},
		{"page without cookie", "/logs/info", "", http.StatusSeeOther},
		{"forged cookie", "/api/sessions", "true", http.StatusUnauthorized},
		{"token for other password", "/api/sessions", AuthToken("other"), http.StatusUnauthorized},
		{"valid cookie", "/api/sessions", AuthToken("secret"), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CookieName, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, rec.Code)
			}
			if tt.expected == http.StatusSeeOther && rec.Header().Get("Location") != "/login" {
				t.Errorf("Expected redirect to /login, got %s", rec.Header().Get("Location"))
			}
		})
	}
}
