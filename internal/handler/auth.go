package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MaxAPIKeyBytes is the longest API key bcrypt can hash.
const MaxAPIKeyBytes = 72

const (
	bearerChallenge = `Bearer realm="quizreport"`
	basicChallenge  = `Basic realm="quizreport", charset="UTF-8"`
)

// hashAPIKey keeps only a bcrypt hash of the configured key in memory.
func hashAPIKey(key string) ([]byte, error) {
	if len(key) > MaxAPIKeyBytes {
		return nil, fmt.Errorf("API key is %d bytes, at most %d are allowed", len(key), MaxAPIKeyBytes)
	}
	return bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
}

// requireKey checks the configured API key. API clients send it as
// "Authorization: Bearer <key>"; browsers send it as the Basic auth password
// with any user name. challenge is sent back on 401.
func (h *Handler) requireKey(challenge string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if h.apiKeyHash == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := presentedKey(r)
			if key == "" {
				w.Header().Set("WWW-Authenticate", challenge)
				writeError(w, http.StatusUnauthorized, "missing API key")
				return
			}
			if err := bcrypt.CompareHashAndPassword(h.apiKeyHash, []byte(key)); err != nil {
				slog.Warn("rejected API key", "remote", r.RemoteAddr, "path", r.URL.Path)
				w.Header().Set("WWW-Authenticate", challenge)
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func presentedKey(r *http.Request) string {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return token
	}
	if _, password, ok := r.BasicAuth(); ok {
		return password
	}
	return ""
}
