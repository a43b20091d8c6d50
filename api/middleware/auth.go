// Package middleware holds the gin middleware guarding the protected
// API routes.
package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/charscrape/models"
)

// KeyContext is the gin context key holding the authenticated API key.
const KeyContext = "api_key"

type errorBody struct {
	Success bool                `json:"success"`
	Error   *models.ErrorDetail `json:"error"`
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, errorBody{Error: &models.ErrorDetail{Code: code, Message: msg}})
}

// Auth accepts a key from either X-API-Key or Authorization: Bearer.
// With no keys configured every request passes.
func Auth(apiKeys []string) gin.HandlerFunc {
	var keys [][]byte
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}
	if len(keys) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := requestKey(c.Request)
		if key == "" {
			abort(c, http.StatusUnauthorized, models.ErrCodeUnauthorized,
				"missing API key: send X-API-Key or Authorization: Bearer <key>")
			return
		}
		if !knownKey(keys, key) {
			slog.Warn("auth: rejected api key", "client_ip", c.ClientIP(), "path", c.FullPath())
			abort(c, http.StatusUnauthorized, models.ErrCodeUnauthorized, "invalid API key")
			return
		}
		c.Set(KeyContext, key)
		c.Next()
	}
}

// knownKey compares against every key so timing does not reveal a match.
func knownKey(keys [][]byte, key string) bool {
	found := 0
	for _, k := range keys {
		found |= subtle.ConstantTimeCompare(k, []byte(key))
	}
	return found == 1
}

func requestKey(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
