package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/regbot/models"
)

// identityKey is the gin context key holding the caller's key fingerprint.
const identityKey = "api_key"

// Auth returns API-key authentication middleware. The key is read from
// X-API-Key or from "Authorization: Bearer <key>". Only digests of the
// configured keys are kept; the request identity set on the context is a
// short fingerprint, never the key itself.
//
// If apiKeys is empty, the middleware is a no-op.
func Auth(apiKeys []string) gin.HandlerFunc {
	known := make(map[[sha256.Size]byte]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			known[sha256.Sum256([]byte(k))] = struct{}{}
		}
	}
	if len(known) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := requestKey(c.Request)
		if key == "" {
			abort(c, http.StatusUnauthorized, models.ErrCodeUnauthorized,
				"missing API key: send X-API-Key or Authorization: Bearer <key>")
			return
		}
		sum := sha256.Sum256([]byte(key))
		if _, ok := known[sum]; !ok {
			abort(c, http.StatusUnauthorized, models.ErrCodeUnauthorized, "invalid API key")
			return
		}

		c.Set(identityKey, hex.EncodeToString(sum[:6]))
		c.Next()
	}
}

func requestKey(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error: models.NewRunError(code, msg, nil).ToDetail(),
	})
}
