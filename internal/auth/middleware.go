package auth

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/your-org/casetrack/pkg/dto"
)

const (
	APIKeyHeader    = "X-API-Key"
	SubmitterHeader = "X-Submitted-By"
	submitterKey    = "submitter"
)

// Error kinds reported in dto.ErrorResponse when a request is rejected.
const (
	KindUnauthorized = "unauthorized"
	KindForbidden    = "forbidden"
)

// APIKeyMiddleware rejects requests whose X-API-Key does not match apiKey.
// An empty apiKey disables the check.
func APIKeyMiddleware(apiKey string) gin.HandlerFunc {
	want := []byte(apiKey)
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}

		provided := c.GetHeader(APIKeyHeader)
		if provided == "" {
			reject(c, http.StatusUnauthorized, KindUnauthorized, "missing API key")
			return
		}
		if subtle.ConstantTimeCompare([]byte(provided), want) != 1 {
			reject(c, http.StatusForbidden, KindForbidden, "invalid API key")
			return
		}
		c.Next()
	}
}

func reject(c *gin.Context, status int, kind, msg string) {
	slog.Debug("request rejected", "path", c.Request.URL.Path, "remote", c.ClientIP(), "kind", kind)
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Error: msg, Kind: kind})
}

// SubmitterMiddleware stores the caller identity supplied by the
// authentication front end. Credentials are checked by APIKeyMiddleware.
func SubmitterMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s := strings.TrimSpace(c.GetHeader(SubmitterHeader)); s != "" {
			c.Set(submitterKey, s)
		}
		c.Next()
	}
}

// Submitter returns the identity set by SubmitterMiddleware, or "".
func Submitter(c *gin.Context) string {
	return c.GetString(submitterKey)
}
