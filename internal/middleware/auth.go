package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xyz-asif/habitstreak/internal/features/auth"
	"github.com/xyz-asif/habitstreak/internal/pkg/response"
)

// RequireCaller rejects requests without a verifiable bearer token.
func RequireCaller(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			response.Unauthorized(c, "Authorization header required", "AUTH_REQUIRED")
			c.Abort()
			return
		}

		caller, err := verifier.Verify(c.Request.Context(), raw)
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token", "INVALID_TOKEN")
			c.Abort()
			return
		}

		auth.SetCaller(c, caller)
		c.Next()
	}
}

// OptionalCaller attaches a caller when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalCaller(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := bearerToken(c.GetHeader("Authorization")); raw != "" {
			if caller, err := verifier.Verify(c.Request.Context(), raw); err == nil {
				auth.SetCaller(c, caller)
			}
		}
		c.Next()
	}
}

// bearerToken supports both "Bearer <token>" (case-insensitive) and a raw token
func bearerToken(header string) string {
	fields := strings.Fields(header)
	switch {
	case len(fields) == 2 && strings.EqualFold(fields[0], "Bearer"):
		return fields[1]
	case len(fields) == 1:
		return fields[0]
	default:
		return ""
	}
}
