package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const callerKey = "caller"

// Caller is the verified identity making a request.
// The email is the only field used for authorization decisions.
type Caller struct {
	Email    string `json:"email" example:"ana@example.com"`
	Name     string `json:"name" example:"Ana Lima"`
	PhotoURL string `json:"photoUrl" example:"https://lh3.googleusercontent.com/a/photo.jpg"`
}

// Anonymous reports whether no identity is attached.
func (c Caller) Anonymous() bool {
	return NormalizeEmail(c.Email) == ""
}

// NormalizeEmail lowercases and trims an address so comparisons are stable.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SetCaller attaches a verified caller to the request context.
// "email" is also set for the request logger.
func SetCaller(c *gin.Context, caller Caller) {
	c.Set(callerKey, caller)
	c.Set("email", caller.Email)
}

// CallerFrom returns the caller attached by the auth middleware, or an anonymous caller.
func CallerFrom(c *gin.Context) Caller {
	if val, exists := c.Get(callerKey); exists {
		if caller, ok := val.(Caller); ok {
			return caller
		}
	}
	return Caller{}
}

// DevLoginRequest represents the payload for a development login
type DevLoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"ana@example.com"`
	Name     string `json:"name" binding:"omitempty,max=80" example:"Ana Lima"`
	PhotoURL string `json:"photoUrl" binding:"omitempty,url" example:"https://example.com/ana.png"`
}

// TokenResponse represents the response after a development login
type TokenResponse struct {
	Caller      Caller `json:"caller"`
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn" example:"86400"`
}
