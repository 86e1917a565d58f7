package auth

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the auth routes.
// requireAuth is passed in because the middleware package depends on this one.
// loginGuards run before dev-login, typically an IP rate limit.
func RegisterRoutes(router *gin.RouterGroup, dev *DevTokenVerifier, requireAuth gin.HandlerFunc, loginGuards ...gin.HandlerFunc) {
	handler := NewHandler(dev)

	auth := router.Group("/auth")
	{
		auth.POST("/dev-login", append(loginGuards, handler.DevLogin)...)
		auth.GET("/me", requireAuth, handler.Me)
	}
}
