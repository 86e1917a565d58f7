package users

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.RouterGroup, store Store, requireAuth gin.HandlerFunc) {
	handler := NewHandler(store)

	users := router.Group("/users")
	users.Use(requireAuth)
	{
		users.POST("", handler.Upsert)
		users.GET("/me", handler.Me)
	}
}
