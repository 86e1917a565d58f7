package habits

import (
	"github.com/gin-gonic/gin"
)

// RouteGuards are the middleware the habit routes need from the caller.
type RouteGuards struct {
	RequireAuth  gin.HandlerFunc
	OptionalAuth gin.HandlerFunc
	LimitWrites  gin.HandlerFunc
}

func RegisterRoutes(router *gin.RouterGroup, service *Service, guards RouteGuards) {
	handler := NewHandler(service)

	write := []gin.HandlerFunc{guards.RequireAuth}
	if guards.LimitWrites != nil {
		write = append(write, guards.LimitWrites)
	}
	withWrite := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, write...), h)
	}

	habits := router.Group("/habits")
	{
		// Public
		habits.GET("/public", handler.ListPublic)
		habits.GET("/featured", handler.Featured)
		habits.GET("/user/:email", handler.ListByOwner)
		habits.GET("/:id", guards.OptionalAuth, handler.Get)
		habits.GET("/:id/progress", guards.OptionalAuth, handler.Progress)

		// Owner only
		habits.POST("", withWrite(handler.Create)...)
		habits.PUT("/:id", withWrite(handler.Update)...)
		habits.PATCH("/:id", withWrite(handler.Update)...)
		habits.PATCH("/:id/complete", withWrite(handler.Complete)...)
		habits.DELETE("/:id", withWrite(handler.Delete)...)
	}
}
