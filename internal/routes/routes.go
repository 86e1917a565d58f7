package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/xyz-asif/habitstreak/internal/config"
	"github.com/xyz-asif/habitstreak/internal/features/auth"
	"github.com/xyz-asif/habitstreak/internal/features/habits"
	"github.com/xyz-asif/habitstreak/internal/features/media"
	"github.com/xyz-asif/habitstreak/internal/features/users"
	"github.com/xyz-asif/habitstreak/internal/middleware"
	"github.com/xyz-asif/habitstreak/internal/pkg/ratelimit"
	"github.com/xyz-asif/habitstreak/internal/pkg/response"
)

// Deps are the services built in main. Optional ones may be nil.
type Deps struct {
	Config   *config.Config
	Habits   *habits.Service
	Profiles users.Store
	Verifier auth.Verifier
	Dev      *auth.DevTokenVerifier
	Uploader media.ImageUploader
	Limiter  *ratelimit.RateLimiter
	Health   func(ctx context.Context) error
}

// NewRouter builds the engine with global middleware, health, swagger and the API.
func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(deps.Config.FrontendURL))

	router.GET("/health", healthHandler(deps))

	router.GET(
		"/swagger/*any",
		ginSwagger.WrapHandler(
			swaggerFiles.Handler,
			ginSwagger.URL("/swagger/doc.json"),
			ginSwagger.DeepLinking(true),
			ginSwagger.DefaultModelsExpandDepth(-1),
			ginSwagger.DocExpansion("none"),
			ginSwagger.PersistAuthorization(true),
		),
	)

	SetupRoutes(router, deps)
	return router
}

func SetupRoutes(router *gin.Engine, deps Deps) {
	api := router.Group("/api/v1")

	requireAuth := middleware.RequireCaller(deps.Verifier)
	optionalAuth := middleware.OptionalCaller(deps.Verifier)

	var limitWrites gin.HandlerFunc
	var loginGuards []gin.HandlerFunc
	if deps.Limiter != nil {
		limitWrites = ratelimit.CallerMiddleware(deps.Limiter)
		loginGuards = append(loginGuards, ratelimit.Middleware(deps.Limiter))
	}

	auth.RegisterRoutes(api, deps.Dev, requireAuth, loginGuards...)
	habits.RegisterRoutes(api, deps.Habits, habits.RouteGuards{
		RequireAuth:  requireAuth,
		OptionalAuth: optionalAuth,
		LimitWrites:  limitWrites,
	})

	if deps.Profiles != nil {
		users.RegisterRoutes(api, deps.Profiles, requireAuth)
	}

	mediaGuards := []gin.HandlerFunc{requireAuth}
	if limitWrites != nil {
		mediaGuards = append(mediaGuards, limitWrites)
	}
	media.RegisterRoutes(api, deps.Uploader, mediaGuards...)
}

func healthHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := "memory"
		if deps.Health != nil {
			store = "mongo"
			if err := deps.Health(c.Request.Context()); err != nil {
				response.ServiceUnavailable(c, "Database unavailable", "DB_UNAVAILABLE")
				return
			}
		}
		response.Success(c, gin.H{
			"status": "ok",
			"store":  store,
			"time":   time.Now().Unix(),
		})
	}
}
