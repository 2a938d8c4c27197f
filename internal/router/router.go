package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jaehyeon1716/survey-sub000/internal/config"
	"github.com/jaehyeon1716/survey-sub000/internal/handler"
	"github.com/jaehyeon1716/survey-sub000/internal/middleware"
	"github.com/jaehyeon1716/survey-sub000/internal/response"
	"github.com/jaehyeon1716/survey-sub000/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth        *handler.AuthHandler
	Survey      *handler.SurveyHandler
	Participant *handler.ParticipantHandler
	Respond     *handler.RespondHandler
	Stats       *handler.StatsHandler
	WS          *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/admin/login", handlers.Auth.AdminLogin)
		auth.GET("/admin/me", middleware.RequireAdminJWT(authService), handlers.Auth.GetAdminProfile)
	}

	// ─── 2. Respond Group (Token in Path, Rate Limited) ────────────────
	respondLimiter := middleware.NewRateLimiter(60, time.Minute)
	respond := router.Group("/api/v1/respond")
	respond.Use(respondLimiter.Middleware())
	{
		respond.GET("/:access_token", handlers.Respond.GetSurveyForToken)
		respond.POST("/:access_token", handlers.Respond.SubmitResponses)
	}

	// ─── 3. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		adminAPI.GET("/surveys", handlers.Survey.ListSurveys)
		adminAPI.POST("/surveys", handlers.Survey.CreateSurvey)
		adminAPI.GET("/surveys/:survey_id", handlers.Survey.GetSurvey)
		adminAPI.PUT("/surveys/:survey_id", handlers.Survey.UpdateSurvey)
		adminAPI.DELETE("/surveys/:survey_id", handlers.Survey.DeleteSurvey)

		adminAPI.POST("/surveys/:survey_id/participants", handlers.Participant.LoadParticipants)
		adminAPI.GET("/surveys/:survey_id/participants", handlers.Participant.ListParticipants)

		adminAPI.GET("/surveys/:survey_id/stats", handlers.Stats.GetSurveyStats)
		adminAPI.GET("/surveys/:survey_id/export", handlers.Stats.ExportSurveyCSV)
	}

	// ─── 4. WebSocket Group (Admin WS Auth) ────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireAdminJWT(authService))
	{
		ws.GET("/admin/surveys/:survey_id/monitor", handlers.WS.MonitorSurvey)
	}

	return router
}
