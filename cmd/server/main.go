package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jaehyeon1716/survey-sub000/internal/config"
	"github.com/jaehyeon1716/survey-sub000/internal/database"
	"github.com/jaehyeon1716/survey-sub000/internal/handler"
	"github.com/jaehyeon1716/survey-sub000/internal/logger"
	"github.com/jaehyeon1716/survey-sub000/internal/repository"
	"github.com/jaehyeon1716/survey-sub000/internal/router"
	"github.com/jaehyeon1716/survey-sub000/internal/service"
	"github.com/jaehyeon1716/survey-sub000/internal/validator"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Survey Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	adminRepo := repository.NewAdminRepository(pool)
	surveyRepo := repository.NewSurveyRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	participantRepo := repository.NewParticipantRepository(pool)
	responseRepo := repository.NewResponseRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	coordinator := service.NewRedisCoordinator(rdb, cfg.SubmitLockTTL, log)
	statsCache := service.NewRedisStatsCache(rdb, cfg.StatsCacheTTL, log)

	authService := service.NewAuthService(cfg, adminRepo)
	surveyService := service.NewSurveyService(surveyRepo, questionRepo, participantRepo, responseRepo, cfg.DeletePageSize, log)
	rosterService := service.NewRosterService(surveyRepo, participantRepo, responseRepo, log)
	submissionService := service.NewSubmissionService(surveyRepo, questionRepo, participantRepo, responseRepo, coordinator, log)
	statsService := service.NewStatsService(surveyRepo, questionRepo, participantRepo, responseRepo, statsCache, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:        handler.NewAuthHandler(authService, log),
		Survey:      handler.NewSurveyHandler(surveyService, log),
		Participant: handler.NewParticipantHandler(rosterService, log),
		Respond:     handler.NewRespondHandler(submissionService, log),
		Stats:       handler.NewStatsHandler(statsService, log),
		WS:          handler.NewWSHandler(rdb, surveyService, log, cfg.AllowedOrigins),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
