package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/lenterailmu/ujian-backend/internal/config"
	"github.com/lenterailmu/ujian-backend/internal/database"
	"github.com/lenterailmu/ujian-backend/internal/handler"
	"github.com/lenterailmu/ujian-backend/internal/logger"
	"github.com/lenterailmu/ujian-backend/internal/repository"
	"github.com/lenterailmu/ujian-backend/internal/router"
	"github.com/lenterailmu/ujian-backend/internal/service"
	"github.com/lenterailmu/ujian-backend/internal/validator"
	"github.com/lenterailmu/ujian-backend/internal/worker"
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
		Msg("Starting Ujian Backend")

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
	userRepo := repository.NewUserRepository(pool)
	cohortRepo := repository.NewCohortRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	answerRepo := repository.NewAnswerRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	reportRepo := repository.NewReportRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	accessService := service.NewAccessService(cohortRepo)
	auditQueue := worker.NewAuditQueue(rdb)
	sessionService := service.NewSessionService(
		examRepo, sessionRepo, answerRepo, questionRepo,
		accessService, auditQueue, log,
	)
	scoringService := service.NewScoringService(examRepo, questionRepo, answerRepo)
	reportService := service.NewReportService(examRepo, reportRepo, answerRepo, auditRepo, scoringService)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:          handler.NewAuthHandler(authService, userRepo),
		StudentPortal: handler.NewStudentPortalHandler(sessionService, scoringService, questionRepo),
		TeacherExam:   handler.NewTeacherExamHandler(examRepo, questionRepo, cohortRepo),
		Report:        handler.NewReportHandler(reportService, examRepo, sessionRepo, auditRepo),
		WS:            handler.NewWSHandler(rdb, sessionService, scoringService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	auditWorker := worker.NewAuditWorker(auditRepo, rdb, log)
	expirySweeper := worker.NewExpirySweeper(sessionRepo, cfg.ExpirySweepInterval, log)

	go auditWorker.Start(workerCtx)
	go expirySweeper.Start(workerCtx)

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

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for the audit queue to drain.
	workerCancel()
	time.Sleep(2 * time.Second)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
