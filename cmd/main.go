package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mkarlberg/slotbase-backend/internal/db"
	"github.com/mkarlberg/slotbase-backend/internal/handlers"
	"github.com/mkarlberg/slotbase-backend/internal/jobs"
	"github.com/mkarlberg/slotbase-backend/internal/logger"
	"github.com/mkarlberg/slotbase-backend/internal/middleware"
	"github.com/mkarlberg/slotbase-backend/internal/repos"
	"github.com/mkarlberg/slotbase-backend/internal/server"
	"github.com/mkarlberg/slotbase-backend/internal/services"
	"github.com/mkarlberg/slotbase-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	pollInterval := utils.GetEnvAsDuration("DELETION_POLL_INTERVAL", 5*time.Second, log)
	staleCutoff := utils.GetEnvAsDuration("STALE_JOB_CUTOFF", 10*time.Minute, log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	deletionJobRepo := repos.NewDeletionJobRepo(thePG, log)
	purgeRepo := repos.NewPurgeRepo(thePG, log)
	tenantRepo := repos.NewTenantRepo(thePG, log)
	userRepo := repos.NewUserRepo(thePG, log)
	membershipRepo := repos.NewTenantMembershipRepo(thePG, log)
	refreshTokenRepo := repos.NewRefreshTokenRepo(thePG, log)

	// Audit outbox
	auditEmitter, err := services.NewRedisAuditEmitter(log)
	if err != nil {
		log.Warn("Redis audit emitter unavailable, audit events will be dropped", "error", err)
		auditEmitter = services.NewNoopAuditEmitter(log)
	}

	// Job system
	log.Info("Setting up deletion job system from main...")
	planner := jobs.NewPlanner(log, purgeRepo, tenantRepo, userRepo, membershipRepo, refreshTokenRepo)
	executor := jobs.NewExecutor(thePG, log, deletionJobRepo, planner)
	worker := jobs.NewWorker(thePG, log, deletionJobRepo, executor, auditEmitter, pollInterval)
	sweeper := jobs.NewSweeper(thePG, log, deletionJobRepo, staleCutoff)

	// Services
	deletionJobService := services.NewDeletionJobService(thePG, log, deletionJobRepo, tenantRepo, userRepo, membershipRepo)

	// Handlers / middleware / router
	log.Info("Setting up router from main...")
	deletionHandler := handlers.NewDeletionHandler(deletionJobService)
	authMiddleware := middleware.NewAuthMiddleware(log, jwtSecretKey)
	router := server.NewRouter(server.RouterConfig{
		AuthMiddleware:  authMiddleware,
		DeletionHandler: deletionHandler,
		AllowOrigins:    splitOrigins(utils.GetEnv("CORS_ALLOW_ORIGINS", "", log)),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker.Start(ctx)
	if err := sweeper.Start(); err != nil {
		log.Error("Failed to start stale job sweeper", "error", err)
		os.Exit(1)
	}

	port := utils.GetEnv("PORT", "8080", log)
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down...")
		worker.Stop()
		sweeper.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func splitOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
