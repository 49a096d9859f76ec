package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/anempire/anempire-web/internal/app"
	"github.com/anempire/anempire-web/internal/auth"
	"github.com/anempire/anempire-web/internal/blog"
	"github.com/anempire/anempire-web/internal/mailer"
	"github.com/anempire/anempire-web/internal/platform/cache"
	"github.com/anempire/anempire-web/internal/platform/db"
	"github.com/anempire/anempire-web/internal/shared"
	"github.com/anempire/anempire-web/internal/submissions"
	"github.com/anempire/anempire-web/internal/users"
	"github.com/anempire/anempire-web/internal/view"
	"github.com/anempire/anempire-web/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if err := db.Migrate(ctx, cfg.PGDSN); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, stats cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret, cfg.IsProduction())

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	jobsClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	tokens := auth.NewTokenIssuer(cfg.SessionSecret, cfg.SessionTTL)
	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, tokens)
	seeder := auth.NewSeeder(authService, logger, cfg.AdminBootstrapEmail, cfg.InitialAdminPassword)
	guard := auth.NewGuard(logger, authService, seeder)
	authHandler := auth.NewHandler(logger, authService, seeder, templates, csrfManager, jobsClient, cfg.AppBaseURL, cfg.IsProduction())

	usersHandler := users.NewHandler(logger, authService, templates, csrfManager, jobsClient, authHandler.ResetLinkFor, cfg.IsProduction())

	mailerService := mailer.NewService(mailer.NewResendClient(cfg.ResendAPIKey), mailer.NewLogRepository(pool), logger, cfg.EmailFrom)
	mailerHandler := mailer.NewHandler(logger, mailerService, jobsClient, templates, csrfManager, cfg.IsProduction())

	statsCache := submissions.NewStatsCache(redisClient, 5*time.Minute)
	submissionsRepo := submissions.NewPGRepository(pool)
	submissionsService := submissions.NewService(submissionsRepo, jobsClient, statsCache, logger, cfg.AdminNotifyEmail)
	submissionsHandler := submissions.NewHandler(logger, submissionsService, templates, csrfManager, cfg.IsProduction())

	blogStore := blog.NewStore(cfg.PostsDir)
	blogHandler := blog.NewHandler(logger, blogStore, templates, csrfManager, cfg.IsProduction())

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Templates:          templates,
		CSRFManager:        csrfManager,
		Guard:              guard,
		AuthHandler:        authHandler,
		UsersHandler:       usersHandler,
		SubmissionsHandler: submissionsHandler,
		BlogHandler:        blogHandler,
		MailerHandler:      mailerHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
