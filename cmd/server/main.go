package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ikkim/qna-forum-backend/config"
	"github.com/ikkim/qna-forum-backend/internal/app/controller"
	"github.com/ikkim/qna-forum-backend/internal/app/repository"
	"github.com/ikkim/qna-forum-backend/internal/app/service"
	"github.com/ikkim/qna-forum-backend/internal/cache"
	"github.com/ikkim/qna-forum-backend/internal/db"
	"github.com/ikkim/qna-forum-backend/internal/middleware"
	"github.com/ikkim/qna-forum-backend/internal/router"
	"github.com/ikkim/qna-forum-backend/internal/scheduler"
	"github.com/ikkim/qna-forum-backend/internal/websocket"
	"github.com/ikkim/qna-forum-backend/pkg/logger"
	"github.com/ikkim/qna-forum-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := cfg.Log.Level
	if logLevel == "" {
		logLevel = "info"
		if cfg.Server.Environment == "development" {
			logLevel = "debug"
		}
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      cfg.Log.Format,
		EnableColor: cfg.Log.Format == "console",
		FilePath:    cfg.Log.FilePath,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
	})

	logger.Info("Starting Q&A forum server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis is optional; the reply cache falls back to an in-process LRU
	var redisClient *goredis.Client
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, using in-process reply cache", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			redisClient = redis.GetClient()
			defer redis.Close()
		}
	}

	replyCache, err := cache.New(cfg.Cache, redisClient)
	if err != nil {
		logger.Fatal("Failed to initialize reply cache", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	// Repositories
	conn := db.GetDB()
	voteRepo := repository.NewVoteRepository(conn)
	userRepo := repository.NewUserRepository(conn)
	postRepo := repository.NewPostRepository(conn, voteRepo)
	replyRepo := repository.NewReplyRepository(conn, voteRepo)

	// Services
	replyService := service.NewReplyService(replyRepo, postRepo, userRepo, voteRepo, replyCache, hub)
	postService := service.NewPostService(postRepo, replyRepo, userRepo, voteRepo, replyCache, hub)

	// Scheduler
	reconciler := scheduler.NewVoteReconcileScheduler(voteRepo, cfg.Scheduler.VoteReconcileSpec).WithReplyCache(replyCache)
	if err := reconciler.Start(); err != nil {
		logger.Fatal("Failed to start vote reconcile scheduler", err)
	}
	defer reconciler.Stop()

	r := router.NewRouter(
		controller.NewReplyController(replyService),
		controller.NewPostController(postService),
		controller.NewWebsocketController(hub, postService, cfg.CORS.AllowedOrigins),
		controller.NewHealthController(conn),
		middleware.NewAuthMiddleware(cfg.JWT.Secret),
		cfg,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	cancel()
	logger.Info("Server stopped successfully")
}
