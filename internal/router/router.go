package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ikkim/qna-forum-backend/config"
	"github.com/ikkim/qna-forum-backend/internal/app/controller"
	"github.com/ikkim/qna-forum-backend/internal/middleware"
	"github.com/ikkim/qna-forum-backend/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	replyController     *controller.ReplyController
	postController      *controller.PostController
	websocketController *controller.WebsocketController
	healthController    *controller.HealthController
	authMiddleware      *middleware.AuthMiddleware
	writeLimiter        *middleware.WriteRateLimiter
	config              *config.Config
}

func NewRouter(
	replyController *controller.ReplyController,
	postController *controller.PostController,
	websocketController *controller.WebsocketController,
	healthController *controller.HealthController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		replyController:     replyController,
		postController:      postController,
		websocketController: websocketController,
		healthController:    healthController,
		authMiddleware:      authMiddleware,
		writeLimiter:        middleware.NewWriteRateLimiter(cfg.RateLimit.WritesPerMinute),
		config:              cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)
	if err := middleware.RegisterValidators(); err != nil {
		logger.Fatal("Failed to register request validators", err)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	if r.config.Server.MetricsEnabled {
		router.Use(middleware.MetricsMiddleware())
	}
	router.Use(cors.New(corsConfig(r.config.CORS.AllowedOrigins)))

	router.GET("/health", r.healthController.Health)
	if r.config.Server.MetricsEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	auth := r.authMiddleware.Authenticate()
	write := r.writeLimiter.Middleware()

	v1 := router.Group("/api/v1")
	{
		replies := v1.Group("/replies")
		{
			replies.GET("/post/:id", r.replyController.ListByPost)
			replies.GET("/user/:userId", r.replyController.ListByUser)

			replies.POST("/post/:id", auth, write, r.replyController.Create)
			replies.POST("/:replyId/upvote", auth, write, r.replyController.Upvote)
			replies.POST("/:replyId/downvote", auth, write, r.replyController.Downvote)
			replies.PATCH("/:replyId/accept", auth, r.replyController.Accept)
			replies.PUT("/:replyId", auth, write, r.replyController.Update)
			replies.DELETE("/:replyId", auth, r.replyController.Delete)
		}

		posts := v1.Group("/posts")
		{
			posts.GET("", r.postController.List)
			posts.GET("/category/:category", r.postController.ListByCategory)
			posts.GET("/:id", r.postController.Get)

			posts.POST("", auth, write, r.postController.Create)
			posts.PUT("/:id", auth, write, r.postController.Update)
			posts.DELETE("/:id", auth, r.postController.Delete)
			posts.POST("/:id/upvote", auth, write, r.postController.Upvote)
			posts.POST("/:id/downvote", auth, write, r.postController.Downvote)
			posts.PATCH("/:id/answered", auth, r.postController.SetAnswered)
		}

		v1.GET("/ws/posts/:id", r.authMiddleware.OptionalAuthenticate(), r.websocketController.SubscribePost)
	}

	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
	}
	return cfg
}
