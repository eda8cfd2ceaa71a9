package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/clipshare/api/internal/client"
	"github.com/clipshare/api/internal/config"
	"github.com/clipshare/api/internal/handler"
	"github.com/clipshare/api/internal/media"
	"github.com/clipshare/api/internal/middleware"
	"github.com/clipshare/api/internal/model"
	"github.com/clipshare/api/internal/queue"
	"github.com/clipshare/api/internal/repository"
	"github.com/clipshare/api/internal/service"
	"github.com/clipshare/api/internal/worker"
	"github.com/clipshare/api/internal/workspace"
	ws "github.com/clipshare/api/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	// Initialize validator
	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Initialize storage and media tooling
	store := workspace.NewStore(cfg.Storage.WorkDir)
	analyzer := media.NewFFmpegAnalyzer(cfg.Media, media.NewCommandRunner())
	contentEngine := media.NewEngine(analyzer, store)

	// Initialize repositories
	videoRepo := repository.NewVideoRepository(redisClient)
	subscriptionRepo := repository.NewSubscriptionRepository(redisClient)
	notificationRepo := repository.NewNotificationRepository(redisClient)
	commentRepo := repository.NewCommentRepository(redisClient)

	// Optional object storage for published artifacts
	var objectStorage worker.ObjectStorage
	if r2, err := client.NewR2Client(&cfg.R2); err != nil {
		log.Printf("Warning: R2 not configured, artifacts stay local: %v", err)
	} else {
		objectStorage = r2
	}

	// Optional mailer
	var mailer worker.Mailer
	if mailClient := client.NewMailClient(&cfg.Mail); mailClient.IsConfigured() {
		mailer = mailClient
	}

	// Initialize the task engine. Each unit of work gets a fresh worker
	// scope with its own repository instances.
	var engine *queue.Engine
	engine = queue.NewEngine(cfg.Engine.TickInterval, func() queue.Handler {
		return worker.New(worker.Deps{
			Videos:     repository.NewVideoRepository(redisClient),
			Workspaces: store,
			Content:    contentEngine,
			Notifier: service.NewNotificationService(
				repository.NewSubscriptionRepository(redisClient),
				repository.NewNotificationRepository(redisClient),
			),
			Comments:   repository.NewCommentRepository(redisClient),
			Mailer:     mailer,
			Storage:    objectStorage,
			Queue:      engine,
			Hub:        hub,
			PosterSize: cfg.Media.PosterSize,
		})
	})

	engineCtx, stopEngine := context.WithCancel(context.Background())
	engine.Run(engineCtx)

	// View counts are batched in memory and flushed through the engine
	viewCounter := service.NewViewCounter(cfg.ViewCount.FlushThreshold, cfg.ViewCount.FlushJitter,
		func(videoID string, count int64) {
			engine.Enqueue(model.IncrementViewCount{VideoID: videoID, Count: count})
		})

	// Initialize services
	videoService := service.NewVideoService(videoRepo, store, contentEngine, engine, viewCounter)
	commentService := service.NewCommentService(commentRepo, videoRepo)
	notificationService := service.NewNotificationService(subscriptionRepo, notificationRepo)

	// Initialize handlers
	videoHandler := handler.NewVideoHandler(videoService, validate)
	commentHandler := handler.NewCommentHandler(commentService, validate)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionRepo)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	accountHandler := handler.NewAccountHandler(engine)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	rateLimiter := middleware.NewRateLimiter(redisClient)
	auth := authMiddleware.Authenticate()

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    500 * 1024 * 1024, // 500MB
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Video routes. /videos/mine is registered before the :videoId routes.
	api.Post("/videos", auth, rateLimiter.UploadLimit(cfg.RateLimit.UploadPerHour), videoHandler.Upload)
	api.Get("/videos", videoHandler.List)
	api.Get("/videos/mine", auth, videoHandler.ListMine)
	api.Get("/videos/:videoId", videoHandler.Get)
	api.Patch("/videos/:videoId", auth, videoHandler.Update)
	api.Delete("/videos/:videoId", auth, videoHandler.Delete)
	api.Post("/videos/:videoId/publish", auth, rateLimiter.PublishLimit(cfg.RateLimit.PublishPerHour), videoHandler.Publish)
	api.Post("/videos/:videoId/watch", rateLimiter.WatchLimit(cfg.RateLimit.WatchPerMin), videoHandler.Watch)

	// Comment routes
	api.Get("/videos/:videoId/comments", commentHandler.List)
	api.Post("/videos/:videoId/comments", auth, rateLimiter.CommentLimit(cfg.RateLimit.CommentPerMin), commentHandler.Add)
	api.Delete("/videos/:videoId/comments/:commentId", auth, commentHandler.Delete)

	// Subscription routes
	api.Get("/subscriptions", auth, subscriptionHandler.List)
	api.Get("/subscriptions/:creatorId", auth, subscriptionHandler.Status)
	api.Put("/subscriptions/:creatorId", auth, subscriptionHandler.Subscribe)
	api.Delete("/subscriptions/:creatorId", auth, subscriptionHandler.Unsubscribe)

	// Notification routes
	api.Get("/notifications", auth, notificationHandler.List)
	api.Delete("/notifications/:notificationId", auth, notificationHandler.Dismiss)

	// Account routes
	api.Post("/account/confirmation", auth, accountHandler.RequestConfirmation)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/videos/:videoId", websocket.New(func(c *websocket.Conn) {
		videoID := c.Params("videoId")
		hub.HandleConnection(c, videoID)
	}))

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	// Drain in-flight tasks before exit
	stopEngine()
	engine.Wait()
	log.Println("Task engine drained")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
