package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/amitsajwan/realestate-ai-sub013/internal/config"
	"github.com/amitsajwan/realestate-ai-sub013/internal/events"
	"github.com/amitsajwan/realestate-ai-sub013/internal/service"
	"github.com/amitsajwan/realestate-ai-sub013/internal/service/channel"
	"github.com/amitsajwan/realestate-ai-sub013/internal/service/channel/email"
	"github.com/amitsajwan/realestate-ai-sub013/internal/service/channel/facebook"
	"github.com/amitsajwan/realestate-ai-sub013/internal/service/channel/instagram"
	"github.com/amitsajwan/realestate-ai-sub013/internal/service/channel/linkedin"
	"github.com/amitsajwan/realestate-ai-sub013/internal/service/channel/twitter"
	"github.com/amitsajwan/realestate-ai-sub013/internal/service/channel/website"
	"github.com/amitsajwan/realestate-ai-sub013/internal/service/generator"
	"github.com/amitsajwan/realestate-ai-sub013/internal/storage"
)

type Server struct {
	Config *config.Config
	DB     *gorm.DB
	Router *gin.Engine
	Logger *zap.Logger
	Server *http.Server

	// Services
	Store        *service.Store
	Registry     *channel.Registry
	Orchestrator *service.Orchestrator
	Scheduler    *service.Scheduler
	Collector    *service.Collector
	Media        storage.Storage
	Events       events.Publisher
}

func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	// Set gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize database
	db, err := service.NewDatabase(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	store := service.NewStore(db)

	registry, err := buildRegistry(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build channel registry: %w", err)
	}

	generatorClient, err := generator.NewClient(cfg.Generator, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build generator client: %w", err)
	}

	media, err := storage.NewS3Storage(context.Background(), cfg.Media.Bucket, cfg.Media.Region, cfg.Media.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to build media storage: %w", err)
	}

	eventBus, err := buildEventBus(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build event bus: %w", err)
	}

	orchestrator, err := service.NewOrchestrator(&cfg.Publish, logger, store, store, generatorClient, registry, media, eventBus)
	if err != nil {
		return nil, fmt.Errorf("failed to build orchestrator: %w", err)
	}

	scheduler, err := service.NewScheduler(&cfg.Scheduler, &cfg.Publish, logger, store, orchestrator)
	if err != nil {
		return nil, fmt.Errorf("failed to build scheduler: %w", err)
	}
	collector := service.NewCollector(&cfg.Analytics, logger, store, registry)

	// Create router
	router := gin.New()

	srv := &Server{
		Config:       cfg,
		DB:           db,
		Router:       router,
		Logger:       logger,
		Store:        store,
		Registry:     registry,
		Orchestrator: orchestrator,
		Scheduler:    scheduler,
		Collector:    collector,
		Media:        media,
		Events:       eventBus,
	}

	// Setup middleware and routes
	srv.setupMiddleware()
	srv.setupRoutes()

	return srv, nil
}

// buildRegistry registers an adapter for every channel enabled in config.
func buildRegistry(cfg *config.Config, logger *zap.Logger) (*channel.Registry, error) {
	registry := channel.NewRegistry(logger)

	if cfg.Channels.Facebook.Enabled {
		if err := registry.Register(facebook.NewFacebookPublisher(cfg.Channels.Facebook, logger)); err != nil {
			return nil, err
		}
	}
	if cfg.Channels.Instagram.Enabled {
		if err := registry.Register(instagram.NewInstagramPublisher(cfg.Channels.Instagram, logger)); err != nil {
			return nil, err
		}
	}
	if cfg.Channels.LinkedIn.Enabled {
		if err := registry.Register(linkedin.NewLinkedInPublisher(cfg.Channels.LinkedIn, logger)); err != nil {
			return nil, err
		}
	}
	if cfg.Channels.Twitter.Enabled {
		if err := registry.Register(twitter.NewTwitterPublisher(cfg.Channels.Twitter, logger)); err != nil {
			return nil, err
		}
	}
	if cfg.Channels.Website.Enabled {
		if err := registry.Register(website.NewWebsitePublisher(cfg.Channels.Website, logger)); err != nil {
			return nil, err
		}
	}
	if cfg.Channels.Email.Enabled {
		if err := registry.Register(email.NewEmailPublisher(cfg.Channels.Email, logger)); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

func buildEventBus(cfg *config.Config, logger *zap.Logger) (events.Publisher, error) {
	if cfg.Events.URL == "" {
		logger.Info("No message bus configured, post events will be dropped")
		return events.NoopPublisher{}, nil
	}
	bus, err := events.NewRabbitMQPublisher(cfg.Events.URL, cfg.Events.Exchange)
	if err != nil {
		return nil, err
	}
	logger.Info("Connected to message bus", zap.String("exchange", cfg.Events.Exchange))
	return bus, nil
}

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.Router.Use(gin.Recovery())

	// Logger middleware
	s.Router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	// CORS middleware
	s.Router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
}

func (s *Server) setupRoutes() {
	// Health check
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})

	// API routes
	api := s.Router.Group("/api/v1")
	{
		posts := api.Group("/posts")
		{
			posts.POST("", s.handleCreatePost)
			posts.GET("", s.handleListPosts)
			posts.GET("/:id", s.handleGetPost)
			posts.POST("/:id/publish", s.handlePublishPost)
			posts.POST("/:id/schedule", s.handleSchedulePost)
			posts.DELETE("/:id/schedule", s.handleCancelSchedule)
			posts.POST("/:id/retry", s.handleRetryChannels)
			posts.POST("/:id/archive", s.handleArchivePost)
			posts.GET("/:id/analytics", s.handlePostAnalytics)
		}

		properties := api.Group("/properties")
		{
			properties.POST("", s.handleCreateProperty)
			properties.GET("", s.handleListProperties)
			properties.GET("/:id", s.handleGetProperty)
		}

		api.GET("/channels", s.handleListChannels)
		api.POST("/media", s.handleUploadMedia)
	}
}

func (s *Server) Start(ctx context.Context) error {
	// Start background workers
	if err := s.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	if err := s.Collector.Start(ctx); err != nil {
		return fmt.Errorf("failed to start analytics collector: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)

	s.Server = &http.Server{
		Addr:    addr,
		Handler: s.Router,
	}

	s.Logger.Info("Starting HTTP server", zap.String("addr", addr))

	if s.Config.Server.CertFile != "" && s.Config.Server.KeyFile != "" {
		return s.Server.ListenAndServeTLS(s.Config.Server.CertFile, s.Config.Server.KeyFile)
	}

	return s.Server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	// Stop background workers first
	s.Scheduler.Stop()
	s.Collector.Stop()

	if err := s.Events.Close(); err != nil {
		s.Logger.Warn("Failed to close event bus", zap.Error(err))
	}

	if s.Server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return s.Server.Shutdown(shutdownCtx)
}
