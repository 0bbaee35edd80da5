package main

import (
	"context"
	"log"
	"time"

	"poker-club/backend/internal/auth"
	"poker-club/backend/internal/clock"
	"poker-club/backend/internal/db"
	"poker-club/backend/internal/engine"
	"poker-club/backend/internal/ledger"
	"poker-club/backend/internal/locks"
	"poker-club/backend/internal/middleware"
	"poker-club/backend/internal/models"
	"poker-club/backend/internal/notify"
	"poker-club/backend/internal/redisclient"
	"poker-club/backend/internal/reports"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Server holds all dependencies and configuration for the club backend
type Server struct {
	config Config
	db     *gorm.DB

	// Services
	authService   *auth.Service
	ledgerService *ledger.Service
	engineService *engine.Service
	reportService *reports.Service
	scheduler     *clock.Scheduler
	dispatcher    *notify.Dispatcher
	rateLimiter   *middleware.RateLimiter
}

// NewServer creates and initializes a new Server instance
func NewServer(config Config) (*Server, error) {
	database, err := db.New(config.DBConfig)
	if err != nil {
		return nil, err
	}

	authSvc := auth.NewService(config.JWTSecret)
	if err := seedBootstrapOperator(database, authSvc, config); err != nil {
		return nil, err
	}
	ledgerSvc := ledger.NewService(database)
	engineSvc := engine.NewService(database, ledgerSvc)
	reportSvc := reports.NewService(database)
	dispatcher := notify.NewDispatcher(config.WebhookURL)
	engineSvc.SetEventPublisher(dispatcher)

	var lockMgr *locks.Manager
	if config.RedisEnabled {
		redisClient, err := redisclient.New(config.Redis)
		if err != nil {
			return nil, err
		}
		lockMgr = locks.NewManager(redisClient)
	} else {
		log.Println("[SERVER] Redis disabled, clock scheduler runs without a leader lock")
	}

	scheduler := clock.NewScheduler(database, lockMgr)
	scheduler.CheckpointEvery = config.ClockCheckpointTicks
	scheduler.SetEventPublisher(dispatcher)

	return &Server{
		config:        config,
		db:            database,
		authService:   authSvc,
		ledgerService: ledgerSvc,
		engineService: engineSvc,
		reportService: reportSvc,
		scheduler:     scheduler,
		dispatcher:    dispatcher,
		rateLimiter:   middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig),
	}, nil
}

// seedBootstrapOperator creates the first manager account from the
// environment so a fresh deployment has a way to log in. It does nothing
// once any operator exists.
func seedBootstrapOperator(database *gorm.DB, authSvc *auth.Service, config Config) error {
	var count int64
	if err := database.Model(&models.Operator{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if config.BootstrapUser == "" || config.BootstrapPassword == "" {
		log.Println("[SERVER] No operators and no BOOTSTRAP_USER/BOOTSTRAP_PASSWORD set, login is impossible until one is seeded")
		return nil
	}

	hash, err := authSvc.HashPassword(config.BootstrapPassword)
	if err != nil {
		return err
	}
	op := models.Operator{
		ID:           uuid.New().String(),
		Username:     config.BootstrapUser,
		PasswordHash: hash,
		Role:         string(auth.RoleManager),
	}
	if err := database.Create(&op).Error; err != nil {
		return err
	}
	log.Printf("[SERVER] Seeded bootstrap manager %q", op.Username)
	return nil
}

// Run starts the background workers and the HTTP server, blocking until
// the server exits.
func (s *Server) Run(ctx context.Context) error {
	go s.dispatcher.Run(ctx)
	go s.scheduler.Run(ctx)

	router := s.setupRouter()

	log.Printf("[SERVER] Listening on :%s (%s)", s.config.ServerPort, s.config.Environment)
	return router.Run(":" + s.config.ServerPort)
}

func (s *Server) setupRouter() *gin.Engine {
	if s.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))
	router.Use(s.rateLimiter.Middleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "time": time.Now().UTC()})
	})

	s.registerRoutes(router)
	return router
}
