package config

import (
	"Focus2026/database/postgres"
	authHandler "Focus2026/internal/api/auth/handler"
	authService "Focus2026/internal/api/auth/service"
	dashboardHandler "Focus2026/internal/api/dashboard/handler"
	dashboardRepository "Focus2026/internal/api/dashboard/repository"
	dashboardService "Focus2026/internal/api/dashboard/service"
	notificationHandler "Focus2026/internal/api/notification/handler"
	notificationService "Focus2026/internal/api/notification/service"
	timerHandler "Focus2026/internal/api/timer/handler"
	timerService "Focus2026/internal/api/timer/service"
	voiceHandler "Focus2026/internal/api/voice/handler"
	voiceRepository "Focus2026/internal/api/voice/repository"
	voiceService "Focus2026/internal/api/voice/service"
	"Focus2026/internal/middleware"
	"Focus2026/pkg/bcrypt"
	"Focus2026/pkg/clock"
	"Focus2026/pkg/gemini"
	"Focus2026/pkg/redis"
	"Focus2026/pkg/roadmap"
	"Focus2026/pkg/s3"
	"Focus2026/pkg/utils"
	websocketPkg "Focus2026/pkg/websocket"
	"Focus2026/pkg/whatsapp"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine         *fiber.App
	db             *sqlx.DB
	log            *logrus.Logger
	middleware     middleware.Middleware
	validator      *validator.Validate
	utils          utils.IUtils
	bcryptUtils    bcrypt.IBcrypt
	handlers       []handler
	redisServer    redis.IRedis
	whatsappClient whatsapp.IWhatsappSender
	geminiClient   gemini.IGemini
	s3Client       s3.ItfS3
	hub            websocketPkg.IHub
	roadmap        *roadmap.Roadmap
	clock          clock.Clock

	dashboardService    dashboardService.IDashboardService
	timerService        timerService.ITimerService
	notificationService notificationService.INotificationService
	cancel              context.CancelFunc
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.roadmap == nil {
		return nil, fmt.Errorf("roadmap is required")
	}
	if server.geminiClient == nil {
		server.geminiClient = gemini.NewGeminiClient(gemini.ConfigFromEnv())
	}
	if server.hub == nil {
		server.hub = websocketPkg.NewHub(server.log)
	}
	if server.clock == nil {
		server.clock = clock.SystemClock{}
	}
	if server.utils == nil {
		server.utils = utils.New()
	}
	if server.bcryptUtils == nil {
		server.bcryptUtils = bcrypt.New()
	}
	if server.validator == nil {
		server.validator = NewValidator()
	}
	if server.middleware == nil {
		server.middleware = middleware.New(server.log)
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithRoadmap(rm *roadmap.Roadmap) ServerOption {
	return func(s *Server) error {
		s.roadmap = rm
		return nil
	}
}

func WithClock(clk clock.Clock) ServerOption {
	return func(s *Server) error {
		s.clock = clk
		return nil
	}
}

// WithDatabase connects to Postgres and runs migrations when a database is
// configured. Without one the dashboard keeps its state in memory.
func WithDatabase() ServerOption {
	return func(s *Server) error {
		if !postgres.Configured() {
			if s.log != nil {
				s.log.Info("No database configured, dashboard state is kept in memory")
			}
			return nil
		}

		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithHub(hub websocketPkg.IHub) ServerOption {
	return func(s *Server) error {
		s.hub = hub
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithS3Client() ServerOption {
	return func(s *Server) error {
		if !s3.Configured() {
			return nil
		}

		client, err := s3.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

// WithWhatsappClient pairs the alert sender. Pairing failures are logged and
// leave alerts on the dashboard only.
func WithWhatsappClient() ServerOption {
	return func(s *Server) error {
		if !whatsapp.Enabled() {
			return nil
		}

		client, err := whatsapp.New(context.Background(), s.log)
		if err != nil {
			if s.log != nil {
				s.log.Warnf("WhatsApp alerts disabled: %v", err)
			}
			return nil
		}
		s.whatsappClient = client
		return nil
	}
}

func WithGeminiClient(client gemini.IGemini) ServerOption {
	return func(s *Server) error {
		if !client.HasCredential() && s.log != nil {
			s.log.Warn("GEMINI_API_KEY is not set, AI features will report a missing credential")
		}
		s.geminiClient = client
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func WithBcryptUtils() ServerOption {
	return func(s *Server) error {
		s.bcryptUtils = bcrypt.New()
		return nil
	}
}

// Dashboard builds the dashboard service on first use so CLI commands can
// reach it without registering handlers.
func (s *Server) Dashboard() dashboardService.IDashboardService {
	if s.dashboardService != nil {
		return s.dashboardService
	}

	cfg := dashboardService.Config{Clock: s.clock}
	if s.redisServer != nil {
		cfg.Cache = s.redisServer
	}
	if s.s3Client != nil {
		cfg.Archive = s.s3Client
	}

	dashboardRepo := dashboardRepository.New(s.db, s.log)
	s.dashboardService = dashboardService.NewDashboardService(s.log, dashboardRepo, s.geminiClient, s.roadmap, s.utils, cfg)
	return s.dashboardService
}

func (s *Server) RegisterHandler() error {
	// Dashboard
	dashboardServices := s.Dashboard()
	if err := dashboardServices.Seed(context.Background()); err != nil {
		return fmt.Errorf("failed to seed weekly targets: %w", err)
	}
	dashboardHandlers := dashboardHandler.New(s.log, s.validator, s.middleware, dashboardServices)

	// Voice
	voiceRepo := voiceRepository.New(s.db, s.log)
	voiceServices := voiceService.NewVoiceService(s.log, voiceRepo, s.geminiClient, s.roadmap, s.utils)
	voiceHandlers := voiceHandler.New(s.log, s.validator, s.middleware, voiceServices)

	// Timer
	s.timerService = timerService.NewTimerService(s.log, s.hub, dashboardServices, s.clock)
	timerHandlers := timerHandler.New(s.log, s.validator, s.middleware, s.timerService)

	// Notifications
	notificationCfg := notificationService.Config{
		Welcome: s.roadmap.Notifications.Welcome,
		Alerts:  s.roadmap.Notifications.Alerts,
		Clock:   s.clock,
	}
	if s.whatsappClient != nil {
		notificationCfg.Sender = s.whatsappClient
		notificationCfg.Phone = os.Getenv("WHATSAPP_PHONE")
	}
	s.notificationService = notificationService.NewNotificationService(s.log, s.hub, notificationCfg)
	notificationHandlers := notificationHandler.New(s.log, s.validator, s.middleware, s.notificationService, s.hub)

	// Auth
	authServices := authService.NewAuthService(s.log, s.bcryptUtils, authService.Config{
		PassphraseHash: os.Getenv("DASHBOARD_PASSPHRASE_HASH"),
		Subject:        s.roadmap.FirstName(),
	})
	authHandlers := authHandler.New(s.log, authServices, s.validator, s.middleware)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, authHandlers, dashboardHandlers, voiceHandlers, timerHandlers, notificationHandlers)
	return nil
}

func (s *Server) Run() error {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware)
	router := s.engine.Group("/api/v1", s.middleware.NewRateLimiter)

	for _, h := range s.handlers {
		h.Start(router)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	if s.notificationService != nil {
		s.notificationService.Start(ctx)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

// Shutdown stops the schedulers before draining HTTP connections, then
// releases the optional backends.
func (s *Server) Shutdown(timeout time.Duration) error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.notificationService != nil {
		s.notificationService.Stop()
	}
	if s.timerService != nil {
		s.timerService.Close()
	}
	s.hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	err := s.engine.ShutdownWithContext(ctx)

	if s.whatsappClient != nil {
		if dErr := s.whatsappClient.Disconnect(); dErr != nil {
			s.log.Warnf("Failed to disconnect WhatsApp client: %v", dErr)
		}
	}
	if closer, ok := s.redisServer.(io.Closer); ok {
		if cErr := closer.Close(); cErr != nil {
			s.log.Warnf("Failed to close Redis client: %v", cErr)
		}
	}
	if s.db != nil {
		if cErr := s.db.Close(); cErr != nil {
			s.log.Warnf("Failed to close database: %v", cErr)
		}
	}

	return err
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
			"app":     "Focus2026",
			"theme":   s.roadmap.Theme,
		})
	})
}
