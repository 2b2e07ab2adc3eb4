package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/SKYGOD07/Arjuna-Project/internal/cache"
	"github.com/SKYGOD07/Arjuna-Project/internal/config"
	"github.com/SKYGOD07/Arjuna-Project/internal/database"
	"github.com/SKYGOD07/Arjuna-Project/internal/handlers"
	"github.com/SKYGOD07/Arjuna-Project/internal/logger"
	"github.com/SKYGOD07/Arjuna-Project/internal/middleware"
	"github.com/SKYGOD07/Arjuna-Project/internal/queue"
	"github.com/SKYGOD07/Arjuna-Project/internal/services/auth"
	"github.com/SKYGOD07/Arjuna-Project/internal/services/suggestions"
	"github.com/SKYGOD07/Arjuna-Project/internal/services/tracking"
	"github.com/SKYGOD07/Arjuna-Project/internal/services/vision"
	"github.com/SKYGOD07/Arjuna-Project/internal/telemetry"
	"github.com/SKYGOD07/Arjuna-Project/internal/workers"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(telemetry.ServiceServer, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("stats_recompute_mode", cfg.StatsRecomputeMode),
		zap.Bool("detector_configured", cfg.DetectorURL != ""),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	if !cfg.AuthConfigured() {
		zapLogger.Fatal("auth_not_configured", zap.String("hint", "set JWT_SECRET or JWKS_URL"))
	}

	// Initialize OpenTelemetry if enabled
	otelActive := false
	if cfg.OTELEnabled {
		tp, err := telemetry.InitTracer(context.Background(), telemetry.ServiceServer, cfg.OTELEndpoint)
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			otelActive = true
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	if err := db.Migrate(context.Background()); err != nil {
		zapLogger.Fatal("failed_to_migrate_database", zap.Error(err))
	}
	zapLogger.Info("connected_to_database")

	// Redis backs the current-session slots and the shared rate limit counters
	redisClient, err := cache.NewClient(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_redis")

	var jobQueue queue.JobQueue
	if cfg.AsyncStatistics() {
		jobQueue = connectRabbitMQ(cfg.RabbitMQURL, zapLogger)
		defer func() {
			if err := jobQueue.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
	}

	// Repositories
	sessionRepo := database.NewSessionRepository(db)
	detectionRepo := database.NewDetectionRepository(db)
	suggestionRepo := database.NewSuggestionRepository(db)
	wasteRepo := database.NewWasteRepository(db)
	statsRepo := database.NewStatisticsRepository(db)
	profileRepo := database.NewProfileRepository(db)

	// Statistics are recomputed inline on stop, or handed to the worker
	var trigger tracking.StatisticsTrigger
	if jobQueue != nil {
		trigger = workers.NewStatisticsEnqueuer(jobQueue, zapLogger)
	} else {
		trigger = workers.NewStatisticsAggregator(sessionRepo, wasteRepo, statsRepo,
			workers.RatioEstimator{Ratio: cfg.ConsumptionRatio}, zapLogger)
	}

	// Detection model
	var detector vision.Detector
	if cfg.DetectorURL != "" {
		wsDetector := vision.NewWebSocketDetector(cfg.DetectorURL, cfg.DetectorTimeout, zapLogger,
			vision.WithConnections(cfg.DetectorConnections),
		)
		wsDetector.ConnectInBackground(context.Background())
		defer func() { _ = wsDetector.Close() }()
		detector = wsDetector
	} else {
		zapLogger.Warn("detector_not_configured_frames_will_be_rejected")
	}
	gateway := vision.NewGateway(detector, cfg.DetectorTimeout, zapLogger)

	// Services
	engine := suggestions.NewEngine(sessionRepo, suggestionRepo,
		suggestions.WithCap(cfg.SuggestionCap),
		suggestions.WithLogger(zapLogger),
	)
	pipeline := tracking.NewPipeline(sessionRepo, detectionRepo, gateway, engine,
		tracking.WithConfidenceThreshold(cfg.ConfidenceThreshold),
		tracking.WithLogger(zapLogger),
	)
	registry := tracking.NewRegistry(sessionRepo, wasteRepo, cache.NewSessionSlots(redisClient, 0), trigger, zapLogger,
		tracking.WithFrameGate(pipeline),
	)

	verifier := newVerifier(cfg)

	// Handlers
	trackingHandler := handlers.NewTrackingHandler(registry, pipeline, zapLogger,
		handlers.WithMaxFrameBytes(int(cfg.MaxFrameBytes)),
		handlers.WithAllowedOrigins(cfg.AllowedOrigins()),
	)
	dashboardHandler := handlers.NewDashboardHandler(sessionRepo, detectionRepo, suggestionRepo, wasteRepo, statsRepo, zapLogger)
	profileHandler := handlers.NewProfileHandler(profileRepo, zapLogger)
	healthDeps := []handlers.Dependency{
		{Name: "database", Check: db.PingContext},
		{Name: "redis", Check: redisClient.Ping},
	}
	if jobQueue != nil {
		healthDeps = append(healthDeps, handlers.Dependency{Name: "rabbitmq", Check: jobQueue.HealthCheck})
	}
	healthChecker := handlers.NewHealthChecker(gateway, healthDeps...)

	limiterStore, err := middleware.NewRedisLimiterStore(redisClient.Redis())
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limit_store", zap.Error(err))
	}
	rateLimitMW, err := middleware.RateLimit(limiterStore, cfg.RateLimit, zapLogger)
	if err != nil {
		zapLogger.Fatal("invalid_rate_limit", zap.Error(err))
	}
	authMW := middleware.Auth(verifier, zapLogger)

	r := mux.NewRouter()

	// In gorilla/mux the middleware registered first is the outermost wrapper
	if otelActive {
		r.Use(otelmux.Middleware(telemetry.ServiceServer))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Audit(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	// Public routes
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	handlers.NewOpenAPIHandler(filepath.Join("api", "openapi", "openapi.yaml")).RegisterRoutes(r)

	apiRouter := r.PathPrefix("/api/v1").Subrouter()

	trackingRouter := apiRouter.PathPrefix("/tracking").Subrouter()
	trackingRouter.Use(middleware.MaxRequestSize(middleware.FrameRequestLimit(cfg.MaxFrameBytes)))
	trackingRouter.Use(authMW)
	trackingRouter.Use(rateLimitMW)
	trackingHandler.RegisterRoutes(trackingRouter)

	dashboardRouter := apiRouter.PathPrefix("/dashboard").Subrouter()
	dashboardRouter.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	dashboardRouter.Use(authMW)
	dashboardRouter.Use(rateLimitMW)
	dashboardHandler.RegisterRoutes(dashboardRouter)

	profileRouter := apiRouter.PathPrefix("/profile").Subrouter()
	profileRouter.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	profileRouter.Use(authMW)
	profileRouter.Use(rateLimitMW)
	profileHandler.RegisterRoutes(profileRouter)

	// Preflight requests are answered by the CORS middleware; this keeps mux from 405ing them
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      middleware.DefaultRequestTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	// Run every hour, retain dead-lettered jobs for 24 hours
	if dlqPurger, ok := jobQueue.(queue.DLQPurger); ok {
		dlqGC := queue.NewGarbageCollector(dlqPurger, time.Hour, 24*time.Hour, zapLogger)
		go func() {
			if err := dlqGC.Start(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
			}
		}()
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	bgCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// newVerifier prefers an identity provider's key set over the shared secret
func newVerifier(cfg *config.Config) auth.Verifier {
	if cfg.JWKSURL != "" {
		return auth.NewJWKSVerifier(auth.NewJWKSManager(cfg.JWKSURL, auth.DefaultJWKSTTL), cfg.JWTIssuer)
	}
	return auth.NewHMACVerifier(cfg.JWTSecret, cfg.JWTIssuer)
}

// connectRabbitMQ retries with exponential backoff to ride out broker startup
func connectRabbitMQ(url string, zapLogger *zap.Logger) *queue.RabbitMQQueue {
	const maxRetries = 10
	const initialDelay = 2 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		q, err := queue.NewRabbitMQQueue(url, zapLogger)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return q
		}
		lastErr = err

		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		time.Sleep(delay)
	}

	zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries",
		zap.Int("max_retries", maxRetries),
		zap.Error(lastErr),
	)
	return nil
}
