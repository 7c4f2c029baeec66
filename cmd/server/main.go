package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	courseapp "github.com/gradeflow/backend/internal/application/course"
	gradingapp "github.com/gradeflow/backend/internal/application/grading"
	identityapp "github.com/gradeflow/backend/internal/application/identity"
	reportapp "github.com/gradeflow/backend/internal/application/report"
	rubricapp "github.com/gradeflow/backend/internal/application/rubric"
	"github.com/gradeflow/backend/internal/infrastructure/cache"
	"github.com/gradeflow/backend/internal/infrastructure/config"
	"github.com/gradeflow/backend/internal/infrastructure/event"
	"github.com/gradeflow/backend/internal/infrastructure/google"
	"github.com/gradeflow/backend/internal/infrastructure/llm"
	"github.com/gradeflow/backend/internal/infrastructure/logger"
	"github.com/gradeflow/backend/internal/infrastructure/persistence"
	infrareport "github.com/gradeflow/backend/internal/infrastructure/report"
	"github.com/gradeflow/backend/internal/infrastructure/storage"
	"github.com/gradeflow/backend/internal/infrastructure/telemetry"
	"github.com/gradeflow/backend/internal/interfaces/http/handler"
	"github.com/gradeflow/backend/internal/interfaces/http/middleware"
	"github.com/gradeflow/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/gradeflow/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Gradeflow API
//	@version		1.0
//	@description	Course grading backend: sections, assignments, rubric management, Gemini-assisted document grading, review workflow, and Google Docs feedback sync.

//	@contact.name	API Support
//	@contact.url	https://github.com/gradeflow/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Gradeflow backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Telemetry providers (no-ops when disabled)
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Environment:       cfg.App.Env,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// Continuous profiling via Pyroscope
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:             cfg.Telemetry.ProfilingEnabled,
		ServerAddress:       cfg.Telemetry.PyroscopeEndpoint,
		ApplicationName:     cfg.Telemetry.ServiceName,
		Environment:         cfg.App.Env,
		ProfileCPU:          true,
		ProfileAllocObjects: true,
		ProfileAllocSpace:   true,
		ProfileInuseObjects: true,
		ProfileInuseSpace:   true,
		ProfileGoroutines:   true,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel,
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	// sqlite gets its schema from the models; postgres is migrated by the
	// migrate command against migrations/
	if cfg.Database.Driver == config.DriverSQLite {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate database schema", zap.Error(err))
		}
	}

	// Database query tracing and pool metrics
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracingCfg := telemetry.DefaultDBTracingConfig()
		dbTracingCfg.Enabled = true
		dbTracingCfg.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
		if cfg.Database.Driver == config.DriverSQLite {
			dbTracingCfg.DBSystem = "sqlite"
		}
		dbTracingPlugin := telemetry.NewDBTracingPlugin(dbTracingCfg, log)
		if err := dbTracingPlugin.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}
	if meterProvider.IsEnabled() {
		if _, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DBMetricsConfig{
			Enabled:            true,
			SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
		}, log); err != nil {
			log.Warn("Failed to register database metrics", zap.Error(err))
		}
	}

	// Business metrics for the grading pipeline
	var gradingMetrics *telemetry.GradingMetrics
	if meterProvider.IsEnabled() {
		gradingMetrics, err = telemetry.NewGradingMetrics(telemetry.GradingMetricsConfig{
			Meter:         meterProvider.Meter("gradeflow.grading"),
			Logger:        log,
			StatsProvider: telemetry.NewGormGradingStatsProvider(db.DB),
		})
		if err != nil {
			log.Warn("Failed to initialize grading metrics", zap.Error(err))
		} else {
			gradingMetrics.StartPeriodicCollection(ctx, 5*time.Minute)
			defer gradingMetrics.Stop()
		}
	}

	// Initialize repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	sectionRepo := persistence.NewGormSectionRepository(db.DB)
	assignmentRepo := persistence.NewGormAssignmentRepository(db.DB)
	documentRepo := persistence.NewGormAssignmentDocumentRepository(db.DB)
	sessionRepo := persistence.NewGormGradingSessionRepository(db.DB)

	// Rubric storage: JSON templates on disk, uploaded originals on the
	// configured object storage backend
	rubricStore := storage.NewFileRubricStore(cfg.Rubric.Dir, log)
	var originals rubricapp.ObjectStorage
	switch cfg.Rubric.OriginalsBackend {
	case "s3":
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage,
			storage.WithLogger(log),
			storage.WithKeyPrefix(cfg.Rubric.OriginalsPrefix),
		)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to ensure storage bucket", zap.Error(err))
		}
		originals = s3Storage
	default:
		localStorage, err := storage.NewLocalObjectStorage(cfg.Rubric.OriginalsDir)
		if err != nil {
			log.Fatal("Failed to initialize local storage", zap.Error(err))
		}
		originals = localStorage
	}

	// Gemini adapter: grades documents, parses rubrics, writes summaries
	geminiOpts := []llm.GeminiOption{llm.WithLogger(log)}
	if gradingMetrics != nil {
		geminiOpts = append(geminiOpts, llm.WithMetrics(gradingMetrics))
	}
	gemini := llm.NewGemini(&cfg.Gemini, geminiOpts...)
	defer func() {
		if err := gemini.Close(); err != nil {
			log.Error("Error closing Gemini client", zap.Error(err))
		}
	}()

	// Google Drive and Docs access behind the OAuth manager
	oauth := google.NewOAuthManager(&cfg.Google, log)
	workspace := google.NewWorkspace(&cfg.Google, oauth, google.WithWorkspaceLogger(log))

	// Initialize application services
	userService := identityapp.NewUserService(userRepo, log)
	sectionService := courseapp.NewSectionService(sectionRepo, userService)
	assignmentService := courseapp.NewAssignmentService(assignmentRepo, sectionRepo, sessionRepo, userService)

	if err := sectionService.SeedDefaults(ctx); err != nil {
		log.Fatal("Failed to seed default sections", zap.Error(err))
	}

	rubricService := rubricapp.NewRubricService(rubricStore, originals, gemini, log)

	sessionService := gradingapp.NewSessionService(
		sessionRepo, documentRepo, assignmentRepo, sectionRepo,
		rubricStore, workspace, userService, log,
	)

	// Idempotency guard for feedback write-backs: Redis when configured,
	// otherwise in-memory
	idempotencyFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	idempotencyStore, err := idempotencyFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	sessionService.SetIdempotencyStore(idempotencyStore)

	// In-process domain event bus. The audit subscriber is wrapped with the
	// idempotency store so redelivered events leave a single trail entry.
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()
	auditHandler := event.NewIdempotentHandler(event.NewAuditLogHandler(log), idempotencyStore, log)
	eventBus.Subscribe(auditHandler, auditHandler.EventTypes()...)
	sessionService.SetEventPublisher(eventBus)
	rubricService.SetEventPublisher(eventBus)

	gradingService := gradingapp.NewGradingService(
		assignmentRepo, documentRepo, rubricStore, workspace, gemini, sessionService, log,
	)
	documentSyncService := gradingapp.NewDocumentSyncService(
		documentRepo, sessionRepo, assignmentRepo, workspace, log,
	)
	summaryService := gradingapp.NewSummaryService(
		assignmentRepo, sessionRepo, documentRepo, rubricStore, log,
	)
	summaryService.SetPerformanceSummarizer(gemini)
	exportService := gradingapp.NewExportService(
		assignmentRepo, documentRepo, sessionRepo, rubricStore, log,
	)

	if gradingMetrics != nil {
		sessionService.SetGradingMetrics(gradingMetrics)
		gradingService.SetGradingMetrics(gradingMetrics)
	}

	// PDF report rendering through headless Chrome
	reportEngine := infrareport.NewTemplateEngine()
	var pdfRenderer infrareport.PDFRenderer
	if cfg.Report.Enabled {
		chromeRenderer := infrareport.NewChromedpRenderer(&cfg.Report, log)
		defer func() {
			if err := chromeRenderer.Close(); err != nil {
				log.Error("Error closing PDF renderer", zap.Error(err))
			}
		}()
		pdfRenderer = chromeRenderer
	} else {
		log.Info("PDF report rendering disabled")
	}
	reportService := reportapp.NewReportService(
		sessionRepo, assignmentRepo, sectionRepo, userRepo,
		rubricStore, reportEngine, pdfRenderer, log,
	)

	// Initialize HTTP handlers
	sectionHandler := handler.NewSectionHandler(sectionService)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService, documentSyncService, summaryService, exportService)
	gradingHandler := handler.NewGradingHandler(gradingService)
	sessionHandler := handler.NewSessionHandler(sessionService, reportService)
	rubricHandler := handler.NewRubricHandler(rubricService)
	googleHandler := handler.NewGoogleHandler(oauth, workspace)
	systemHandler := handler.NewSystemHandler(db)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. Tracing - OpenTelemetry spans (if enabled)
	// 6. Metrics - HTTP metrics (if enabled)
	// 7. Profiling - Pyroscope labels (if enabled)
	// 8. CORS - Handle cross-origin requests
	// 9. BodyLimit - Limit request body size
	// 10. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.SpanErrorMarker())
	}
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		ServiceName:   cfg.Telemetry.ServiceName,
		Enabled:       cfg.Telemetry.Enabled,
	}))
	if cfg.Telemetry.ProfilingEnabled {
		engine.Use(middleware.Profiling())
	}

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	// Swagger documentation endpoint
	if cfg.Swagger.Enabled {
		swaggerProtection := middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:    true,
			AllowedIPs: cfg.Swagger.AllowedIPs,
		})
		engine.GET("/swagger/*any", swaggerProtection, ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	r.Register(handler.SystemRoutes(systemHandler)).
		Register(handler.SectionRoutes(sectionHandler, assignmentHandler)).
		Register(handler.AssignmentRoutes(assignmentHandler)).
		Register(handler.GradingRoutes(gradingHandler)).
		Register(handler.SessionRoutes(sessionHandler)).
		Register(handler.RubricRoutes(rubricHandler)).
		Register(handler.GoogleRoutes(googleHandler))

	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
