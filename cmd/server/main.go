package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	certapp "github.com/udes/eexchange/internal/application/certificate"
	certdomain "github.com/udes/eexchange/internal/domain/certificate"
	"github.com/udes/eexchange/internal/infrastructure/auth"
	"github.com/udes/eexchange/internal/infrastructure/cache"
	"github.com/udes/eexchange/internal/infrastructure/config"
	"github.com/udes/eexchange/internal/infrastructure/logger"
	"github.com/udes/eexchange/internal/infrastructure/persistence"
	"github.com/udes/eexchange/internal/infrastructure/printing"
	"github.com/udes/eexchange/internal/infrastructure/scheduler"
	"github.com/udes/eexchange/internal/infrastructure/storage"
	"github.com/udes/eexchange/internal/infrastructure/telemetry"
	"github.com/udes/eexchange/internal/interfaces/http/handler"
	"github.com/udes/eexchange/internal/interfaces/http/middleware"
	"github.com/udes/eexchange/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// objectStore resolves signature URLs and archives exported PDFs
type objectStore interface {
	certapp.SignatureURLResolver
	certapp.DocumentArchive
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(cfg.Log, cfg.App.Env)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	logProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize log export", zap.Error(err))
	}
	log := logProvider.Bridge(baseLog, cfg.Telemetry.ServiceName, zapcore.InfoLevel)
	defer func() { _ = log.Sync() }()

	log.Info("Starting certificate service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	meter := meterProvider.Meter("udes-certificates")
	certMetrics, err := telemetry.NewCertificateMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create certificate metrics", zap.Error(err))
	}

	// Database
	db, err := persistence.NewDatabase(&cfg.Database, log, logger.GormLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTracing,
		DBName:          cfg.Database.DBName,
		SlowQueryThresh: cfg.Telemetry.SlowQuery,
	}, log); err != nil {
		log.Warn("Database tracing unavailable", zap.Error(err))
	}
	if reg, err := telemetry.RegisterPoolMetrics(meter, db.SQL); err != nil {
		log.Warn("Connection pool metrics unavailable", zap.Error(err))
	} else {
		defer func() { _ = reg.Unregister() }()
	}
	log.Info("Database connected")

	repos := certapp.Repositories{
		Certificates: persistence.NewGormCertificateRepository(db.DB),
		Profiles:     persistence.NewGormProfileRepository(db.DB),
		Courses:      persistence.NewGormCourseRepository(db.DB),
		Settings:     persistence.NewGormSettingsRepository(db.DB),
		Templates:    persistence.NewGormTemplateRepository(db.DB),
		Signatures:   persistence.NewGormSignatureProfileRepository(db.DB),
	}

	// Document cache
	docCache, err := cache.NewDocumentCacheFactory(cfg.Cache, cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	).Create()
	if err != nil {
		log.Fatal("Failed to create document cache", zap.Error(err))
	}
	defer func() { _ = docCache.Close() }()

	// Object storage
	objects := newObjectStore(ctx, cfg, log)

	// Rendering pipeline
	layouts, err := printing.NewLayoutStore(cfg.Certificate.LayoutDir)
	if err != nil {
		log.Fatal("Failed to load certificate layouts", zap.Error(err))
	}
	engine := printing.NewTemplateEngine(layouts)
	qr := printing.NewQRGenerator(printing.WithQRSize(cfg.Certificate.QRSize), printing.WithQRLogger(log))

	rasterizer, err := printing.NewChromedpRasterizer(&printing.ChromedpConfig{
		Timeout:        cfg.Chrome.Timeout,
		RemoteURL:      cfg.Chrome.RemoteURL,
		Headless:       true,
		DisableGPU:     true,
		NoSandbox:      cfg.Chrome.NoSandbox,
		ViewportWidth:  cfg.Chrome.ViewportWidth,
		ViewportHeight: cfg.Chrome.ViewportHeight,
	})
	if err != nil {
		log.Fatal("Failed to initialize headless Chrome", zap.Error(err))
	}
	defer func() { _ = rasterizer.Close() }()

	assets, err := printing.NewAssetBarrier(printing.AssetBarrierConfig{
		BaseURL: cfg.Certificate.AssetBaseURL,
		Timeout: cfg.Certificate.AssetTimeout,
		Logger:  log,
	})
	if err != nil {
		log.Fatal("Failed to initialize asset loader", zap.Error(err))
	}

	locale := certdomain.ParseLocale(cfg.Certificate.Locale)
	builder := certapp.NewPageBuilder(engine, qr, cfg.Certificate.EscapeFields, log)
	resolver := certapp.NewResolver(repos, engine, objects, locale, log)

	exportOpts := []certapp.ExporterOption{
		certapp.WithAssetInliner(assets),
		certapp.WithDocumentCache(docCache),
		certapp.WithExportObserver(certMetrics),
	}

	sched := scheduler.New(scheduler.Config{JobTimeout: cfg.Scheduler.JobTimeout}, log)
	if cfg.Certificate.ArchiveEnabled {
		if cfg.Storage.Enabled {
			exportOpts = append(exportOpts, certapp.WithDocumentArchive(objects))
		} else {
			archive, err := printing.NewFileSystemArchive(&printing.FileSystemArchiveConfig{
				BasePath: cfg.Certificate.ArchiveDir,
				Logger:   log,
			})
			if err != nil {
				log.Fatal("Failed to initialize certificate archive", zap.Error(err))
			}
			exportOpts = append(exportOpts, certapp.WithDocumentArchive(archive))
			if err := sched.Register(cfg.Scheduler.ArchiveSweepCron,
				scheduler.NewArchiveSweepJob(archive, cfg.Certificate.ArchiveRetention, log)); err != nil {
				log.Fatal("Failed to schedule archive sweep", zap.Error(err))
			}
		}
	}

	exporter := certapp.NewExporter(builder, rasterizer,
		printing.NewPageComposer(cfg.Certificate.JPEGQuality, log),
		certapp.ExporterConfig{
			Scale:       cfg.Certificate.CaptureScale,
			SettleDelay: cfg.Certificate.SettleDelay,
			Timeout:     cfg.Certificate.ExportTimeout,
			CacheTTL:    cfg.Cache.TTL,
		}, log, exportOpts...)

	certService := certapp.NewCertificateService(repos.Certificates, resolver, builder, exporter, certMetrics, locale, log)
	adminService := certapp.NewAdminService(repos.Templates, repos.Settings, repos.Signatures, repos.Courses, objects, log)

	// HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	httpMetrics, err := middleware.HTTPMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create HTTP metrics", zap.Error(err))
	}

	ginEngine := gin.New()
	if err := ginEngine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}
	ginEngine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanAttributes(),
		httpMetrics,
		middleware.Secure(),
	)

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	corsConfig.ExposeHeaders = append(corsConfig.ExposeHeaders, "X-RateLimit-Limit", "X-RateLimit-Remaining")
	ginEngine.Use(middleware.CORSWithConfig(corsConfig))
	ginEngine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	health := handler.NewHealthHandler(3*time.Second).
		AddCheck("database", db.Ping)
	if pinger, ok := docCache.(interface{ Ping(context.Context) error }); ok {
		health.AddCheck("cache", pinger.Ping)
	}
	ginEngine.GET("/health", health.Live)
	ginEngine.GET("/health/ready", health.Ready)

	validator := auth.NewTokenValidator(cfg.JWT)
	authMW := middleware.JWTAuthMiddleware(validator, log)
	verifyLimiter := middleware.NewRateLimiter(ctx, cfg.HTTP.VerifyRateLimit, cfg.HTTP.VerifyRateWindow)

	certHandler := handler.NewCertificateHandler(certService)
	router.NewRouter(ginEngine, router.WithAPIVersion("v1")).
		Register(handler.CertificateRoutes(certHandler, authMW)).
		Register(handler.VerifyRoutes(certHandler, middleware.RateLimit(verifyLimiter))).
		Register(handler.AdminRoutes(handler.NewAdminHandler(adminService), authMW,
			middleware.RequireRole(validator.AdminRole()))).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        ginEngine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	if cfg.Scheduler.Enabled {
		sched.Start(ctx)
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Warn("Scheduler did not stop cleanly", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Meter provider shutdown failed", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Tracer provider shutdown failed", zap.Error(err))
	}
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		baseLog.Warn("Log provider shutdown failed", zap.Error(err))
	}

	baseLog.Info("Server exited gracefully")
}

// newObjectStore returns S3 backed storage when enabled, otherwise signatures
// are served from the public base URL and archives are discarded
func newObjectStore(ctx context.Context, cfg *config.Config, log *zap.Logger) objectStore {
	if !cfg.Storage.Enabled {
		log.Info("Object storage disabled, serving signatures from static URL",
			zap.String("base_url", cfg.Storage.PublicBaseURL))
		return storage.NewStaticObjectStorage(cfg.Storage.PublicBaseURL)
	}

	s3, err := storage.NewS3ObjectStorage(&cfg.Storage,
		storage.WithLogger(log),
		storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
		storage.WithExportBucket(cfg.Storage.ExportBucket),
	)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}
	if err := s3.EnsureBuckets(ctx); err != nil {
		log.Warn("Could not verify storage buckets", zap.Error(err))
	}
	return s3
}
