package main

import (
	"context"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	assistantapp "github.com/marketplace/backend/internal/application/assistant"
	cartapp "github.com/marketplace/backend/internal/application/cart"
	catalogapp "github.com/marketplace/backend/internal/application/catalog"
	identityapp "github.com/marketplace/backend/internal/application/identity"
	messagingapp "github.com/marketplace/backend/internal/application/messaging"
	onboardingapp "github.com/marketplace/backend/internal/application/onboarding"
	printingapp "github.com/marketplace/backend/internal/application/printing"
	reviewapp "github.com/marketplace/backend/internal/application/review"
	tradeapp "github.com/marketplace/backend/internal/application/trade"
	"github.com/marketplace/backend/internal/domain/assistant"
	"github.com/marketplace/backend/internal/domain/document"
	"github.com/marketplace/backend/internal/domain/messaging"
	"github.com/marketplace/backend/internal/infrastructure/auth"
	"github.com/marketplace/backend/internal/infrastructure/cache"
	"github.com/marketplace/backend/internal/infrastructure/config"
	"github.com/marketplace/backend/internal/infrastructure/event"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/infrastructure/persistence"
	"github.com/marketplace/backend/internal/infrastructure/printing"
	"github.com/marketplace/backend/internal/infrastructure/realtime"
	"github.com/marketplace/backend/internal/infrastructure/storage"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"github.com/marketplace/backend/internal/interfaces/http/handler"
	"github.com/marketplace/backend/internal/interfaces/http/middleware"
	"github.com/marketplace/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

//	@title			Marketplace API
//	@version		1.0
//	@description	Service and product marketplace for clients, providers and sellers
//	@BasePath		/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

const (
	cartTTL       = 30 * 24 * time.Hour
	onboardingTTL = 7 * 24 * time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

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
		_ = log.Sync()
	}()

	log.Info("Starting marketplace API",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
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
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	metrics := telemetry.NewMetrics(true)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.DefaultDBTracingConfig()
		dbTracing.Enabled = true
		dbTracing.LogFullSQL = cfg.App.Env != "production"
		if err := telemetry.NewDBTracingPlugin(dbTracing, log).Register(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}
	if sqlDB, err := db.SQLDB(); err == nil {
		metrics.WatchDBPool(sqlDB)
	}
	log.Info("Database connected successfully")

	// Redis backs carts, assistant history, onboarding progress and, when
	// configured, the realtime fan-out. Without it everything stays in memory.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing redis", zap.Error(err))
			}
		}()
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}
	kv := cache.NewStoreFactory(cache.WithLogger(log), cache.WithKeyPrefix("marketplace:")).CreateStore(redisClient)

	var push messaging.PushChannel
	if cfg.Realtime.Backend == "redis" && redisClient != nil {
		push = realtime.NewRedisPushChannel(redisClient,
			realtime.WithChannelPrefix(cfg.Realtime.ChannelPrefix),
			realtime.WithSubscriptionBuffer(cfg.Realtime.SubscriptionBuffer),
			realtime.WithDeliveryObserver(metrics.ObservePush),
			realtime.WithLogger(log),
		)
	} else {
		hub := realtime.NewMemoryHub(cfg.Realtime.SubscriptionBuffer, log)
		hub.SetDeliveryObserver(metrics.ObservePush)
		push = hub
	}
	log.Info("Realtime push channel ready", zap.String("backend", cfg.Realtime.Backend))

	// Object storage for avatars and shop logos
	var objects identityapp.ObjectStorage
	var memoryObjects *storage.MemoryObjectStorage
	if cfg.Storage.Enabled {
		s3Storage, err := storage.NewS3ObjectStorage(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		objects = s3Storage
	} else {
		memoryObjects = storage.NewMemoryObjectStorage("http://localhost:" + cfg.App.Port + "/uploads")
		objects = memoryObjects
		log.Warn("Object storage disabled, uploads are kept in memory")
	}

	// Repositories
	gdb := db.DB
	serviceRepo := persistence.NewGormServiceRepository(gdb)
	productRepo := persistence.NewGormProductRepository(gdb)
	bookingRepo := persistence.NewGormBookingRepository(gdb)
	orderRepo := persistence.NewGormOrderRepository(gdb)
	reviewRepo := persistence.NewGormReviewRepository(gdb)
	conversationRepo := persistence.NewGormConversationRepository(gdb)
	messageRepo := persistence.NewGormMessageRepository(gdb)
	profileRepo := persistence.NewGormProfileRepository(gdb)
	directoryRepo := persistence.NewGormDirectoryRepository(gdb)
	documentRepo := persistence.NewGormDocumentRepository(gdb)

	// Application services
	listingService := catalogapp.NewListingService(serviceRepo, log)
	productService := catalogapp.NewProductService(productRepo, log)
	bookingService := tradeapp.NewBookingService(bookingRepo, serviceRepo, log)
	orderService := tradeapp.NewOrderService(orderRepo, productRepo, log)
	orderService.SetTxRunner(db)
	reviewService := reviewapp.NewService(reviewRepo, serviceRepo, bookingRepo, log)
	conversationService := messagingapp.NewConversationService(conversationRepo, messageRepo, directoryRepo, push,
		messagingapp.WithConversationLimit(cfg.Realtime.ConversationLimit),
		messagingapp.WithTransactions(db),
		messagingapp.WithLogger(log),
	)
	profileService := identityapp.NewProfileService(profileRepo, directoryRepo, objects, log)
	cartService := cartapp.NewService(cache.NewCartStore(kv, cartTTL), productRepo, orderService, log)
	onboardingService := onboardingapp.NewService(profileRepo, cache.NewOnboardingStore(kv, onboardingTTL), log)

	responder, err := assistant.NewResponder(assistant.DefaultRules)
	if err != nil {
		log.Fatal("Failed to build assistant responder", zap.Error(err))
	}
	assistantService := assistantapp.NewService(cache.NewHistoryStore(kv), responder, log)

	documentOpts := []printingapp.ServiceOption{
		printingapp.WithLogger(log),
		printingapp.WithRenderObserver(metrics.ObserveDocumentRender),
	}
	if cfg.Documents.PDFEnabled {
		pdf := printing.NewChromedpRenderer(&printing.ChromedpConfig{
			DefaultTimeout: cfg.Documents.RenderTimeout,
			RemoteURL:      cfg.Documents.ChromeRemoteURL,
			NoSandbox:      cfg.Documents.ChromeNoSandbox,
			Logger:         log,
		})
		defer func() {
			if err := pdf.Close(); err != nil {
				log.Error("Error closing PDF renderer", zap.Error(err))
			}
		}()
		documentOpts = append(documentOpts, printingapp.WithPDFRenderer(pdf, cfg.Documents.RenderTimeout))
	}
	documentService := printingapp.NewDocumentService(documentRepo, printing.MustDocumentRenderer(), document.CompanyInfo{
		Name:    cfg.Documents.CompanyName,
		Address: cfg.Documents.CompanyAddress,
		Email:   cfg.Documents.CompanyEmail,
		Phone:   cfg.Documents.CompanyPhone,
		Website: cfg.Documents.CompanyWebsite,
		LogoURL: cfg.Documents.CompanyLogoURL,
	}, documentOpts...)

	// Event bus
	eventBus := event.NewInMemoryEventBus(log, event.WithObserver(metrics.ObserveEventHandler))

	messageSentHandler := messagingapp.NewMessageSentHandler(push, log)
	eventBus.Subscribe(messageSentHandler)
	orderCancelledHandler := tradeapp.NewOrderCancelledHandler(productRepo, log)
	eventBus.Subscribe(orderCancelledHandler)

	log.Info("Event handlers registered",
		zap.Strings("message_sent_events", messageSentHandler.EventTypes()),
		zap.Strings("order_cancelled_events", orderCancelledHandler.EventTypes()),
	)

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	conversationService.SetEventPublisher(eventBus)
	orderService.SetEventPublisher(eventBus)
	bookingService.SetEventPublisher(eventBus)

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order:
	// 1. RequestID  2. Tracing  3. Logger  4. Recovery  5. Metrics
	// 6. Security headers  7. CORS  8. Body limit
	engine.Use(middleware.RequestID())
	if cfg.Telemetry.Enabled {
		tracing := middleware.DefaultTracingConfig()
		tracing.ServiceName = cfg.Telemetry.ServiceName
		engine.Use(middleware.TracingWithConfig(tracing))
		engine.Use(middleware.SpanErrorMarker())
	}
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	if cfg.Telemetry.MetricsEnabled {
		engine.Use(middleware.HTTPMetrics(middleware.DefaultHTTPMetricsConfig(metrics)))
	}
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
		MaxBytes:    cfg.HTTP.MaxBodySize,
		UploadBytes: cfg.HTTP.MaxUploadSize,
	}))

	// System endpoints
	var redisPing handler.Pinger
	if redisClient != nil {
		redisPing = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	engine.GET("/health", handler.NewHealthHandler(map[string]handler.Pinger{
		"database": db.Ping,
		"redis":    redisPing,
	}).Check)
	if cfg.Telemetry.MetricsEnabled {
		engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	}
	if memoryObjects != nil {
		engine.GET("/uploads/*key", serveMemoryObject(memoryObjects))
	}

	jwtService := auth.NewJWTService(cfg.JWT)
	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.Logger = log
	jwtAuth := middleware.JWTAuthMiddlewareWithConfig(jwtConfig)

	swaggerCfg := middleware.SwaggerConfig{
		Enabled:    cfg.Swagger.Enabled,
		AllowedIPs: cfg.Swagger.AllowedIPs,
	}
	if cfg.Swagger.RequireAuth {
		swaggerCfg.Auth = jwtAuth
	}
	swaggerGuard, err := middleware.SwaggerGuard(swaggerCfg)
	if err != nil {
		log.Fatal("Invalid swagger allow list", zap.Error(err))
	}
	engine.GET("/swagger/*any", swaggerGuard, ginSwagger.WrapHandler(swaggerFiles.Handler))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(jwtAuth)
	if cfg.Telemetry.Enabled {
		r.Use(middleware.TracingAttributeInjector())
	}
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow, cfg.HTTP.RateLimitBurst)
		limiter.StartCleanup(ctx, time.Minute)
		r.Use(middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	routes := router.RegisterMarketplace(r, router.Handlers{
		Listings:      handler.NewListingHandler(listingService),
		Products:      handler.NewProductHandler(productService),
		Bookings:      handler.NewBookingHandler(bookingService),
		Orders:        handler.NewOrderHandler(orderService),
		Reviews:       handler.NewReviewHandler(reviewService),
		Profiles:      handler.NewProfileHandler(profileService),
		Cart:          handler.NewCartHandler(cartService),
		Assistant:     handler.NewAssistantHandler(assistantService),
		Onboarding:    handler.NewOnboardingHandler(onboardingService),
		Documents:     handler.NewDocumentHandler(documentService),
		Conversations: handler.NewConversationHandler(conversationService,
			handler.WithStreamObserver(metrics),
			handler.WithHeartbeat(cfg.Realtime.HeartbeatInterval),
			handler.WithAllowedOrigins(cfg.HTTP.CORSAllowOrigins),
		),
	}).Setup()
	log.Info("API routes mounted", zap.String("base", r.BasePath()), zap.Int("routes", len(routes)))
	for _, rt := range routes {
		log.Debug("Route", zap.String("group", rt.Group), zap.String("method", rt.Method), zap.String("path", rt.Path))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// serveMemoryObject serves uploads kept by the in-memory object storage
func serveMemoryObject(objects *storage.MemoryObjectStorage) gin.HandlerFunc {
	return func(c *gin.Context) {
		obj, ok := objects.Get(strings.TrimPrefix(c.Param("key"), "/"))
		if !ok {
			c.Status(http.StatusNotFound)
			return
		}
		c.Header("Cache-Control", "public, max-age=86400")
		c.Data(http.StatusOK, obj.ContentType, obj.Data)
	}
}
