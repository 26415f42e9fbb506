package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adboard/internal/config"
	"adboard/internal/delivery/handler"
	"adboard/internal/delivery/router"
	"adboard/internal/editor"
	"adboard/internal/infrastructure/events"
	"adboard/internal/infrastructure/imagefile"
	"adboard/internal/infrastructure/kv"
	"adboard/internal/infrastructure/metrics"
	"adboard/internal/infrastructure/objectstore"
	"adboard/internal/repository"
	"adboard/internal/service"
	"adboard/pkg/database"
	"adboard/pkg/logger"
	"adboard/pkg/utils"

	"github.com/go-chi/chi/v5"
	redisClient "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func main() {
	cfg := config.MustLoadConfig()

	loggers, err := logger.SetupLogger(cfg.Logger.Level)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}
	loggers.InfoLogger.Info("Logger initialized")

	store, cleanupStore := setupStore(cfg, loggers)
	defer cleanupStore()

	tracerProvider := setupTracer(cfg, loggers)
	defer shutdownTracer(tracerProvider, loggers)

	publisher, cleanupPublisher := setupPublisher(cfg, loggers)
	defer cleanupPublisher()

	imageReader := setupImageReader(cfg, loggers)

	handlerMetrics := metrics.NewHandlerMetrics(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	boardMetrics := metrics.NewBoardMetrics(prometheus.DefaultRegisterer)
	storeMetrics := metrics.NewStoreMetrics(prometheus.DefaultRegisterer)
	loggers.InfoLogger.Info("Prometheus metrics initialized")

	adRepo := repository.NewKVAdRepository(store, storeMetrics)
	board := service.NewBoardService(context.Background(), adRepo, publisher, boardMetrics, loggers, cfg.Board.PageSize)
	loggers.InfoLogger.Info("Board and repository layers initialized", "storage", cfg.Storage.Driver)

	workspace := editor.NewWorkspace(board, imageReader, editor.NewClipboard())
	defer workspace.Close()

	adHandler := handler.NewAdHandler(board, workspace, loggers, cfg.Images.MaxBytes)

	r := chi.NewRouter()
	router.SetupAdRoutes(r, adHandler, handlerMetrics, cfg.HTTP.CORSOrigins)
	loggers.InfoLogger.Info("Router and routes initialized")

	r.Handle("/metrics", handlerMetrics.HTTPHandler())

	server := startServer(cfg, r, loggers)

	waitForShutdown(server, loggers)
}

func setupStore(cfg *config.Config, loggers *logger.Loggers) (kv.Store, func()) {
	switch cfg.Storage.Driver {
	case "memory":
		loggers.InfoLogger.Info("Using in-memory storage")
		return kv.NewMemoryStore(), func() {}
	case "redis":
		return setupRedis(cfg, loggers)
	case "mysql":
		return setupDatabase(cfg, loggers)
	default:
		loggers.ErrorLogger.Error("Unknown storage driver", "driver", cfg.Storage.Driver)
		os.Exit(1)
		return nil, nil
	}
}

func setupDatabase(cfg *config.Config, loggers *logger.Loggers) (kv.Store, func()) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name)

	db, err := database.NewDatabase(dsn)
	if err != nil {
		loggers.ErrorLogger.Error("Failed to connect to database", utils.Err(err))
		os.Exit(1)
	}
	loggers.InfoLogger.Info("Connected to database")

	store := kv.NewMySQLStore(db)
	if err := store.EnsureSchema(context.Background()); err != nil {
		loggers.ErrorLogger.Error("Failed to prepare storage table", utils.Err(err))
		os.Exit(1)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			loggers.ErrorLogger.Error("Failed to close database connection", utils.Err(err))
		}
	}

	return store, cleanup
}

func setupRedis(cfg *config.Config, loggers *logger.Loggers) (kv.Store, func()) {
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		loggers.ErrorLogger.Error("Failed to connect to Redis", utils.Err(err))
		os.Exit(1)
	}
	loggers.InfoLogger.Info("Connected to Redis")

	cleanup := func() {
		if err := rdb.Close(); err != nil {
			loggers.ErrorLogger.Error("Failed to close Redis client", utils.Err(err))
		}
	}

	return kv.NewRedisStore(rdb), cleanup
}

func setupTracer(cfg *config.Config, loggers *logger.Loggers) *sdktrace.TracerProvider {
	if !cfg.Tracing.Enabled {
		return nil
	}

	tracerProvider, err := metrics.InitTracer(
		cfg.Tracing.ServiceName,
		cfg.Tracing.Environment,
		cfg.Tracing.Version,
		cfg.Tracing.Endpoint,
	)
	if err != nil {
		loggers.ErrorLogger.Error("Failed to initialize tracer, continuing without tracing", utils.Err(err))
		return nil
	}
	loggers.InfoLogger.Info("OpenTelemetry Tracer initialized")
	return tracerProvider
}

func shutdownTracer(tp *sdktrace.TracerProvider, loggers *logger.Loggers) {
	if tp == nil {
		return
	}
	if err := tp.Shutdown(context.Background()); err != nil {
		loggers.ErrorLogger.Error("Failed to shut down tracer provider", utils.Err(err))
	}
}

func setupPublisher(cfg *config.Config, loggers *logger.Loggers) (events.Publisher, func()) {
	if !cfg.NATS.Enabled {
		return nil, func() {}
	}

	publisher, err := events.NewNATSPublisher(cfg.NATS.URL)
	if err != nil {
		loggers.ErrorLogger.Error("Failed to connect to NATS", utils.Err(err))
		os.Exit(1)
	}
	loggers.InfoLogger.Info("Connected to NATS", "url", cfg.NATS.URL)

	cleanup := func() {
		if err := publisher.Close(); err != nil {
			loggers.ErrorLogger.Error("Failed to drain NATS connection", utils.Err(err))
		}
	}

	return publisher, cleanup
}

func setupImageReader(cfg *config.Config, loggers *logger.Loggers) imagefile.Reader {
	if cfg.Images.Backend != "minio" {
		return imagefile.NewDataURLReader(cfg.Images.MaxBytes)
	}

	reader, err := objectstore.NewMinioReader(
		context.Background(),
		cfg.Minio.Endpoint,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.Bucket,
		cfg.Minio.UseSSL,
		cfg.Images.MaxBytes,
		loggers,
	)
	if err != nil {
		loggers.ErrorLogger.Error("Failed to connect to MinIO", utils.Err(err))
		os.Exit(1)
	}
	loggers.InfoLogger.Info("Storing images in MinIO", "bucket", cfg.Minio.Bucket)
	return reader
}

func startServer(cfg *config.Config, handler http.Handler, loggers *logger.Loggers) *http.Server {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.Timeout,
		WriteTimeout: cfg.HTTP.Timeout,
	}

	go func() {
		loggers.InfoLogger.Info("Starting server", "port", cfg.HTTP.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			loggers.ErrorLogger.Error("Failed to start server", utils.Err(err))
			os.Exit(1)
		}
	}()

	return server
}

func waitForShutdown(server *http.Server, loggers *logger.Loggers) {
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	<-shutdownCh
	loggers.InfoLogger.Info("Shutdown signal received, shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		loggers.ErrorLogger.Error("Server forced to shutdown", utils.Err(err))
	} else {
		loggers.InfoLogger.Info("Server shutdown gracefully")
	}
}
