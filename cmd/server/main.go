package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-stock-service/config"
	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/cachekey"
	"github.com/fekuna/omnipos-stock-service/internal/health"
	"github.com/fekuna/omnipos-stock-service/internal/invalidation"
	"github.com/fekuna/omnipos-stock-service/internal/metrics"
	"github.com/fekuna/omnipos-stock-service/internal/notification"
	"github.com/fekuna/omnipos-stock-service/internal/product"
	"github.com/fekuna/omnipos-stock-service/internal/readcache"
	"github.com/fekuna/omnipos-stock-service/internal/server"
	"github.com/fekuna/omnipos-stock-service/pkg/broker"
	"github.com/fekuna/omnipos-stock-service/pkg/cache"
	"github.com/fekuna/omnipos-stock-service/pkg/database/postgres"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/fekuna/omnipos-stock-service/pkg/middleware"
	"github.com/fekuna/omnipos-stock-service/pkg/search"

	alertH "github.com/fekuna/omnipos-stock-service/internal/alert/handler"
	alertRepoPkg "github.com/fekuna/omnipos-stock-service/internal/alert/repository"
	alertUCPkg "github.com/fekuna/omnipos-stock-service/internal/alert/usecase"

	catH "github.com/fekuna/omnipos-stock-service/internal/category/handler"
	catRepoPkg "github.com/fekuna/omnipos-stock-service/internal/category/repository"
	catUCPkg "github.com/fekuna/omnipos-stock-service/internal/category/usecase"

	invH "github.com/fekuna/omnipos-stock-service/internal/inventory/handler"
	invListenerPkg "github.com/fekuna/omnipos-stock-service/internal/inventory/listener"
	invRepoPkg "github.com/fekuna/omnipos-stock-service/internal/inventory/repository"
	invUCPkg "github.com/fekuna/omnipos-stock-service/internal/inventory/usecase"

	prodH "github.com/fekuna/omnipos-stock-service/internal/product/handler"
	prodRepoPkg "github.com/fekuna/omnipos-stock-service/internal/product/repository"
	prodUCPkg "github.com/fekuna/omnipos-stock-service/internal/product/usecase"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
		logConfig.Level = cfg.Logger.Level
	}
	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 5. Elasticsearch. The service runs without it and search falls back to SQL.
	var searchIndex product.SearchIndex
	if cfg.Elastic.Enabled {
		esClient, err := search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Elasticsearch, search uses the database", zap.Error(err))
		} else {
			if err := esClient.CreateIndex(ctx, product.IndexName, product.IndexMapping); err != nil {
				appLogger.Warn("Could not create search index", zap.String("index", product.IndexName), zap.Error(err))
			}
			searchIndex = esClient
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 6. Metrics, cache coordination
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg, cfg.Metrics.Namespace)
	}

	invalidator := invalidation.NewCoordinator(redisClient, m, appLogger)
	readThrough := readcache.New(redisClient, cachekey.TTLPolicy{
		Product:    cfg.Cache.ProductTTL,
		List:       cfg.Cache.ListTTL,
		Featured:   cfg.Cache.FeaturedTTL,
		Related:    cfg.Cache.RelatedTTL,
		Search:     cfg.Cache.SearchTTL,
		Categories: cfg.Cache.CategoriesTTL,
		OrderClaim: cfg.Cache.OrderDedupTTL,
	}, m, appLogger)

	// 7. Notifications
	var publisher notification.Publisher
	switch cfg.Notifier.Driver {
	case "kafka":
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.NotificationsTopic)
		defer producer.Close()
		publisher = notification.NewKafkaPublisher(producer)
	case "rabbitmq":
		rabbit, err := broker.NewRabbitMQPublisher(&broker.RabbitMQConfig{
			URL:      cfg.RabbitMQ.URL,
			Exchange: cfg.RabbitMQ.Exchange,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to RabbitMQ", zap.Error(err))
		}
		defer rabbit.Close()
		publisher = notification.NewAMQPPublisher(rabbit)
	default:
		publisher = notification.NewLogPublisher(appLogger)
	}
	appLogger.Info("Notifier ready", zap.String("driver", cfg.Notifier.Driver))

	// 8. Repositories
	catRepo := catRepoPkg.NewPGRepository(db)
	prodRepo := prodRepoPkg.NewPGRepository(db)
	invRepo := invRepoPkg.NewPGRepository(db)
	alertRepo := alertRepoPkg.NewPGRepository(db)

	// 9. UseCases
	alertUC := alertUCPkg.NewAlertUseCase(alertRepo, publisher, m, appLogger)
	invUC := invUCPkg.NewInventoryUseCase(invRepo, alertUC, publisher, invalidator, m, invUCPkg.Config{
		LowStockThreshold: cfg.Inventory.LowStockThreshold,
		MaxRetries:        cfg.Inventory.MaxRetries,
	}, appLogger)
	prodUC := prodUCPkg.NewProductUseCase(prodRepo, invUC, invalidator, readThrough, searchIndex, appLogger)
	catUC := catUCPkg.NewCategoryUseCase(catRepo, invalidator, readThrough, appLogger)

	// 10. Order events
	if cfg.Kafka.ConsumerEnabled {
		kafkaConsumer := broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer kafkaConsumer.Close()
		appLogger.Info("Connected to Kafka Consumer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

		invListener := invListenerPkg.NewInventoryListener(kafkaConsumer, redisClient, cfg.Cache.OrderDedupTTL, invUC, m, appLogger)
		go invListener.Start(ctx)
	}

	// 11. Health
	checker := health.NewChecker(2*time.Second, appLogger)
	checker.Register("postgres", db.PingContext)
	checker.Register("redis", redisClient.Ping)

	// 12. HTTP server
	jwtUtil := auth.NewJWTUtil(&auth.JWTConfig{
		Secret: cfg.JWT.SecretKey,
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.TTL,
	})
	router := server.NewRouter(server.Handlers{
		Product:   prodH.NewProductHandler(prodUC, appLogger),
		Category:  catH.NewCategoryHandler(catUC, appLogger),
		Inventory: invH.NewInventoryHandler(invUC, appLogger),
		Alert:     alertH.NewAlertHandler(alertUC, appLogger),
		Health:    checker,
	}, jwtUtil, m, appLogger)

	httpServer := &http.Server{
		Addr:              withColon(cfg.Server.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve http", zap.Error(err))
		}
	}()

	// 13. gRPC health server
	lis, err := net.Listen("tcp", withColon(cfg.Server.GRPCPort))
	if err != nil {
		appLogger.Fatal("failed to listen", zap.Error(err))
	}
	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(middleware.UnaryLoggingInterceptor(appLogger)),
	)
	healthServer := grpchealth.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	go checker.Watch(ctx, healthServer, 15*time.Second)

	go func() {
		appLogger.Info("Starting gRPC server", zap.String("port", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve grpc", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("http shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}

func withColon(port string) string {
	if !strings.HasPrefix(port, ":") && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
