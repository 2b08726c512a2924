// PricingService 主程序
// 功能：美式期权定价，提供 CRR 二叉树与 Longstaff-Schwartz 最小二乘蒙特卡洛两种引擎
// 架构：DDD 分层 + Gin HTTP + Redis 缓存/限流 + Kafka 事件
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/optionpricing/internal/pricing/application"
	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/internal/pricing/infrastructure/messaging"
	rediscache "github.com/wyfcoding/optionpricing/internal/pricing/infrastructure/persistence/redis"
	httphandler "github.com/wyfcoding/optionpricing/internal/pricing/interfaces/http"
	"github.com/wyfcoding/optionpricing/pkg/cache"
	"github.com/wyfcoding/optionpricing/pkg/config"
	"github.com/wyfcoding/optionpricing/pkg/logger"
	"github.com/wyfcoding/optionpricing/pkg/metrics"
	"github.com/wyfcoding/optionpricing/pkg/middleware"
	"github.com/wyfcoding/optionpricing/pkg/mq"
	"github.com/wyfcoding/optionpricing/pkg/ratelimit"
)

func main() {
	configPath := flag.String("config", config.GetEnv("PRICING_CONFIG", "configs/pricing.toml"), "path to TOML config")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	if err := logger.Init(loggerConfig(cfg.Logger)); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Starting PricingService",
		"service", cfg.ServiceName,
		"version", cfg.Version,
		"environment", cfg.Environment,
		"default_model", cfg.Pricing.DefaultModel,
	)

	// 3. 初始化指标
	metricsInstance := metrics.New(cfg.ServiceName)
	collector := metrics.NewDefaultMetricsCollector(metricsInstance)

	// 4. 初始化依赖（Redis、Kafka 均为可选）
	deps, cleanup, err := initDependencies(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize dependencies", "error", err)
	}
	defer cleanup()

	// 5. 初始化应用服务
	service, err := application.NewPricingService(cfg.Pricing, deps.cache, deps.publisher, collector)
	if err != nil {
		logger.Fatal(ctx, "Failed to create pricing service", "error", err)
	}

	// 6. 创建并启动 HTTP 服务器
	httpServer := createHTTPServer(cfg, service, deps.limiter, metricsInstance, collector)
	go func() {
		logger.Info(ctx, "Starting HTTP server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(ctx, "HTTP server error", "error", err)
		}
	}()

	// 7. 优雅关停
	<-ctx.Done()
	logger.Info(context.Background(), "Shutting down PricingService")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "HTTP server shutdown error", "error", err)
	}

	logger.Info(shutdownCtx, "PricingService stopped")
}

type dependencies struct {
	cache     domain.PricingCache
	publisher domain.EventPublisher
	limiter   ratelimit.RateLimiter
}

func initDependencies(ctx context.Context, cfg *config.Config) (*dependencies, func(), error) {
	deps := &dependencies{limiter: ratelimit.NewLocalRateLimiter()}
	var closers []func() error

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn(context.Background(), "cleanup failed", "error", err)
			}
		}
	}

	if cfg.Redis.Enabled {
		redisCache, err := cache.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, redisCache.Close)
		deps.cache = rediscache.NewPricingRedisCache(redisCache)
		deps.limiter = ratelimit.NewRedisRateLimiter(redisCache.GetClient())
	}

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := mq.NewProducer(cfg.Kafka)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, producer.Close)
		deps.publisher = messaging.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
	}

	return deps, cleanup, nil
}

// createHTTPServer 创建 HTTP 服务器
func createHTTPServer(cfg *config.Config, service *application.PricingService, limiter ratelimit.RateLimiter, m *metrics.Metrics, collector *metrics.DefaultMetricsCollector) *http.Server {
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.GinLoggingMiddleware(collector),
		middleware.GinRecoveryMiddleware(),
		middleware.GinCORSMiddleware(),
		middleware.RateLimitMiddleware(limiter, cfg.RateLimit),
	)

	httphandler.NewPricingHandler(service).RegisterRoutes(router)
	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}

	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
}

func loggerConfig(c config.LoggerConfig) logger.Config {
	return logger.Config{
		Level:      c.Level,
		Format:     c.Format,
		Output:     c.Output,
		FilePath:   c.FilePath,
		MaxSize:    c.MaxSize,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxAge,
		Compress:   c.Compress,
		WithCaller: c.WithCaller,
	}
}
