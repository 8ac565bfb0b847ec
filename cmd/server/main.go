package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/dharmasatrya/flightclaim/internal/cache"
	"github.com/dharmasatrya/flightclaim/internal/config"
	"github.com/dharmasatrya/flightclaim/internal/handler"
	"github.com/dharmasatrya/flightclaim/internal/locations"
	"github.com/dharmasatrya/flightclaim/internal/logging"
	"github.com/dharmasatrya/flightclaim/internal/metrics"
	"github.com/dharmasatrya/flightclaim/internal/persist"
	"github.com/dharmasatrya/flightclaim/internal/providers"
	"github.com/dharmasatrya/flightclaim/internal/ratelimit"
	"github.com/dharmasatrya/flightclaim/internal/search"
	"github.com/dharmasatrya/flightclaim/internal/timezone"
	"github.com/dharmasatrya/flightclaim/internal/wizard"
)

func main() {
	cfg := config.Load()
	if err := logging.Init(cfg.AppEnv); err != nil {
		panic(err)
	}
	defer func() { _ = logging.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var redisClient *redis.Client
	if cfg.NeedsRedis() {
		client, err := cache.NewRedisClient(cache.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			TTL:      cfg.RedisTTL,
		})
		if err != nil {
			logging.Fatal("failed to connect to redis", "host", cfg.RedisHost, "port", cfg.RedisPort, "error", err)
		}
		redisClient = client
		defer redisClient.Close()
		logging.Info("redis connected", "host", cfg.RedisHost, "port", cfg.RedisPort)
	}

	flightCache := initializeCache(cfg, redisClient)
	defer flightCache.Close()

	stateStore, err := persist.Open(persist.Config{
		Backend: cfg.StateBackend,
		DSN:     cfg.StateDSN,
		TTL:     cfg.StateTTL,
		Redis:   redisClient,
	})
	if err != nil {
		logging.Fatal("failed to open state store", "backend", cfg.StateBackend, "error", err)
	}
	defer stateStore.Close()
	logging.Info("state store ready", "backend", stateStore.Name(), "ttl", cfg.StateTTL)

	known, err := locations.NewRegistry(cfg.KnownLocationsSize)
	if err != nil {
		logging.Fatal("failed to create location registry", "error", err)
	}

	provider, err := initializeProvider(cfg)
	if err != nil {
		logging.Fatal("failed to initialize search provider", "error", err)
	}

	rateLimiter := ratelimit.New(ratelimit.ForSearch(ratelimit.Rate{
		PerSecond: cfg.SearchRateRPS,
		Burst:     cfg.SearchRateBurst,
	}), ratelimit.WithObserver(m.ObserveRateLimitWait))

	defaultZone := timezone.GetLocationByName(cfg.DefaultTimezone, time.Local)

	searchConfig := search.DefaultConfig()
	searchConfig.Timeout = cfg.SearchTimeout
	searchConfig.MaxRetries = cfg.SearchMaxRetries
	searchConfig.Location = defaultZone

	orchestrator := search.NewOrchestrator(provider, searchConfig,
		search.WithCache(flightCache),
		search.WithLocations(known),
		search.WithRateLimiter(rateLimiter),
		search.WithMetrics(m),
	)

	claims := wizard.NewManager(wizard.Dependencies{
		Search:        orchestrator,
		Store:         stateStore,
		Metrics:       m,
		MinConnection: cfg.MinConnectionTime,
		Location:      defaultZone,
	})
	defer claims.Close()

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(requestLogger())
	e.Use(m.Middleware())

	api := e.Group("/api/v1")
	handler.NewClaimHandler(claims).Register(api)
	api.GET("/airports", handler.NewAirportHandler(orchestrator).Search)
	e.GET("/health", handler.HealthHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	go func() {
		logging.Info("starting flight claim server", "port", cfg.Port, "provider", provider.Name())
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logging.Error("server forced to shutdown", "error", err)
	}
	logging.Info("server exiting")
}

func initializeCache(cfg config.Config, client *redis.Client) cache.Cache {
	switch cfg.CacheBackend {
	case "redis":
		logging.Info("redis search cache enabled", "ttl", cfg.RedisTTL)
		return cache.NewRedisCacheWithClient(client, cfg.RedisTTL)
	case "none":
		logging.Info("search cache disabled")
		return cache.NewNoOpCache()
	default:
		logging.Info("in-memory search cache enabled", "ttl", cfg.RedisTTL)
		return cache.NewMemoryCache(cfg.RedisTTL)
	}
}

// initializeProvider uses the HTTP collaborator when a base URL is set and
// the bundled fixture data otherwise.
func initializeProvider(cfg config.Config) (providers.Provider, error) {
	if cfg.SearchBaseURL == "" {
		logging.Warn("SEARCH_BASE_URL not set, serving fixture data", "path", cfg.SearchFixturePath)
		return providers.NewFixtureProvider(cfg.SearchFixturePath)
	}

	opts := []providers.HTTPOption{
		providers.WithHTTPClient(&http.Client{Timeout: cfg.SearchTimeout}),
	}
	if cfg.SearchAPIKey != "" {
		opts = append(opts, providers.WithAPIKey(cfg.SearchAPIKey))
	}
	return providers.NewHTTPProvider(cfg.SearchBaseURL, opts...), nil
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			kv := []interface{}{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				logging.Warn("request failed", append(kv, "error", v.Error)...)
				return nil
			}
			logging.Debug("request", kv...)
			return nil
		},
	})
}
