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

	"coinchart/internal/bot"
	"coinchart/internal/cache"
	"coinchart/internal/config"
	"coinchart/internal/form"
	"coinchart/internal/handler"
	"coinchart/internal/interval"
	"coinchart/internal/job"
	"coinchart/internal/provider"
	"coinchart/internal/service"
	"coinchart/internal/session"
	"coinchart/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "coinchart/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	newCoinCapProviderFunc = func(tracer trace.Tracer, opts provider.CoinCapOptions) service.MarketDataProvider {
		return provider.NewCoinCapProvider(tracer, opts)
	}
	newChartServiceFunc    = service.NewChartService
	newPollerFunc          = job.NewPoller
	startPollerFunc        = func(p *job.Poller, ctx context.Context) { go p.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Coinchart API
// @version         1.0
// @description     Back end of the cryptocurrency price chart form: asset suggestions, interval ranges and price history.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initRedisFunc(ctx, cfg.RedisURL)

	tp, tracer, err := initTracerFunc(ctx, "coinchart")
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	table, err := interval.TableFromOverrides(cfg.IntervalOverrides)
	if err != nil {
		log.Fatalf("invalid INTERVAL_CODE_OVERRIDES: %v", err)
	}
	mapper := interval.NewMapper(table)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("invalid DISPLAY_TIMEZONE: %v", err)
	}

	ccProvider := newCoinCapProviderFunc(tracer, provider.CoinCapOptions{
		BaseURL:           cfg.CoinCapBaseURL,
		APIKey:            cfg.CoinCapAPIKey,
		RequestsPerMinute: cfg.CoinCapRPM,
	})
	chartService := newChartServiceFunc(tracer, ccProvider, cache.Redis(), cfg.SearchPageSize,
		time.Duration(cfg.CatalogCacheSecs)*time.Second)

	newForm := func() *form.Orchestrator {
		return form.New(tracer, chartService, mapper, form.Options{
			Debounce: time.Duration(cfg.SearchDebounceMs) * time.Millisecond,
			Timeout:  time.Duration(cfg.RequestTimeoutSec) * time.Second,
			Location: loc,
		})
	}
	sessions := session.NewStore(newForm, time.Duration(cfg.SessionTTLMins)*time.Minute)

	// Catalog warm-up only pays off when there is a cache to keep warm.
	var catalog job.CatalogRefresher
	if cache.Client != nil {
		catalog = chartService
	}
	poller := newPollerFunc(tracer, catalog, sessions, catalogRefreshSecs(cfg.CatalogCacheSecs), cfg.SessionSweepSecs)
	startPollerFunc(poller, ctx)

	startTelegramBotFunc(cfg.TelegramBotToken, bot.NewCommands(chartService, newForm, mapper.Labels()))

	h := newHandlerFunc(tracer, chartService, mapper, newForm, sessions)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("coinchart"))
	r.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)))

	h.RegisterRoutes(r, handler.APIKeyAuth(cfg.APIKey))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

// catalogRefreshSecs refreshes the cached catalog at half its TTL so the key
// is rewritten before it expires.
func catalogRefreshSecs(cacheSecs int) int {
	if cacheSecs <= 1 {
		return 1
	}
	return cacheSecs / 2
}

// corsConfig allows the listed browser origins, or any origin when none are set.
func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	c.AddAllowHeaders("X-API-Key")
	return c
}
