package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coinchart/internal/cache"
	"coinchart/internal/config"
	"coinchart/internal/form"
	"coinchart/internal/interval"
	"coinchart/internal/mcptools"
	"coinchart/internal/provider"
	"coinchart/internal/service"
	"coinchart/pkg/tracing"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/trace"
)

const version = "1.0.0"

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	newCoinCapProviderFunc = func(tracer trace.Tracer, opts provider.CoinCapOptions) service.MarketDataProvider {
		return provider.NewCoinCapProvider(tracer, opts)
	}
	runStdioFunc = func(ctx context.Context, server *mcp.Server) error {
		return server.Run(ctx, &mcp.StdioTransport{})
	}
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initRedisFunc(ctx, cfg.RedisURL)

	tp, tracer, err := initTracerFunc(ctx, "coinchart-mcp")
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
	chartService := service.NewChartService(tracer, ccProvider, cache.Redis(), cfg.SearchPageSize,
		time.Duration(cfg.CatalogCacheSecs)*time.Second)

	newForm := func() *form.Orchestrator {
		return form.New(tracer, chartService, mapper, form.Options{
			Timeout:  time.Duration(cfg.RequestTimeoutSec) * time.Second,
			Location: loc,
		})
	}
	server := mcptools.NewServer(mcptools.New(chartService, newForm, mapper.Labels()), version)

	if cfg.MCPTransport == "http" {
		serveHTTP(ctx, cancel, server, fmt.Sprintf("%s:%d", cfg.MCPHTTPBind, cfg.MCPHTTPPort))
		return
	}

	log.Println("MCP server running on stdio")
	if err := runStdioFunc(ctx, server); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("MCP stdio session ended: %v", err)
	}
}

func serveHTTP(ctx context.Context, cancel context.CancelFunc, server *mcp.Server, addr string) {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		log.Printf("MCP server listening on http://%s", addr)
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down MCP server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Printf("MCP server shutdown error: %v", err)
	}
}
