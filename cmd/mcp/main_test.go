package main

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"coinchart/internal/config"
	"coinchart/internal/domain"
	"coinchart/internal/provider"
	"coinchart/internal/service"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func runMain(t *testing.T) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
}

func TestMainStdio(t *testing.T) {
	restore := stubMCPDeps("stdio")
	defer restore()

	ran := false
	runStdioFunc = func(ctx context.Context, server *mcp.Server) error {
		ran = server != nil
		return nil
	}
	runMain(t)

	if !ran {
		t.Error("expected stdio transport to run")
	}
}

func TestMainHTTP(t *testing.T) {
	restore := stubMCPDeps("http")
	defer restore()

	addr := make(chan string, 1)
	startHTTPServerFunc = func(srv *http.Server) error {
		addr <- srv.Addr
		return http.ErrServerClosed
	}
	runStdioFunc = func(context.Context, *mcp.Server) error {
		t.Error("stdio transport must not run in http mode")
		return nil
	}
	runMain(t)

	select {
	case got := <-addr:
		if got != "127.0.0.1:8090" {
			t.Errorf("unexpected listen address %q", got)
		}
	case <-time.After(time.Second):
		t.Error("http server never started")
	}
}

func stubMCPDeps(transport string) func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origNewProvider := newCoinCapProviderFunc
	origRunStdio := runStdioFunc
	origStartHTTP := startHTTPServerFunc
	origShutdownHTTP := shutdownHTTPServerFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			MCPTransport:    transport,
			MCPHTTPBind:     "127.0.0.1",
			MCPHTTPPort:     8090,
			DisplayTimezone: "UTC",
		}
	}
	initRedisFunc = func(context.Context, string) {}
	initTracerFunc = func(ctx context.Context, serviceName string) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	newCoinCapProviderFunc = func(trace.Tracer, provider.CoinCapOptions) service.MarketDataProvider {
		return stubMarketData{}
	}
	shutdownHTTPServerFunc = func(*http.Server, context.Context) error { return nil }
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		newCoinCapProviderFunc = origNewProvider
		runStdioFunc = origRunStdio
		startHTTPServerFunc = origStartHTTP
		shutdownHTTPServerFunc = origShutdownHTTP
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
	}
}

type stubMarketData struct{}

func (stubMarketData) ListAssets(ctx context.Context, limit int) ([]domain.Asset, error) {
	return nil, nil
}

func (stubMarketData) FetchHistory(ctx context.Context, assetID, code string, start, end time.Time) ([]domain.HistoryPoint, error) {
	return nil, nil
}
