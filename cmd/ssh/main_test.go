package main

import (
	"context"
	"os"
	"testing"
	"time"

	"coinchart/internal/config"
	"coinchart/internal/domain"
	"coinchart/internal/provider"
	"coinchart/internal/service"

	"github.com/charmbracelet/ssh"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMainBootstrap(t *testing.T) {
	restore := stubSSHDeps()
	defer restore()

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

func TestFingerprintAllowList(t *testing.T) {
	open := fingerprintSet(nil)
	if !open.permits("SHA256:anything") {
		t.Error("expected empty allow list to admit every key")
	}

	set := fingerprintSet([]string{"SHA256:abc", " def ", ""})
	if !set.permits("SHA256:abc") {
		t.Error("expected listed fingerprint to be admitted")
	}
	if !set.permits("SHA256:def") {
		t.Error("expected fingerprint without prefix to be normalised")
	}
	if set.permits("SHA256:xyz") {
		t.Error("expected unlisted fingerprint to be denied")
	}
}

func stubSSHDeps() func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origNewProvider := newCoinCapProviderFunc
	origNewWishServer := newWishServerFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			SSHPort:          2222,
			SSHHostKeyPath:   ".ssh/test_key",
			SearchDebounceMs: 500,
			DisplayTimezone:  "Local",
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
	newWishServerFunc = func(ops ...ssh.Option) (*ssh.Server, error) {
		return nil, nil
	}
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		newCoinCapProviderFunc = origNewProvider
		newWishServerFunc = origNewWishServer
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
