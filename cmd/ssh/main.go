package main

import (
	"context"
	"fmt"
	"log"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"coinchart/internal/cache"
	"coinchart/internal/config"
	"coinchart/internal/form"
	"coinchart/internal/interval"
	"coinchart/internal/provider"
	"coinchart/internal/service"
	"coinchart/internal/tui"
	"coinchart/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
	gossh "golang.org/x/crypto/ssh"
	"go.opentelemetry.io/otel/trace"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	newCoinCapProviderFunc = func(tracer trace.Tracer, opts provider.CoinCapOptions) service.MarketDataProvider {
		return provider.NewCoinCapProvider(tracer, opts)
	}
	newChartServiceFunc = service.NewChartService
	newWishServerFunc   = wish.NewServer
	setupSignalNotify   = ossignal.Notify
	waitForSignalFunc   = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initRedisFunc(ctx, cfg.RedisURL)

	tp, tracer, err := initTracerFunc(ctx, "coinchart-ssh")
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

	allowed := fingerprintSet(cfg.SSHAllowedFingerprints)
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.SSHPort)

	srv, err := newWishServerFunc(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithPublicKeyAuth(func(ctx ssh.Context, key ssh.PublicKey) bool {
			fingerprint := gossh.FingerprintSHA256(key)
			if !allowed.permits(fingerprint) {
				log.Printf("SSH auth denied: user=%s fingerprint=%s", ctx.User(), fingerprint)
				return false
			}
			log.Printf("SSH auth accepted: user=%s fingerprint=%s", ctx.User(), fingerprint)
			return true
		}),
		wish.WithMiddleware(
			bubbletea.Middleware(func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
				changes := tui.NewChanges()
				f := form.New(tracer, chartService, mapper, form.Options{
					Debounce: time.Duration(cfg.SearchDebounceMs) * time.Millisecond,
					Timeout:  time.Duration(cfg.RequestTimeoutSec) * time.Second,
					Location: loc,
					OnChange: changes.Notify,
				})
				go func() {
					<-s.Context().Done()
					f.Close()
				}()

				model := tui.New(f, changes)
				pty, _, _ := s.Pty()
				model.SetSize(pty.Window.Width, pty.Window.Height)

				return model, []tea.ProgramOption{tea.WithAltScreen()}
			}),
			logging.Middleware(),
		),
	)
	if err != nil {
		log.Fatalf("failed to create SSH server: %v", err)
	}

	if srv != nil {
		go func() {
			log.Printf("SSH server listening on %s", addr)
			if err := srv.ListenAndServe(); err != nil {
				log.Printf("SSH server stopped: %v", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down SSH server...")

	cancel()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("SSH server shutdown error: %v", err)
		}
	}

	log.Println("SSH server exited")
}

// allowList holds SHA256 key fingerprints. An empty list admits every key.
type allowList map[string]struct{}

func fingerprintSet(fingerprints []string) allowList {
	set := make(allowList, len(fingerprints))
	for _, fp := range fingerprints {
		fp = strings.TrimSpace(fp)
		if fp == "" {
			continue
		}
		if !strings.HasPrefix(fp, "SHA256:") {
			fp = "SHA256:" + fp
		}
		set[fp] = struct{}{}
	}
	return set
}

func (a allowList) permits(fingerprint string) bool {
	if len(a) == 0 {
		return true
	}
	_, ok := a[fingerprint]
	return ok
}
