package service

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"coinchart/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	catalogCacheKey        = "coinchart:assets:catalog"
	defaultCatalogCacheTTL = 5 * time.Minute
)

// MarketDataProvider is the upstream market data API.
type MarketDataProvider interface {
	ListAssets(ctx context.Context, limit int) ([]domain.Asset, error)
	FetchHistory(ctx context.Context, assetID, code string, start, end time.Time) ([]domain.HistoryPoint, error)
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// ChartService serves asset suggestions and price history to the form front-ends.
type ChartService struct {
	tracer   trace.Tracer
	provider MarketDataProvider
	redis    RedisClient
	pageSize int
	cacheTTL time.Duration
}

func NewChartService(
	tracer trace.Tracer,
	provider MarketDataProvider,
	redisClient RedisClient,
	pageSize int,
	cacheTTL time.Duration,
) *ChartService {
	if cacheTTL <= 0 {
		cacheTTL = defaultCatalogCacheTTL
	}
	return &ChartService{
		tracer:   tracer,
		provider: provider,
		redis:    redisClient,
		pageSize: pageSize,
		cacheTTL: cacheTTL,
	}
}

// SearchAssets returns catalog entries whose name contains query, ignoring case.
// The catalog is read from Redis when cached, otherwise from the provider.
func (s *ChartService) SearchAssets(ctx context.Context, query string) ([]domain.Asset, error) {
	ctx, span := s.tracer.Start(ctx, "chart-service.search-assets")
	defer span.End()

	catalog, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}

	matches := FilterByName(catalog, query)
	span.SetAttributes(
		attribute.Int("catalog_size", len(catalog)),
		attribute.Int("matches", len(matches)),
	)
	return matches, nil
}

// FetchHistory fetches the raw price series for one asset.
func (s *ChartService) FetchHistory(ctx context.Context, assetID, code string, start, end time.Time) ([]domain.HistoryPoint, error) {
	ctx, span := s.tracer.Start(ctx, "chart-service.fetch-history")
	defer span.End()

	return s.provider.FetchHistory(ctx, assetID, code, start, end)
}

// RefreshCatalog reloads the catalog from the provider and caches it.
func (s *ChartService) RefreshCatalog(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "chart-service.refresh-catalog")
	defer span.End()

	assets, err := s.provider.ListAssets(ctx, s.pageSize)
	if err != nil {
		return err
	}
	if s.redis != nil {
		if err := s.setCatalogCache(ctx, assets); err != nil {
			log.Printf("redis cache write error for catalog: %v", err)
		}
	}

	log.Printf("Refreshed asset catalog (%d assets)", len(assets))
	return nil
}

func (s *ChartService) catalog(ctx context.Context) ([]domain.Asset, error) {
	if s.redis != nil {
		cached, err := s.getCatalogCache(ctx)
		if err != nil {
			log.Printf("redis cache read error: %v", err)
		}
		if cached != nil {
			return cached, nil
		}
	}

	assets, err := s.provider.ListAssets(ctx, s.pageSize)
	if err != nil {
		return nil, err
	}
	if s.redis != nil {
		_ = s.setCatalogCache(ctx, assets)
	}
	return assets, nil
}

// FilterByName keeps the assets whose name contains query, case-insensitively.
// Symbols are not matched. An empty query keeps everything.
func FilterByName(assets []domain.Asset, query string) []domain.Asset {
	needle := strings.ToLower(query)
	out := make([]domain.Asset, 0, len(assets))
	for _, a := range assets {
		if strings.Contains(strings.ToLower(a.Name), needle) {
			out = append(out, a)
		}
	}
	return out
}

func (s *ChartService) setCatalogCache(ctx context.Context, assets []domain.Asset) error {
	data, err := json.Marshal(assets)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, catalogCacheKey, data, s.cacheTTL).Err()
}

func (s *ChartService) getCatalogCache(ctx context.Context) ([]domain.Asset, error) {
	data, err := s.redis.Get(ctx, catalogCacheKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var assets []domain.Asset
	if err := json.Unmarshal(data, &assets); err != nil {
		return nil, err
	}
	return assets, nil
}
