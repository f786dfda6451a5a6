package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"coinchart/internal/domain"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	coincapBaseURL = "https://api.coincap.io/v2"

	// DefaultPageSize is how much of the catalog one listing call asks for.
	// The upstream cannot filter by name, so the whole page is filtered locally.
	DefaultPageSize = 1200
)

// CoinCapProvider reads the asset catalog and price history from the CoinCap REST API.
type CoinCapProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	tracer  trace.Tracer
	limiter *rate.Limiter
}

// CoinCapOptions tunes a CoinCapProvider. Zero values fall back to defaults.
type CoinCapOptions struct {
	BaseURL string
	APIKey  string
	// RequestsPerMinute caps outbound calls; bursts of up to 5 are allowed.
	RequestsPerMinute int
}

// NewCoinCapProvider creates a provider with built-in rate limiting.
// No client timeout is set here; callers bound each call through ctx.
func NewCoinCapProvider(tracer trace.Tracer, opts CoinCapOptions) *CoinCapProvider {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = coincapBaseURL
	}
	rpm := opts.RequestsPerMinute
	if rpm <= 0 {
		rpm = 120
	}
	return &CoinCapProvider{
		client:  &http.Client{},
		baseURL: baseURL,
		apiKey:  opts.APIKey,
		tracer:  tracer,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 5),
	}
}

// ListAssets returns up to limit assets from the catalog in upstream rank order.
func (p *CoinCapProvider) ListAssets(ctx context.Context, limit int) ([]domain.Asset, error) {
	ctx, span := p.tracer.Start(ctx, "coincap.list-assets")
	defer span.End()

	if limit <= 0 {
		limit = DefaultPageSize
	}
	span.SetAttributes(attribute.Int("limit", limit))

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	body, err := p.doRequest(ctx, "list assets", "/assets?"+q.Encode())
	if err != nil {
		return nil, err
	}

	// Response shape: {"data": [{"id": "bitcoin", "name": "Bitcoin", "symbol": "BTC", ...}], "timestamp": ...}
	var raw struct {
		Data []struct {
			ID     string `json:"id"`
			Name   string `json:"name"`
			Symbol string `json:"symbol"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &domain.NetworkError{Op: "list assets", Err: fmt.Errorf("parse body: %w", err)}
	}

	assets := make([]domain.Asset, 0, len(raw.Data))
	for _, a := range raw.Data {
		if a.ID == "" {
			continue
		}
		assets = append(assets, domain.Asset{ID: a.ID, Name: a.Name, Symbol: a.Symbol})
	}
	return assets, nil
}

// FetchHistory returns the price series of assetID sampled at the given
// granularity code between start and end. Parameters are passed through as-is.
func (p *CoinCapProvider) FetchHistory(ctx context.Context, assetID, code string, start, end time.Time) ([]domain.HistoryPoint, error) {
	ctx, span := p.tracer.Start(ctx, "coincap.fetch-history")
	defer span.End()

	span.SetAttributes(
		attribute.String("asset_id", assetID),
		attribute.String("interval", code),
	)

	if assetID == "" {
		return nil, &domain.NetworkError{Op: "fetch history", Err: fmt.Errorf("empty asset id")}
	}

	q := url.Values{}
	q.Set("interval", code)
	q.Set("start", strconv.FormatInt(start.UnixMilli(), 10))
	q.Set("end", strconv.FormatInt(end.UnixMilli(), 10))
	path := "/assets/" + url.PathEscape(assetID) + "/history?" + q.Encode()

	body, err := p.doRequest(ctx, "fetch history", path)
	if err != nil {
		return nil, err
	}

	// Response shape: {"data": [{"priceUsd": "97000.12", "time": 1700000000000, "date": "..."}]}
	var raw struct {
		Data []struct {
			PriceUSD string `json:"priceUsd"`
			Time     int64  `json:"time"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &domain.NetworkError{Op: "fetch history", Err: fmt.Errorf("parse body: %w", err)}
	}

	points := make([]domain.HistoryPoint, 0, len(raw.Data))
	for _, d := range raw.Data {
		price, err := decimal.NewFromString(d.PriceUSD)
		if err != nil {
			return nil, &domain.NetworkError{Op: "fetch history", Err: fmt.Errorf("parse price %q: %w", d.PriceUSD, err)}
		}
		points = append(points, domain.HistoryPoint{PriceUSD: price, TimeMs: d.Time})
	}
	span.SetAttributes(attribute.Int("points", len(points)))
	return points, nil
}

func (p *CoinCapProvider) doRequest(ctx context.Context, op, path string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, &domain.NetworkError{Op: op, Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return nil, &domain.NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &domain.NetworkError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("coincap API error: %s", string(body))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.NetworkError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}
