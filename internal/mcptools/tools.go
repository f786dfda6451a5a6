// Package mcptools exposes asset search and price charts as MCP tools.
package mcptools

import (
	"context"
	"errors"
	"log"
	"strings"

	"coinchart/internal/chart"
	"coinchart/internal/domain"
	"coinchart/internal/form"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const sparkWidth = 48

type AssetSearcher interface {
	SearchAssets(ctx context.Context, query string) ([]domain.Asset, error)
}

type SearchInput struct {
	Query string `json:"query" jsonschema:"part of the cryptocurrency name, matched case-insensitively"`
}

type SearchOutput struct {
	Assets []domain.Asset `json:"assets"`
}

type ChartInput struct {
	Crypto   string `json:"crypto" jsonschema:"exact cryptocurrency name as returned by search_assets"`
	Interval string `json:"interval" jsonschema:"interval label such as 1 day or 1 year"`
}

type ChartOutput struct {
	View      form.View `json:"view"`
	Sparkline string    `json:"sparkline,omitempty"`
}

type Tools struct {
	assets    AssetSearcher
	newForm   func() *form.Orchestrator
	intervals []string
}

func New(assets AssetSearcher, newForm func() *form.Orchestrator, intervals []string) *Tools {
	return &Tools{assets: assets, newForm: newForm, intervals: intervals}
}

// NewServer registers the tools on a fresh MCP server.
func NewServer(t *Tools, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "coinchart", Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_assets",
		Description: "Find cryptocurrencies whose name contains the query.",
	}, t.SearchAssets)

	mcp.AddTool(server, &mcp.Tool{
		Name: "price_chart",
		Description: "Fetch the USD price history of a cryptocurrency over an interval. Valid intervals: " +
			strings.Join(t.intervals, ", ") + ".",
	}, t.PriceChart)

	return server
}

func (t *Tools) SearchAssets(ctx context.Context, req *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	assets, err := t.assets.SearchAssets(ctx, strings.TrimSpace(in.Query))
	if err != nil {
		log.Printf("mcp search error for %q: %v", in.Query, err)
		return nil, SearchOutput{}, errors.New(form.GenericErrorMessage)
	}
	if assets == nil {
		assets = []domain.Asset{}
	}
	return nil, SearchOutput{Assets: assets}, nil
}

func (t *Tools) PriceChart(ctx context.Context, req *mcp.CallToolRequest, in ChartInput) (*mcp.CallToolResult, ChartOutput, error) {
	fields := form.Fields{Crypto: strings.TrimSpace(in.Crypto), Interval: strings.TrimSpace(in.Interval)}
	if err := form.Validate(fields); err != nil {
		return nil, ChartOutput{}, err
	}

	f := t.newForm()
	defer f.Close()

	if _, err := f.SearchNow(ctx, fields.Crypto); err != nil {
		log.Printf("mcp chart suggestion error: %v", err)
	}
	state, err := f.Submit(ctx, fields)
	if err != nil {
		return nil, ChartOutput{}, err
	}

	out := ChartOutput{View: form.ViewOf(state)}
	if out.View.Chart != nil {
		out.Sparkline = chart.Sparkline(out.View.Chart.Prices, sparkWidth)
	}
	return nil, out, nil
}
