package handler

import (
	"context"

	"coinchart/internal/domain"
	"coinchart/internal/interval"
	"coinchart/internal/session"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// AssetSearcher serves stateless suggestion lookups.
type AssetSearcher interface {
	SearchAssets(ctx context.Context, query string) ([]domain.Asset, error)
}

type Handler struct {
	tracer    trace.Tracer
	assets    AssetSearcher
	intervals *interval.Mapper
	newForm   session.Factory
	sessions  *session.Store
}

func New(
	tracer trace.Tracer,
	assets AssetSearcher,
	intervals *interval.Mapper,
	newForm session.Factory,
	sessions *session.Store,
) *Handler {
	return &Handler{
		tracer:    tracer,
		assets:    assets,
		intervals: intervals,
		newForm:   newForm,
		sessions:  sessions,
	}
}

// RegisterRoutes mounts the API. apiMiddleware guards everything under /api.
func (h *Handler) RegisterRoutes(r *gin.Engine, apiMiddleware ...gin.HandlerFunc) {
	r.GET("/health", h.Health)

	api := r.Group("/api", apiMiddleware...)
	api.GET("/intervals", h.ListIntervals)
	api.GET("/assets", h.SearchAssets)
	api.POST("/charts", h.QueryChart)

	api.POST("/forms", h.CreateForm)
	api.GET("/forms/:id", h.GetForm)
	api.DELETE("/forms/:id", h.DeleteForm)
	api.GET("/forms/:id/suggestions", h.FormSuggestions)
	api.POST("/forms/:id/submit", h.SubmitForm)
}
