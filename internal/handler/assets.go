package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// ListIntervals godoc
// @Summary      List time intervals
// @Description  Returns the interval labels the chart form offers and the upstream granularity each maps to
// @Tags         charts
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/intervals [get]
func (h *Handler) ListIntervals(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"intervals": h.intervals.Choices()})
}

// SearchAssets godoc
// @Summary      Suggest cryptocurrencies
// @Description  Returns assets whose name contains q, ignoring case
// @Tags         charts
// @Produce      json
// @Param        q  query  string  false  "Part of the asset name (e.g., bit)"
// @Success      200  {object}  map[string]interface{}
// @Failure      502  {object}  map[string]string
// @Router       /api/assets [get]
func (h *Handler) SearchAssets(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.search-assets")
	defer span.End()

	query := c.Query("q")
	span.SetAttributes(attribute.String("query", query))

	assets, err := h.assets.SearchAssets(ctx, query)
	if err != nil {
		log.Printf("asset search error for %q: %v", query, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch suggestions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":  query,
		"assets": assets,
	})
}
