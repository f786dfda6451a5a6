package handler

import (
	"errors"
	"log"
	"net/http"

	"coinchart/internal/domain"
	"coinchart/internal/form"

	"github.com/gin-gonic/gin"
)

// QueryChart godoc
// @Summary      Query a price chart in one call
// @Description  Looks the asset up by name, then fetches and projects its price history for the interval
// @Tags         charts
// @Accept       json
// @Produce      json
// @Param        body  body  form.Fields  true  "Asset name and interval label"
// @Success      200  {object}  form.View
// @Failure      400  {object}  map[string]interface{}
// @Router       /api/charts [post]
func (h *Handler) QueryChart(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.query-chart")
	defer span.End()

	var fields form.Fields
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := form.Validate(fields); err != nil {
		writeSubmitResult(c, nil, err)
		return
	}

	f := h.newForm()
	defer f.Close()

	if _, err := f.SearchNow(ctx, fields.Crypto); err != nil {
		log.Printf("chart query suggestion error: %v", err)
	}
	state, err := f.Submit(ctx, fields)
	writeSubmitResult(c, state, err)
}

func writeSubmitResult(c *gin.Context, state form.State, err error) {
	var verrs domain.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": verrs.Fields(),
		})
	case errors.Is(err, domain.ErrSubmitInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": form.GenericErrorMessage})
	default:
		c.JSON(http.StatusOK, form.ViewOf(state))
	}
}
