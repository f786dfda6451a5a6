package handler

import (
	"log"
	"net/http"

	"coinchart/internal/form"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// CreateForm godoc
// @Summary      Open a chart form session
// @Description  Creates a form session holding suggestions and the last result
// @Tags         forms
// @Produce      json
// @Success      201  {object}  map[string]interface{}
// @Router       /api/forms [post]
func (h *Handler) CreateForm(c *gin.Context) {
	id, f := h.sessions.Create()
	c.JSON(http.StatusCreated, gin.H{
		"id":        id,
		"intervals": f.Intervals(),
		"form":      f.Snapshot(),
	})
}

// GetForm godoc
// @Summary      Read a chart form session
// @Description  Returns the current view (idle, loading, chart, empty or error) and suggestions
// @Tags         forms
// @Produce      json
// @Param        id  path  string  true  "Form session id"
// @Success      200  {object}  form.Snapshot
// @Failure      404  {object}  map[string]string
// @Router       /api/forms/{id} [get]
func (h *Handler) GetForm(c *gin.Context) {
	f, ok := h.lookupForm(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, f.Snapshot())
}

// DeleteForm godoc
// @Summary      Close a chart form session
// @Tags         forms
// @Param        id  path  string  true  "Form session id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /api/forms/{id} [delete]
func (h *Handler) DeleteForm(c *gin.Context) {
	if !h.sessions.Delete(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "form not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// FormSuggestions godoc
// @Summary      Suggest cryptocurrencies within a form session
// @Description  Replaces the session's suggestions with assets whose name contains q; they are used to resolve the next submit
// @Tags         forms
// @Produce      json
// @Param        id  path   string  true   "Form session id"
// @Param        q   query  string  false  "Part of the asset name"
// @Success      200  {object}  form.Snapshot
// @Failure      404  {object}  map[string]string
// @Router       /api/forms/{id}/suggestions [get]
func (h *Handler) FormSuggestions(c *gin.Context) {
	f, ok := h.lookupForm(c)
	if !ok {
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.form-suggestions")
	defer span.End()

	query := c.Query("q")
	span.SetAttributes(attribute.String("query", query))

	// A failed lookup keeps the previous suggestions.
	if _, err := f.SearchNow(ctx, query); err != nil {
		log.Printf("form suggestion error: %v", err)
	}
	c.JSON(http.StatusOK, f.Snapshot())
}

// SubmitForm godoc
// @Summary      Submit a chart form session
// @Description  Validates the fields, then resolves the asset from the session's suggestions and fetches its history
// @Tags         forms
// @Accept       json
// @Produce      json
// @Param        id    path  string       true  "Form session id"
// @Param        body  body  form.Fields  true  "Asset name and interval label"
// @Success      200  {object}  form.View
// @Failure      400  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/forms/{id}/submit [post]
func (h *Handler) SubmitForm(c *gin.Context) {
	f, ok := h.lookupForm(c)
	if !ok {
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.submit-form")
	defer span.End()

	var fields form.Fields
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	state, err := f.Submit(ctx, fields)
	writeSubmitResult(c, state, err)
}

func (h *Handler) lookupForm(c *gin.Context) (*form.Orchestrator, bool) {
	f, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "form not found"})
		return nil, false
	}
	return f, true
}
