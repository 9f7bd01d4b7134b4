package reports

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chaincheck/chaincheck/internal/entity"
	"github.com/chaincheck/chaincheck/internal/idgen"
	"github.com/chaincheck/chaincheck/internal/metrics"
	"github.com/chaincheck/chaincheck/internal/signal"
	"github.com/chaincheck/chaincheck/internal/validation"
)

const maxDescriptionLen = 2000

// EventPublisher receives accepted reports, e.g. the websocket hub.
type EventPublisher interface {
	PublishReport(r *Report)
}

// Handler exposes the public report endpoints.
type Handler struct {
	store     Store
	publisher EventPublisher
}

// NewHandler creates a reports handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// WithPublisher wires a feed publisher for accepted reports.
func (h *Handler) WithPublisher(p EventPublisher) *Handler {
	h.publisher = p
	return h
}

// RegisterRoutes sets up report submission and listing endpoints.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/reports", h.Submit)
	r.GET("/reports/:entity", h.ListForEntity)
}

// SubmitRequest is the body for POST /reports.
type SubmitRequest struct {
	Value       string `json:"value" binding:"required"`
	Category    string `json:"category" binding:"required"`
	Description string `json:"description"`
	Reporter    string `json:"reporter"`
}

var validCategories = map[signal.ThreatCategory]bool{
	signal.CategoryPhishing:      true,
	signal.CategoryScam:          true,
	signal.CategoryMalware:       true,
	signal.CategoryImpersonation: true,
	signal.CategoryTheft:         true,
	signal.CategoryOther:         true,
}

// Submit records a fraud report from a user.
// POST /reports
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Body must contain 'value' and 'category'",
		})
		return
	}

	category := signal.ThreatCategory(req.Category)
	if !validCategories[category] {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_category",
			"message": "Category must be one of: phishing, scam, malware, impersonation, theft, other",
		})
		return
	}

	if len(req.Description) > maxDescriptionLen {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "description_too_long",
			"message": "Description must be at most 2000 characters",
		})
		return
	}

	e, err := entity.Classify(req.Value)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "unclassifiable_entity",
			"message": "Value does not match any known entity shape",
		})
		return
	}

	report := &Report{
		ID:          idgen.WithPrefix("rep_"),
		Normalized:  e.Normalized,
		EntityType:  e.Type,
		Category:    category,
		Description: validation.SanitizeString(req.Description, maxDescriptionLen),
		Reporter:    validation.SanitizeString(req.Reporter, 200),
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.store.Create(c.Request.Context(), report); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	metrics.ReportsTotal.WithLabelValues(string(e.Type)).Inc()
	if h.publisher != nil {
		h.publisher.PublishReport(report)
	}

	c.JSON(http.StatusCreated, gin.H{"report": report})
}

// ListForEntity returns recent reports for an entity, newest first.
// GET /reports/:entity
func (h *Handler) ListForEntity(c *gin.Context) {
	e, err := entity.Classify(c.Param("entity"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unclassifiable_entity"})
		return
	}

	limit := 20
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}

	list, err := h.store.ListForEntity(c.Request.Context(), e.Normalized, e.Type, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	if list == nil {
		list = []*Report{}
	}

	total, err := h.store.CountForEntity(c.Request.Context(), e.Normalized, e.Type)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": list, "total": total})
}
