package check

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chaincheck/chaincheck/internal/entity"
	"github.com/chaincheck/chaincheck/internal/logging"
)

// Handler provides the HTTP surface for entity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a check handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up check endpoints.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/check/:entity", h.CheckEntity)
	r.GET("/check/:entity/stats", h.EntityStats)
}

// CheckEntity runs a full risk check for the path entity.
// GET /api/v1/check/:entity
func (h *Handler) CheckEntity(c *gin.Context) {
	raw := c.Param("entity")

	resp, err := h.service.Check(c.Request.Context(), raw)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrEmptyInput):
			respondError(c, http.StatusBadRequest, "invalid_input", "Entity value must not be empty")
		case errors.Is(err, entity.ErrUnclassifiable):
			respondError(c, http.StatusBadRequest, "unclassifiable_entity", "Input does not match any known entity shape")
		case errors.Is(err, context.Canceled):
			// Client went away; nothing useful to send.
			c.Abort()
		default:
			logging.L(c.Request.Context()).Error("check failed", "error", err)
			respondError(c, http.StatusInternalServerError, "internal_error", "Check could not be completed")
		}
		return
	}

	respondData(c, http.StatusOK, resp)
}

// EntityStats returns search and report counters without running a check.
// GET /api/v1/check/:entity/stats
func (h *Handler) EntityStats(c *gin.Context) {
	raw := c.Param("entity")

	info, stats, err := h.service.Stats(c.Request.Context(), raw)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrEmptyInput), errors.Is(err, entity.ErrUnclassifiable):
			respondError(c, http.StatusBadRequest, "invalid_input", "Input does not match any known entity shape")
		default:
			respondError(c, http.StatusInternalServerError, "internal_error", "Stats could not be read")
		}
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"entity": info,
		"stats":  stats,
	})
}

// Response envelope: {meta, data} on success, {meta, error} on failure.

func meta(c *gin.Context) gin.H {
	return gin.H{
		"requestId": logging.RequestID(c.Request.Context()),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
}

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"meta": meta(c), "data": data})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"meta": meta(c),
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
