package identity

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chaincheck/chaincheck/internal/entity"
	"github.com/chaincheck/chaincheck/internal/idgen"
)

// Handler provides admin endpoints for the identity registry.
type Handler struct {
	store Store
}

// NewHandler creates an identity handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterAdminRoutes sets up identity management endpoints.
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.POST("/identities", h.Register)
	r.GET("/identities", h.List)
	r.DELETE("/identities/:entity", h.Remove)
}

// RegisterRequest is the body for POST /admin/identities.
type RegisterRequest struct {
	Value   string `json:"value" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Website string `json:"website"`
	Twitter string `json:"twitter"`
}

// Register links an entity to a verified identity.
// POST /admin/identities
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Body must contain 'value' and 'name'",
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

	rec := &Record{
		ID:         idgen.WithPrefix("id_"),
		Normalized: e.Normalized,
		EntityType: e.Type,
		Name:       req.Name,
		Website:    req.Website,
		Twitter:    req.Twitter,
		CreatedAt:  time.Now().UTC(),
	}

	if err := h.store.Add(c.Request.Context(), rec); err != nil {
		if errors.Is(err, ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "already_registered",
				"message": "Entity already has a registered identity",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"identity": rec})
}

// List returns registered identities, newest first.
// GET /admin/identities
func (h *Handler) List(c *gin.Context) {
	limit := 50
	offset := 0
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v >= 0 {
		offset = v
	}

	records, err := h.store.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	if records == nil {
		records = []*Record{}
	}
	c.JSON(http.StatusOK, gin.H{"identities": records, "count": len(records)})
}

// Remove deletes a registered identity.
// DELETE /admin/identities/:entity
func (h *Handler) Remove(c *gin.Context) {
	e, err := entity.Classify(c.Param("entity"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unclassifiable_entity"})
		return
	}

	if err := h.store.Remove(c.Request.Context(), e.Normalized, e.Type); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": e.Normalized})
}
