package listing

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chaincheck/chaincheck/internal/entity"
	"github.com/chaincheck/chaincheck/internal/idgen"
	"github.com/chaincheck/chaincheck/internal/signal"
)

// Handler provides admin endpoints for list curation.
type Handler struct {
	store Store
}

// NewHandler creates a listing handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterAdminRoutes sets up list management endpoints. The caller is
// expected to protect the group with the admin middleware.
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.POST("/blacklist", h.AddBlacklist)
	r.GET("/blacklist", h.ListBlacklist)
	r.DELETE("/blacklist/:entity", h.RemoveBlacklist)

	r.POST("/whitelist", h.AddWhitelist)
	r.GET("/whitelist", h.ListWhitelist)
	r.DELETE("/whitelist/:entity", h.RemoveWhitelist)
}

// AddBlacklistRequest is the body for POST /admin/blacklist.
type AddBlacklistRequest struct {
	Value    string `json:"value" binding:"required"`
	Category string `json:"category" binding:"required"`
	Source   string `json:"source"`
	Reason   string `json:"reason"`
}

var validCategories = map[signal.ThreatCategory]bool{
	signal.CategoryPhishing:      true,
	signal.CategoryScam:          true,
	signal.CategoryMalware:       true,
	signal.CategoryImpersonation: true,
	signal.CategoryTheft:         true,
	signal.CategoryOther:         true,
}

// AddBlacklist records a known-bad entity.
// POST /admin/blacklist
func (h *Handler) AddBlacklist(c *gin.Context) {
	var req AddBlacklistRequest
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

	e, err := entity.Classify(req.Value)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "unclassifiable_entity",
			"message": "Value does not match any known entity shape",
		})
		return
	}

	source := req.Source
	if source == "" {
		source = "internal"
	}

	entry := &BlacklistEntry{
		ID:         idgen.WithPrefix("bl_"),
		Normalized: e.Normalized,
		EntityType: e.Type,
		Category:   category,
		Source:     source,
		Reason:     req.Reason,
		CreatedAt:  time.Now().UTC(),
	}

	if err := h.store.AddBlacklist(c.Request.Context(), entry); err != nil {
		if errors.Is(err, ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "already_listed",
				"message": "Entity is already blacklisted",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

// ListBlacklist returns blacklist entries, newest first.
// GET /admin/blacklist
func (h *Handler) ListBlacklist(c *gin.Context) {
	limit, offset := pageParams(c)
	entries, err := h.store.ListBlacklist(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	if entries == nil {
		entries = []*BlacklistEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

// RemoveBlacklist deletes a blacklist entry.
// DELETE /admin/blacklist/:entity
func (h *Handler) RemoveBlacklist(c *gin.Context) {
	e, err := entity.Classify(c.Param("entity"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unclassifiable_entity"})
		return
	}

	if err := h.store.RemoveBlacklist(c.Request.Context(), e.Normalized, e.Type); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_listed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": e.Normalized})
}

// AddWhitelistRequest is the body for POST /admin/whitelist.
type AddWhitelistRequest struct {
	Value  string `json:"value" binding:"required"`
	Source string `json:"source"`
}

// AddWhitelist records a verified-good entity.
// POST /admin/whitelist
func (h *Handler) AddWhitelist(c *gin.Context) {
	var req AddWhitelistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Body must contain 'value'",
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

	source := req.Source
	if source == "" {
		source = "internal"
	}

	entry := &WhitelistEntry{
		ID:         idgen.WithPrefix("wl_"),
		Normalized: e.Normalized,
		EntityType: e.Type,
		Source:     source,
		VerifiedAt: time.Now().UTC(),
	}

	if err := h.store.AddWhitelist(c.Request.Context(), entry); err != nil {
		if errors.Is(err, ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "already_listed",
				"message": "Entity is already whitelisted",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

// ListWhitelist returns whitelist entries, newest first.
// GET /admin/whitelist
func (h *Handler) ListWhitelist(c *gin.Context) {
	limit, offset := pageParams(c)
	entries, err := h.store.ListWhitelist(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	if entries == nil {
		entries = []*WhitelistEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

// RemoveWhitelist deletes a whitelist entry.
// DELETE /admin/whitelist/:entity
func (h *Handler) RemoveWhitelist(c *gin.Context) {
	e, err := entity.Classify(c.Param("entity"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unclassifiable_entity"})
		return
	}

	if err := h.store.RemoveWhitelist(c.Request.Context(), e.Normalized, e.Type); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_listed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": e.Normalized})
}

func pageParams(c *gin.Context) (limit, offset int) {
	limit = 50
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}
