package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/assettracker/internal/service/assets"
)

// AssetHandler serves asset CRUD, scan lookup, history and tag previews.
type AssetHandler struct {
	svc    *assets.Service
	logger *zap.Logger
}

// NewAssetHandler constructs the HTTP handler adapter.
func NewAssetHandler(svc *assets.Service, logger *zap.Logger) *AssetHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssetHandler{svc: svc, logger: logger}
}

// List returns all assets, filtered by the optional q parameter.
func (h *AssetHandler) List(c *gin.Context) {
	found, err := h.svc.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, h.logger, "failed to list assets", err)
		return
	}
	c.JSON(http.StatusOK, found)
}

// Create stores a new asset, allocating its tag when none is given.
func (h *AssetHandler) Create(c *gin.Context) {
	var in assets.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	asset, err := h.svc.Create(c.Request.Context(), sessionFrom(c), in)
	if err != nil {
		respondError(c, h.logger, "failed to create asset", err)
		return
	}
	c.JSON(http.StatusCreated, asset)
}

// Get returns one asset.
func (h *AssetHandler) Get(c *gin.Context) {
	asset, err := h.svc.Get(c.Request.Context(), c.Param("tag"))
	if err != nil {
		respondError(c, h.logger, "failed to load asset", err)
		return
	}
	c.JSON(http.StatusOK, asset)
}

// Update replaces the editable fields of an asset.
func (h *AssetHandler) Update(c *gin.Context) {
	var fields assets.Fields
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	asset, err := h.svc.Update(c.Request.Context(), sessionFrom(c), c.Param("tag"), fields)
	if err != nil {
		respondError(c, h.logger, "failed to update asset", err)
		return
	}
	c.JSON(http.StatusOK, asset)
}

// Touch bumps an asset's last_update.
func (h *AssetHandler) Touch(c *gin.Context) {
	asset, err := h.svc.Touch(c.Request.Context(), sessionFrom(c), c.Param("tag"))
	if err != nil {
		respondError(c, h.logger, "failed to touch asset", err)
		return
	}
	c.JSON(http.StatusOK, asset)
}

// Delete removes an asset.
func (h *AssetHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), sessionFrom(c), c.Param("tag")); err != nil {
		respondError(c, h.logger, "failed to delete asset", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Scan resolves a scanned QR or barcode to its asset.
func (h *AssetHandler) Scan(c *gin.Context) {
	asset, err := h.svc.Scan(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, h.logger, "scan lookup failed", err)
		return
	}
	c.JSON(http.StatusOK, asset)
}

// History returns the change log.
func (h *AssetHandler) History(c *gin.Context) {
	entries, err := h.svc.History(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "failed to load history", err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

type previewRequest struct {
	Branch string `json:"branch"`
	assets.TagOptions
}

// PreviewTag shows the tag the next asset for a branch would most likely get.
func (h *AssetHandler) PreviewTag(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	alloc, err := h.svc.Preview(c.Request.Context(), req.Branch, req.TagOptions)
	if err != nil {
		respondError(c, h.logger, "failed to preview tag", err)
		return
	}
	c.JSON(http.StatusOK, alloc)
}
