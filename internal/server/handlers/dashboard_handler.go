package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/assettracker/internal/domain/models"
	"github.com/mamadbah2/assettracker/internal/service/reporting"
)

// DashboardHandler serves inventory counters and stored snapshots.
type DashboardHandler struct {
	svc    *reporting.Service
	logger *zap.Logger
}

// NewDashboardHandler constructs the HTTP handler adapter.
func NewDashboardHandler(svc *reporting.Service, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{svc: svc, logger: logger}
}

type dashboardResponse struct {
	Summary   models.InventorySnapshot   `json:"summary"`
	Snapshots []models.InventorySnapshot `json:"snapshots"`
}

// Summary returns live counters plus recent snapshots (?days=N, default 7).
func (h *DashboardHandler) Summary(c *gin.Context) {
	days, err := strconv.ParseInt(c.DefaultQuery("days", "7"), 10, 64)
	if err != nil || days < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a non-negative integer"})
		return
	}

	summary, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "failed to compute dashboard", err)
		return
	}

	resp := dashboardResponse{Summary: summary, Snapshots: []models.InventorySnapshot{}}
	if days > 0 {
		snapshots, err := h.svc.History(c.Request.Context(), days)
		if err != nil {
			h.logger.Warn("failed to load snapshot history", zap.Error(err))
		} else {
			resp.Snapshots = snapshots
		}
	}
	c.JSON(http.StatusOK, resp)
}

// RecordSnapshot stores a snapshot immediately instead of waiting for the scheduler.
func (h *DashboardHandler) RecordSnapshot(c *gin.Context) {
	snapshot, err := h.svc.RecordSnapshot(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "failed to record snapshot", err)
		return
	}
	c.JSON(http.StatusCreated, snapshot)
}
