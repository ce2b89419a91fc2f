package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/assettracker/internal/service/labeling"
)

// LabelHandler renders printable QR label sheets.
type LabelHandler struct {
	svc    *labeling.Service
	logger *zap.Logger
}

// NewLabelHandler constructs the HTTP handler adapter.
func NewLabelHandler(svc *labeling.Service, logger *zap.Logger) *LabelHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LabelHandler{svc: svc, logger: logger}
}

// Print streams a label PDF. An empty body prints the default batch.
func (h *LabelHandler) Print(c *gin.Context) {
	var req labeling.Request
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sheet, err := h.svc.BuildPDF(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, "failed to render labels", err)
		return
	}

	for _, w := range sheet.Warnings {
		c.Writer.Header().Add("X-Label-Warning", string(w.Code)+": "+w.Message)
	}
	c.Header("X-Label-Pages", strconv.Itoa(sheet.Pages))
	c.Header("Content-Disposition", `attachment; filename="asset-labels.pdf"`)
	c.Data(http.StatusOK, "application/pdf", sheet.PDF)
}
