package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/assettracker/internal/domain/models"
	"github.com/mamadbah2/assettracker/internal/labels"
	"github.com/mamadbah2/assettracker/internal/service/assets"
	"github.com/mamadbah2/assettracker/internal/service/auth"
	"github.com/mamadbah2/assettracker/internal/service/labeling"
	"github.com/mamadbah2/assettracker/internal/tagseq"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrAssetNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrDuplicateTag), errors.Is(err, tagseq.ErrSequenceOverflow):
		return http.StatusConflict
	case errors.Is(err, assets.ErrInvalidInput),
		errors.Is(err, tagseq.ErrInvalidConfig),
		errors.Is(err, labels.ErrInvalidGrid),
		errors.Is(err, labels.ErrNoPages),
		errors.Is(err, labeling.ErrNothingToPrint):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrSessionNotFound),
		errors.Is(err, auth.ErrSessionExpired):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, logger *zap.Logger, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, zap.Error(err))
		c.JSON(status, gin.H{"error": msg})
		return
	}
	logger.Debug(msg, zap.Error(err))
	c.JSON(status, gin.H{"error": err.Error()})
}
