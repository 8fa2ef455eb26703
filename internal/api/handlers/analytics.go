package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sheegull/deephand-forms/internal/api/dto/common"
	"github.com/sheegull/deephand-forms/internal/api/middleware"
	"github.com/sheegull/deephand-forms/internal/api/validation"
	"github.com/sheegull/deephand-forms/internal/models"
	"github.com/sheegull/deephand-forms/internal/utils"
)

// Tracker records navigation events
type Tracker interface {
	Track(ctx context.Context, ev models.NavigationEvent)
}

type AnalyticsHandler struct {
	tracker   Tracker
	validator *validation.Validator
}

func NewAnalyticsHandler(tracker Tracker, validator *validation.Validator) *AnalyticsHandler {
	return &AnalyticsHandler{tracker: tracker, validator: validator}
}

// Navigation handles POST /api/analytics
func (h *AnalyticsHandler) Navigation(c *gin.Context) {
	var ev models.NavigationEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		handleBindError(c, err)
		return
	}

	if err := h.validator.Struct(&ev, middleware.LocaleFrom(c)); err != nil {
		var verr *validation.ValidationError
		if errors.As(err, &verr) {
			utils.HandleValidationError(c, verr.Fields)
			return
		}
		utils.HandleAPIError(c, err, http.StatusInternalServerError, common.ErrCodeInternalServer, common.MsgInternalError)
		return
	}

	h.tracker.Track(c.Request.Context(), ev)
	utils.HandleSuccess(c)
}
