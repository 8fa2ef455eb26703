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
	"github.com/sheegull/deephand-forms/internal/service"
	"github.com/sheegull/deephand-forms/internal/utils"
)

// Submitter runs the submission pipeline
type Submitter interface {
	Submit(ctx context.Context, req service.SubmitRequest) (*service.SubmitResult, error)
}

type SubmissionHandler struct {
	submissions Submitter
}

func NewSubmissionHandler(submissions Submitter) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions}
}

// Contact handles POST /api/contact
func (h *SubmissionHandler) Contact(c *gin.Context) {
	h.submit(c, models.FormContact)
}

// RequestData handles POST /api/request-data
func (h *SubmissionHandler) RequestData(c *gin.Context) {
	h.submit(c, models.FormRequest)
}

func (h *SubmissionHandler) submit(c *gin.Context, form models.FormType) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		handleBindError(c, err)
		return
	}
	if fields == nil {
		utils.HandleError(c, http.StatusBadRequest, common.ErrCodeBadRequest, common.MsgInvalidBody)
		return
	}

	_, err := h.submissions.Submit(c.Request.Context(), service.SubmitRequest{
		Form:     form,
		Fields:   fields,
		Locale:   middleware.LocaleFrom(c),
		ClientIP: utils.ClientAddress(c.Request.Header),
	})
	if err != nil {
		var verr *validation.ValidationError
		if errors.As(err, &verr) {
			utils.HandleValidationError(c, verr.Fields)
			return
		}
		utils.HandleAPIError(c, err, http.StatusInternalServerError, common.ErrCodeInternalServer, common.MsgInternalError)
		return
	}

	utils.HandleSuccess(c)
}

// handleBindError maps body decoding failures to 413 or 400
func handleBindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		utils.HandleError(c, http.StatusRequestEntityTooLarge, common.ErrCodeBadRequest, "Request body too large")
		return
	}
	utils.HandleError(c, http.StatusBadRequest, common.ErrCodeBadRequest, common.MsgInvalidBody)
}
