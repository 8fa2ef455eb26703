package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sheegull/deephand-forms/internal/api/dto/common"
)

// HandleSuccess sends the {success:true} response
func HandleSuccess(c *gin.Context) {
	c.JSON(http.StatusOK, common.NewSuccessResponse())
}

// HandleValidationError sends the field-keyed validation failure
func HandleValidationError(c *gin.Context, details map[string]string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, common.NewValidationResponse(details))
}

// HandleError sends an error response without logging
func HandleError(c *gin.Context, status int, code common.ErrorCode, message string) {
	c.AbortWithStatusJSON(status, common.NewErrorResponse(code, message))
}
