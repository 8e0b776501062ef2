package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vishalpmittal/dratavlibrary/internal/validation"
	"go.uber.org/zap"
)

type ConflictResponse struct {
	Error string   `json:"error"`
	Code  string   `json:"code"`
	Book  *BookRef `json:"book"`
}

func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, validation.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func writeValidationError(c *gin.Context, details []string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, validation.ErrorResponse{
		Error:   validation.InvalidPayload,
		Code:    "VALIDATION_FAILED",
		Details: details,
	})
}

// writeInternalError logs the store failure and answers 500 without leaking it.
func writeInternalError(c *gin.Context, log *zap.Logger, code, message string, err error) {
	_ = c.Error(err)
	log.Error(message,
		zap.String("code", code),
		zap.String("request_id", c.GetString("request_id")),
		zap.Error(err))
	writeError(c, http.StatusInternalServerError, code, message)
}
