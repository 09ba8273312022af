package response

import (
	"errors"
	"net/http"

	"merchant-ledger/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// SuccessResponse is the standard success envelope.
type SuccessResponse struct {
	Status int         `json:"status"`
	Result interface{} `json:"result"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Status    int    `json:"status"`
	ErrorCode string `json:"error_code"`
	Error     string `json:"error"`
}

// OK sends a 200 response with the result payload.
func OK(c *gin.Context, result interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Status: http.StatusOK,
		Result: result,
	})
}

// Created sends a 201 response with the result payload.
func Created(c *gin.Context, result interface{}) {
	c.JSON(http.StatusCreated, SuccessResponse{
		Status: http.StatusCreated,
		Result: result,
	})
}

// Error sends an error response. An *apperror.AppError maps to its HTTP
// status; anything else becomes an opaque 500.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, ErrorResponse{
			Status:    appErr.HTTPStatus,
			ErrorCode: appErr.Code,
			Error:     appErr.Message,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Status:    http.StatusInternalServerError,
		ErrorCode: apperror.CodeInternal,
		Error:     "Internal server error",
	})
}
