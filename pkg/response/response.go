package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/KilloQ/StudentsClubs/pkg/errors"
)

// ErrorBody is the error payload; the client surfaces Detail verbatim.
type ErrorBody struct {
	Detail string `json:"detail"`
	Code   int    `json:"code,omitempty"`
}

// ── success ──

// OK 200 with the bare payload
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created 201
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Message 200 with a short status message
func Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"message": message})
}

// ── errors ──

// Error writes an error response.
func Error(c *gin.Context, httpStatus int, code int, detail string) {
	c.JSON(httpStatus, ErrorBody{Detail: detail, Code: code})
}

// FromError writes a business error with its mapped status, or 500 for anything else.
func FromError(c *gin.Context, err error) {
	if e, ok := apperrors.As(err); ok {
		Error(c, e.Kind.HTTPStatus(), e.Code, e.Message)
		return
	}
	_ = c.Error(err)
	InternalError(c)
}

// BadRequest 400
func BadRequest(c *gin.Context, code int, detail string) {
	Error(c, http.StatusBadRequest, code, detail)
}

// InternalError 500
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, 50000, "internal server error")
}
