package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ksred/trade-ledger/internal/apperrors"
)

// Response represents a standardized API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents an error response
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes
const (
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeDuplicateResource  = "DUPLICATE_RESOURCE"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeUnknownSymbol      = "UNKNOWN_SYMBOL"
	ErrCodeUnknownPortfolio   = "UNKNOWN_PORTFOLIO"
	ErrCodeUnknownClient      = "UNKNOWN_CLIENT"
	ErrCodeInsufficientShares = "INSUFFICIENT_SHARES"
	ErrCodeLedgerImmutable    = "LEDGER_IMMUTABLE"
)

// Handle processes the error and returns appropriate response
func Handle(c *gin.Context, data interface{}, err error) {
	if err == nil {
		Success(c, data)
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrUnknownSymbol):
		fail(c, http.StatusBadRequest, ErrCodeUnknownSymbol, err.Error())
	case errors.Is(err, apperrors.ErrUnknownPortfolio):
		fail(c, http.StatusBadRequest, ErrCodeUnknownPortfolio, err.Error())
	case errors.Is(err, apperrors.ErrUnknownClient):
		fail(c, http.StatusBadRequest, ErrCodeUnknownClient, err.Error())
	case errors.Is(err, apperrors.ErrInsufficientShares):
		fail(c, http.StatusBadRequest, ErrCodeInsufficientShares, err.Error())
	case errors.Is(err, apperrors.ErrValidation):
		fail(c, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
	case errors.Is(err, apperrors.ErrLedgerImmutable):
		fail(c, http.StatusBadRequest, ErrCodeLedgerImmutable, err.Error())
	case errors.Is(err, apperrors.ErrDuplicate), errors.Is(err, gorm.ErrDuplicatedKey):
		Conflict(c, "Resource already exists")
	case errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, "Resource not found")
	default:
		handleError(c, err)
	}
}

// Success sends a 200 response
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// Created sends a 201 response
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	fail(c, http.StatusNotFound, ErrCodeNotFound, message)
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	fail(c, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// TooManyRequests sends a 429 response
func TooManyRequests(c *gin.Context, message string) {
	fail(c, http.StatusTooManyRequests, ErrCodeRateLimited, message)
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	fail(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// Conflict sends a 409 response
func Conflict(c *gin.Context, message string) {
	fail(c, http.StatusConflict, ErrCodeDuplicateResource, message)
}

func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, Response{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
		},
	})
}

// handleError logs unexpected failures for operators and hides the cause
// from the caller
func handleError(c *gin.Context, err error) {
	log.Error().
		Err(err).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Bool("storage_failure", errors.Is(err, apperrors.ErrStorageFailure)).
		Msg("request failed")

	InternalError(c, "An unexpected error occurred")
}
