package models

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code,omitempty"`
	Details    string `json:"details,omitempty"`
	RetryAfter int    `json:"retry_after,omitempty"`
	Retryable  bool   `json:"retryable,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
	// RetryAfter is the number of seconds until a rate-limited caller may retry.
	RetryAfter int
	// Retryable marks transient conflicts the caller should retry as-is.
	Retryable bool
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

// NewBusinessRuleError marks an invariant violation: duplicate pending appeal,
// self-like, already-decided appeal, invalid state transition.
func NewBusinessRuleError(message string) *AppError {
	return &AppError{
		Code:    "BUSINESS_RULE",
		Message: message,
	}
}

// NewConflictError marks the loser of a concurrent transition on the same
// entity. Unlike a business-rule failure the caller may safely retry.
func NewConflictError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:      "CONFLICT",
		Message:   fmt.Sprintf("%s %v was modified concurrently, retry", resource, id),
		Retryable: true,
	}
}

// NewRateLimitError carries the number of seconds until the caller may retry.
func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:       "RATE_LIMITED",
		Message:    "rate limit exceeded",
		RetryAfter: retryAfter,
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    "VALIDATION_ERROR",
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "Internal server error",
		Err:     err,
	}
}

// StatusForError maps a domain error to its HTTP status.
func StatusForError(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case "NOT_FOUND":
		return fiber.StatusNotFound
	case "VALIDATION_ERROR":
		return fiber.StatusBadRequest
	case "BUSINESS_RULE", "CONFLICT":
		return fiber.StatusConflict
	case "RATE_LIMITED":
		return fiber.StatusTooManyRequests
	case "UNAUTHORIZED":
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error:      appErr.Message,
			Code:       appErr.Code,
			RetryAfter: appErr.RetryAfter,
			Retryable:  appErr.Retryable,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
		if appErr.Code == "RATE_LIMITED" {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(appErr.RetryAfter))
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}

// RespondDomainError maps the error to a status itself before responding.
func RespondDomainError(c *fiber.Ctx, err error) error {
	return RespondWithError(c, StatusForError(err), err)
}
