package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is the stable machine-readable code returned to callers.
type ErrorCode string

const (
	CodeValidation       ErrorCode = "VALIDATION_ERROR"
	CodeAnalysis         ErrorCode = "PRODUCT_ANALYSIS_ERROR"
	CodeGeneration       ErrorCode = "GENERATION_ERROR"
	CodeOutputValidation ErrorCode = "OUTPUT_VALIDATION_ERROR"
	CodeTimeout          ErrorCode = "REQUEST_TIMEOUT"
	CodeRateLimit        ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeUsageLimit       ErrorCode = "USAGE_LIMIT_EXCEEDED"
	CodeInternal         ErrorCode = "INTERNAL_ERROR"
)

type PipelineError struct {
	Code    ErrorCode
	Message string
	// Field-level details, only populated for validation failures.
	Details []string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func NewPipelineError(code ErrorCode, message string) *PipelineError {
	return &PipelineError{Code: code, Message: message}
}

func WrapPipelineError(code ErrorCode, message string, err error) *PipelineError {
	return &PipelineError{Code: code, Message: message, Err: err}
}

// HTTPStatus maps the error taxonomy to response classes: validation is the
// caller's fault, usage/rate are gate rejections, timeouts get their own
// status so clients can decide to retry, everything else is a backend failure.
func (e *PipelineError) HTTPStatus() int {
	switch e.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUsageLimit:
		return http.StatusForbidden
	case CodeRateLimit:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func AsPipelineError(err error) (*PipelineError, bool) {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

var credentialMarkers = []string{"token", "key", "secret", "credential", "bearer", "authorization", "password"}

// SanitizeProviderError returns a caller-safe message for an upstream failure.
// Provider errors can embed API keys or auth headers, so any message that even
// mentions credential-looking words is replaced wholesale.
func SanitizeProviderError(err error) string {
	if err == nil {
		return "generation backend failed"
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	for _, marker := range credentialMarkers {
		if strings.Contains(lower, marker) {
			return "generation backend failed"
		}
	}
	if len(msg) > 300 {
		msg = msg[:300]
	}
	return msg
}
