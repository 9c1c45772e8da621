// Package errors provides the shared error taxonomy for discovery workers and its
// mapping onto BPMN errors.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

type ErrorCode string

const (
	ErrCodeInvalidCriteria     ErrorCode = "INVALID_CRITERIA"
	ErrCodeInvalidFilterFormat ErrorCode = "INVALID_FILTER_FORMAT"
	ErrCodeInvalidInput        ErrorCode = "INVALID_INPUT"

	ErrCodeProviderSourceFailed ErrorCode = "PROVIDER_SOURCE_FAILED"
	ErrCodeProviderSearchFailed ErrorCode = "PROVIDER_SEARCH_FAILED"
	ErrCodeCacheFailed          ErrorCode = "CACHE_FAILED"
	ErrCodeSequenceCheckFailed  ErrorCode = "SEQUENCE_CHECK_FAILED"

	ErrCodeClassificationUnavailable ErrorCode = "CLASSIFICATION_UNAVAILABLE"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError is the shape thrown to the Zeebe engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns the variables attached to a failed or thrown job.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewInvalidCriteriaError reports malformed or inconsistent filter criteria.
func NewInvalidCriteriaError(err error) *StandardError {
	return newError(ErrCodeInvalidCriteria, "Invalid filter criteria", err.Error(), false, err)
}

func NewInvalidFilterFormatError(err error) *StandardError {
	return newError(ErrCodeInvalidFilterFormat, "Invalid filter format", err.Error(), false, err)
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid job input", details, false, nil)
}

// NewProviderSourceFailedError is retryable: the provider store may recover.
func NewProviderSourceFailedError(source string, err error) *StandardError {
	return newError(ErrCodeProviderSourceFailed, "Provider data source error",
		fmt.Sprintf("source: %s, error: %s", source, err.Error()), true, err)
}

func NewProviderSearchFailedError(index string, err error) *StandardError {
	return newError(ErrCodeProviderSearchFailed, "Provider search index error",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true, err)
}

func NewCacheFailedError(err error) *StandardError {
	return newError(ErrCodeCacheFailed, "Provider cache error", err.Error(), true, err)
}

func NewSequenceCheckFailedError(sessionID string, err error) *StandardError {
	return newError(ErrCodeSequenceCheckFailed, "Request sequence check failed",
		fmt.Sprintf("sessionId: %s, error: %s", sessionID, err.Error()), true, err)
}

// NewClassificationUnavailableError never leaves the classifier; it is used for
// logging and metric labels on the fallback path.
func NewClassificationUnavailableError(reason string, err error) *StandardError {
	details := reason
	if err != nil {
		details = fmt.Sprintf("%s: %s", reason, err.Error())
	}
	return newError(ErrCodeClassificationUnavailable, "Remote classifier unavailable", details, false, err)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true, err)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended job retries for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeProviderSourceFailed,
		ErrCodeProviderSearchFailed,
		ErrCodeNotificationSendFailed:
		return 3

	case ErrCodeCacheFailed,
		ErrCodeSequenceCheckFailed:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError for Zeebe. BPMN codes equal internal codes.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError extracts a StandardError anywhere in the chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory groups codes for dashboards.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.HasPrefix(codeStr, "PROVIDER"), strings.HasPrefix(codeStr, "CACHE"):
		return "DATA"
	case strings.HasPrefix(codeStr, "SEQUENCE"):
		return "CONCURRENCY"
	case strings.HasPrefix(codeStr, "CLASSIFICATION"):
		return "AI"
	case strings.HasPrefix(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
