package errors

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrUnknownDevice    = errors.New("unknown device")
	ErrUnknownTopic     = errors.New("unknown topic")
	ErrStorage          = errors.New("storage failure")
	ErrDeliveryFailed   = errors.New("live delivery failed")

	ErrInvalidToken = errors.New("invalid or expired token")
	ErrUnauthorized = errors.New("unauthorized access")
)

// Taxonomy codes attached to AppError and used as the error_kind log field.
const (
	CodeMalformedMessage = "MALFORMED_MESSAGE"
	CodeUnknownDevice    = "UNKNOWN_DEVICE"
	CodeUnknownTopic     = "UNKNOWN_TOPIC"
	CodeStorageFailure   = "STORAGE_FAILURE"
	CodeDeliveryFailure  = "DELIVERY_FAILURE"
	CodeInternal         = "INTERNAL"
)

type AppError struct {
	Code    string
	Message string
	Err     error
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

func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Storage wraps a store error so that it classifies as STORAGE_FAILURE.
func Storage(op string, err error) error {
	return NewAppError(CodeStorageFailure, op, fmt.Errorf("%w: %w", ErrStorage, err))
}

// Malformed builds a MALFORMED_MESSAGE error around the decode or validation cause.
func Malformed(reason string, err error) error {
	if err == nil {
		return NewAppError(CodeMalformedMessage, reason, ErrMalformedMessage)
	}
	return NewAppError(CodeMalformedMessage, reason, fmt.Errorf("%w: %w", ErrMalformedMessage, err))
}

// Kind maps any error onto the ingestion taxonomy.
func Kind(err error) string {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}

	switch {
	case errors.Is(err, ErrMalformedMessage):
		return CodeMalformedMessage
	case errors.Is(err, ErrUnknownDevice):
		return CodeUnknownDevice
	case errors.Is(err, ErrUnknownTopic):
		return CodeUnknownTopic
	case errors.Is(err, ErrStorage):
		return CodeStorageFailure
	case errors.Is(err, ErrDeliveryFailed):
		return CodeDeliveryFailure
	default:
		return CodeInternal
	}
}
