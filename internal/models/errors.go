package models

import (
	"errors"
	"fmt"
)

const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeIndexOutOfRange = "INDEX_OUT_OF_RANGE"
	ErrCodeInvalidAction   = "INVALID_ACTION"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeRemoteService   = "REMOTE_SERVICE_ERROR"
	ErrCodeStorage         = "STORAGE_ERROR"
	ErrCodeDataCorruption  = "DATA_CORRUPTION"
	ErrCodeRateLimited     = "RATE_LIMITED"
)

// AppError carries a code so callers can tell a bad request, a failing
// remote service and broken local state apart.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError with the same code, so the sentinels below work
// with errors.Is regardless of message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func NewAppError(code, msg string, cause error) *AppError {
	return &AppError{Code: code, Message: msg, Cause: cause}
}

var (
	ErrValidation      = &AppError{Code: ErrCodeValidation, Message: "invalid input"}
	ErrIndexOutOfRange = &AppError{Code: ErrCodeIndexOutOfRange, Message: "post index out of range"}
	ErrInvalidAction   = &AppError{Code: ErrCodeInvalidAction, Message: "invalid vote action"}
	ErrNotFound        = &AppError{Code: ErrCodeNotFound, Message: "post not found"}
	ErrRemoteService   = &AppError{Code: ErrCodeRemoteService, Message: "try-on service failed"}
	ErrStorage         = &AppError{Code: ErrCodeStorage, Message: "storage failure"}
	ErrDataCorruption  = &AppError{Code: ErrCodeDataCorruption, Message: "stored posts are corrupted"}
	ErrRateLimited     = &AppError{Code: ErrCodeRateLimited, Message: "too many requests"}
)

func NewValidationError(msg string) *AppError {
	return NewAppError(ErrCodeValidation, msg, nil)
}

func NewIndexOutOfRange(index, length int) *AppError {
	return NewAppError(ErrCodeIndexOutOfRange,
		fmt.Sprintf("post index %d out of range [0, %d)", index, length), nil)
}

func NewInvalidAction(action string) *AppError {
	return NewAppError(ErrCodeInvalidAction,
		fmt.Sprintf("unknown vote action %q, expected like or dislike", action), nil)
}

func NewRemoteServiceError(msg string, cause error) *AppError {
	return NewAppError(ErrCodeRemoteService, msg, cause)
}

func NewStorageError(msg string, cause error) *AppError {
	return NewAppError(ErrCodeStorage, msg, cause)
}

func NewDataCorruptionError(msg string, cause error) *AppError {
	return NewAppError(ErrCodeDataCorruption, msg, cause)
}

// IsValidation reports whether err was caused by bad user input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrIndexOutOfRange) ||
		errors.Is(err, ErrInvalidAction) ||
		errors.Is(err, ErrNotFound)
}

// IsStorage reports whether err came from persisted state.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage) || errors.Is(err, ErrDataCorruption)
}
