package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is the stable, client-visible failure kind.
type ErrorCode string

const (
	CodeInvalidInput       ErrorCode = "invalid_input"
	CodeInvalidRole        ErrorCode = "invalid_role"
	CodeNotFound           ErrorCode = "not_found"
	CodeInvalidCredentials ErrorCode = "invalid_credentials"
	CodeDuplicateEmail     ErrorCode = "duplicate_email"
	CodeGenerationFailed   ErrorCode = "generation_failed"
	CodeStoreConflict      ErrorCode = "store_conflict"
	CodeInternal           ErrorCode = "internal"
)

type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s", op, msg)
	case msg != "":
		return msg
	case op != "":
		return fmt.Sprintf("%s: %s", op, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// Public is the message safe to hand to API clients (no operation prefix).
func (e *Error) Public() string {
	if e == nil {
		return ""
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		return msg
	}
	return string(e.Code)
}

func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap tags err with code, keeping its text as the message.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

func InvalidInput(op, message string) error {
	return NewError(CodeInvalidInput, op, message, nil)
}

func NotFound(op, message string) error {
	return NewError(CodeNotFound, op, message, nil)
}

func IsCode(err error, code ErrorCode) bool {
	var dErr *Error
	if !errors.As(err, &dErr) {
		return false
	}
	return dErr.Code == code
}

func CodeOf(err error) ErrorCode {
	var dErr *Error
	if !errors.As(err, &dErr) {
		return ""
	}
	return dErr.Code
}
