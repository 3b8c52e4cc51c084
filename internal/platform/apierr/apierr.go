package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/souling-backend/internal/domain"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

// Message is the client-facing text; domain errors drop their operation prefix.
func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	var dErr *domain.Error
	if errors.As(e.Err, &dErr) {
		return dErr.Public()
	}
	return e.Error()
}

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

var statusByCode = map[domain.ErrorCode]int{
	domain.CodeInvalidInput:       http.StatusBadRequest,
	domain.CodeInvalidRole:        http.StatusBadRequest,
	domain.CodeNotFound:           http.StatusNotFound,
	domain.CodeInvalidCredentials: http.StatusUnauthorized,
	domain.CodeDuplicateEmail:     http.StatusConflict,
	domain.CodeGenerationFailed:   http.StatusInternalServerError,
	domain.CodeStoreConflict:      http.StatusConflict,
	domain.CodeInternal:           http.StatusInternalServerError,
}

// FromError classifies any error for the HTTP edge. Untyped errors are internal.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	code := domain.CodeOf(err)
	if code == "" {
		return New(http.StatusInternalServerError, string(domain.CodeInternal), err)
	}
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return New(status, string(code), err)
}
