package apierr

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/yungbote/examiner-backend/internal/pkg/errors"
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

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

var statusByCode = map[string]int{
	errors.CodeNotFound:          http.StatusNotFound,
	errors.CodeInvalidArgument:   http.StatusBadRequest,
	errors.CodeConflict:          http.StatusConflict,
	errors.CodeExtraction:        http.StatusUnprocessableEntity,
	errors.CodeReasoningProvider: http.StatusBadGateway,
	errors.CodeResponseParsing:   http.StatusBadGateway,
	errors.CodePersistence:       http.StatusInternalServerError,
	errors.CodeInternal:          http.StatusInternalServerError,
}

// FromError maps a pipeline error onto its HTTP status and stable code.
// An *Error anywhere in the chain wins.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var api *Error
	if stderrors.As(err, &api) {
		return api
	}
	code := errors.Code(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &Error{Status: status, Code: code, Err: err}
}
