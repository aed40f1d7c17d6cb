package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies an error for callers; handlers map it onto an HTTP status.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindNotFound       Kind = "not_found"
	KindAlreadyMatched Kind = "already_matched"
	KindConflict       Kind = "conflict"
	KindInternal       Kind = "internal"
)

// Codes carried alongside the kind.
const (
	CodeMissingField       = "missing_field"
	CodeMissingColumn      = "missing_column"
	CodeInvalidAmount      = "invalid_amount"
	CodeInvalidDate        = "invalid_date"
	CodeInvalidInput       = "invalid_input"
	CodeNotFound           = "not_found"
	CodeNoFeeStructure     = "no_fee_structure"
	CodeAlreadyMatched     = "already_matched"
	CodeDuplicateReference = "duplicate_reference"
	CodeDuplicate          = "duplicate"
	CodeMatchingInProgress = "matching_in_progress"
	CodeUnexpected         = "unexpected_error"
)

// Context holds extra key/value details attached to an error.
type Context map[string]interface{}

// Error is the application error type returned across service boundaries.
type Error struct {
	Kind    Kind    `json:"kind"`
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Context Context `json:"context,omitempty"`
	Cause   error   `json:"-"`

	stack pkgerrors.StackTrace
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// StackTrace returns the stack captured when the error was built.
func (e *Error) StackTrace() pkgerrors.StackTrace {
	return e.stack
}

// WithContext adds a key/value detail and returns the same error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// New builds an error of the given kind and code.
func New(kind Kind, code, message string) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: message,
		stack:   pkgerrors.New("").(stackTracer).StackTrace()[1:],
	}
}

// Wrap builds an error of the given kind around cause. A nil cause yields nil.
func Wrap(cause error, kind Kind, code, message string) *Error {
	if cause == nil {
		return nil
	}
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: message,
		Cause:   cause,
		stack:   pkgerrors.WithStack(cause).(stackTracer).StackTrace()[1:],
	}
}

func Validation(field, message string) *Error {
	return New(KindValidation, CodeInvalidInput, fmt.Sprintf("%s: %s", field, message)).
		WithContext("field", field)
}

func MissingField(field string) *Error {
	return New(KindValidation, CodeMissingField, fmt.Sprintf("%s is required", field)).
		WithContext("field", field)
}

func NotFound(entity string, id interface{}) *Error {
	return New(KindNotFound, CodeNotFound, fmt.Sprintf("%s %v not found", entity, id)).
		WithContext("entity", entity).
		WithContext("id", id)
}

func AlreadyMatched(reference string) *Error {
	return New(KindAlreadyMatched, CodeAlreadyMatched, fmt.Sprintf("transaction %s is already matched", reference)).
		WithContext("reference", reference)
}

func Conflict(entity, message string, cause error) *Error {
	var err *Error
	if cause != nil {
		err = Wrap(cause, KindConflict, CodeDuplicate, message)
	} else {
		err = New(KindConflict, CodeDuplicate, message)
	}
	return err.WithContext("entity", entity)
}

func Internal(op string, cause error) *Error {
	return Wrap(cause, KindInternal, CodeUnexpected, fmt.Sprintf("unexpected error during %s", op))
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf reports the kind of err; errors outside the taxonomy are internal.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// HTTPStatus maps err onto a response status.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAlreadyMatched, KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
