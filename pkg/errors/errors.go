package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code classifies an error for clients and maps it to an HTTP status.
type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"
)

// Metadata describes how a code is rendered on the wire. When Exposed is
// false clients only ever see Fallback; the error's own message stays in logs.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	Exposed        bool
	DetailsAllowed bool
	Fallback       string
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:    {HTTPStatus: http.StatusBadRequest, Exposed: true, DetailsAllowed: true, Fallback: "validation failed"},
	CodeUnauthorized:  {HTTPStatus: http.StatusUnauthorized, Exposed: true, Fallback: "authentication required"},
	CodeForbidden:     {HTTPStatus: http.StatusForbidden, Exposed: true, Fallback: "access denied"},
	CodeNotFound:      {HTTPStatus: http.StatusNotFound, Exposed: true, Fallback: "resource not found"},
	CodeConflict:      {HTTPStatus: http.StatusConflict, Exposed: true, Fallback: "conflict detected"},
	CodeStateConflict: {HTTPStatus: http.StatusUnprocessableEntity, Exposed: true, DetailsAllowed: true, Fallback: "state transition disallowed"},
	CodeIdempotency:   {HTTPStatus: http.StatusConflict, Exposed: true, DetailsAllowed: true, Fallback: "idempotency key reused"},
	CodeRateLimit:     {HTTPStatus: http.StatusTooManyRequests, Exposed: true, Fallback: "rate limit exceeded"},
	CodeInternal:      {HTTPStatus: http.StatusInternalServerError, Retryable: true, Fallback: "internal server error"},
	CodeDependency:    {HTTPStatus: http.StatusServiceUnavailable, Retryable: true, DetailsAllowed: true, Fallback: "dependency unavailable"},
}

// MetadataFor falls back to CodeInternal for unknown codes.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error is the typed error every service returns. The message is safe to show
// to clients; the cause is only logged.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

// Coded passes err through when it already carries a code and wraps it with
// code otherwise.
func Coded(code Code, err error, message string) error {
	if err == nil || As(err) != nil {
		return err
	}
	return Wrap(code, err, message)
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// PublicMessage is what a client may read: the message for exposed codes,
// otherwise the code's fallback.
func (e *Error) PublicMessage() string {
	meta := MetadataFor(e.Code())
	if meta.Exposed && e.Message() != "" {
		return e.message
	}
	return meta.Fallback
}

// PublicDetails is nil unless the code allows details on the wire.
func (e *Error) PublicDetails() any {
	if !MetadataFor(e.Code()).DetailsAllowed {
		return nil
	}
	return e.Details()
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails replaces the details payload.
func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

// WithDetail sets one key on a map payload, creating the map when needed.
// A non-map payload is replaced.
func (e *Error) WithDetail(key string, value any) *Error {
	if e == nil {
		return nil
	}
	fields, ok := e.details.(map[string]any)
	if !ok {
		fields = map[string]any{}
	}
	fields[key] = value
	e.details = fields
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}

// StepDetail returns the "step" detail naming which stage of a multi-step
// write failed.
func StepDetail(err error) string {
	fields, ok := As(err).Details().(map[string]any)
	if !ok {
		return ""
	}
	step, _ := fields["step"].(string)
	return step
}
