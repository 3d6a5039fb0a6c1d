package errx

import (
	"fmt"
	"net/http"
)

// ErrorType classifies errors for transport-agnostic handling
type ErrorType string

const (
	TypeValidation     ErrorType = "VALIDATION"
	TypeNotFound       ErrorType = "NOT_FOUND"
	TypeConflict       ErrorType = "CONFLICT"
	TypeAuthorization  ErrorType = "AUTHORIZATION"
	TypeAuthentication ErrorType = "AUTHENTICATION"
	TypeBusiness       ErrorType = "BUSINESS"
	TypeExternal       ErrorType = "EXTERNAL"
	TypeInternal       ErrorType = "INTERNAL"
)

// ErrorCode is a registered, namespaced error code (e.g. "GUIDANCE_PLAN_NOT_FOUND")
type ErrorCode string

type definition struct {
	Type       ErrorType
	HTTPStatus int
	Message    string
}

// Registry holds the error definitions for one domain package.
// Each domain declares its registry once, at package level.
type Registry struct {
	prefix      string
	definitions map[ErrorCode]definition
}

// NewRegistry creates a registry with the given code prefix
func NewRegistry(prefix string) *Registry {
	return &Registry{
		prefix:      prefix,
		definitions: make(map[ErrorCode]definition),
	}
}

// Register adds an error definition and returns its full code
func (r *Registry) Register(code string, errType ErrorType, httpStatus int, message string) ErrorCode {
	full := ErrorCode(r.prefix + "_" + code)
	r.definitions[full] = definition{
		Type:       errType,
		HTTPStatus: httpStatus,
		Message:    message,
	}
	return full
}

// New creates an error from a registered code
func (r *Registry) New(code ErrorCode) *Error {
	def, ok := r.definitions[code]
	if !ok {
		return &Error{
			Code:       code,
			Type:       TypeInternal,
			HTTPStatus: http.StatusInternalServerError,
			Message:    "Unregistered error code",
		}
	}
	return &Error{
		Code:       code,
		Type:       def.Type,
		HTTPStatus: def.HTTPStatus,
		Message:    def.Message,
	}
}

// NewWithCause creates an error from a registered code wrapping a cause
func (r *Registry) NewWithCause(code ErrorCode, cause error) *Error {
	e := r.New(code)
	e.Cause = cause
	return e
}

// Error is the standard application error
type Error struct {
	Code       ErrorCode      `json:"code"`
	Type       ErrorType      `json:"type"`
	HTTPStatus int            `json:"-"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail attaches a single detail and returns the error for chaining
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithDetails merges a detail map and returns the error for chaining
func (e *Error) WithDetails(details map[string]any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// HTTPResponse is the wire shape returned by HTTP error handlers
type HTTPResponse struct {
	Error   string         `json:"error"`
	Type    ErrorType      `json:"type"`
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ToHTTPResponse converts the error to its wire representation
func (e *Error) ToHTTPResponse() HTTPResponse {
	return HTTPResponse{
		Error:   string(e.Type),
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}

// Wrap wraps an arbitrary error into an *Error without a registered code
func Wrap(err error, message string, errType ErrorType) *Error {
	return &Error{
		Code:       ErrorCode(string(errType) + "_ERROR"),
		Type:       errType,
		HTTPStatus: statusForType(errType),
		Message:    message,
		Cause:      err,
	}
}

func statusForType(t ErrorType) int {
	switch t {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeNotFound:
		return http.StatusNotFound
	case TypeConflict:
		return http.StatusConflict
	case TypeAuthorization:
		return http.StatusForbidden
	case TypeAuthentication:
		return http.StatusUnauthorized
	case TypeBusiness:
		return http.StatusUnprocessableEntity
	case TypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
