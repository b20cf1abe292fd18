// Package apierror defines the API error taxonomy and the uniform JSON
// error envelope every failing response is rendered with:
//
//	{"success": false, "message": "...", "errors": {"field": "message"}}
package apierror

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Error is an API error with an HTTP status and optional field-level detail.
type Error struct {
	Status  int               `json:"-"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"errors,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// New constructs an Error with an arbitrary status code.
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// BadRequest builds a 400 error, optionally with field messages.
func BadRequest(message string, fields map[string]string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message, Fields: fields}
}

// Unauthorized builds a 401 error.
func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: message}
}

// Forbidden builds a 403 error.
func Forbidden(message string) *Error {
	return &Error{Status: http.StatusForbidden, Message: message}
}

// NotFound builds a 404 error.
func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message}
}

// Conflict builds a 409 error.
func Conflict(message string) *Error {
	return &Error{Status: http.StatusConflict, Message: message}
}

// Internal builds a 500 error.
func Internal(message string) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: message}
}

// StatusOf resolves the HTTP status an error will be rendered with.
// Errors that carry no status map to 500.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}
	return http.StatusInternalServerError
}

// envelope is the wire form of every error response.
type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
	Detail  string            `json:"error,omitempty"`
}

// Handler returns an echo.HTTPErrorHandler that renders every error through
// the envelope. Unrecognized errors become 500s; their detail is included
// only in development mode.
func Handler(logger zerolog.Logger, dev bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		env := envelope{Success: false}
		status := http.StatusInternalServerError

		var apiErr *Error
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &apiErr):
			status = apiErr.Status
			env.Message = apiErr.Message
			env.Errors = apiErr.Fields
		case errors.As(err, &httpErr):
			status = httpErr.Code
			if msg, ok := httpErr.Message.(string); ok {
				env.Message = msg
			} else {
				env.Message = http.StatusText(status)
			}
		default:
			env.Message = "Server Error"
			if dev {
				env.Detail = err.Error()
			}
		}

		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, env)
	}
}
