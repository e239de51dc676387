// Package apperr defines the typed errors the domain services raise and the
// echo error handler that maps them onto HTTP responses. Services return
// these instead of raw HTTP errors so callers and tests can branch on kind.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Stable error codes carried in response bodies for programmatic handling.
const (
	CodeInput     = "invalid_input"
	CodeState     = "invalid_state"
	CodeInvariant = "invariant_violation"
	CodeConflict  = "conflict"
	CodeExternal  = "external_failure"
	CodeNotFound  = "not_found"
	CodeAuth      = "auth_failed"
	CodeForbidden = "forbidden"
)

// InputError reports a payload that fails validation. Fields maps field
// names to display-safe messages.
type InputError struct {
	Msg    string
	Fields map[string]string
}

func (e *InputError) Error() string {
	if len(e.Fields) == 0 {
		return e.Msg
	}
	parts := make([]string, 0, len(e.Fields))
	for f, m := range e.Fields {
		parts = append(parts, f+": "+m)
	}
	return e.Msg + " (" + strings.Join(parts, "; ") + ")"
}

func Input(msg string) *InputError {
	return &InputError{Msg: msg}
}

func InputField(field, msg string) *InputError {
	return &InputError{Msg: "validation failed", Fields: map[string]string{field: msg}}
}

// StateError reports a stage action whose predecessor state is not
// satisfied. It carries the case's current state and the actions allowed
// from it.
type StateError struct {
	Current string
	Action  string
	Allowed []string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("action %s not allowed in state %s (allowed: %s)",
		e.Action, e.Current, strings.Join(e.Allowed, ", "))
}

func State(current, action string, allowed []string) *StateError {
	return &StateError{Current: current, Action: action, Allowed: allowed}
}

// InvariantError reports an operation that would break a model invariant,
// such as occupying a kennel that is not free.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string { return e.Msg }

func Invariant(format string, args ...interface{}) *InvariantError {
	return &InvariantError{Msg: fmt.Sprintf(format, args...)}
}

// ConflictError reports an optimistic concurrency or allocator clash that
// persisted through internal retries.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

func Conflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

// ExternalError reports a dependency failure (photo store, geocoder). The
// caller commits with degraded data; the response tells the client what is
// pending.
type ExternalError struct {
	Service string
	Err     error
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Service, e.Err)
}

func (e *ExternalError) Unwrap() error { return e.Err }

func External(service string, err error) *ExternalError {
	return &ExternalError{Service: service, Err: err}
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func NotFound(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// AuthError reports a missing or invalid credential, or a role that lacks
// the required capability. Forbidden distinguishes 403 from 401.
type AuthError struct {
	Msg       string
	Forbidden bool
}

func (e *AuthError) Error() string { return e.Msg }

func Auth(msg string) *AuthError {
	return &AuthError{Msg: msg}
}

func Forbidden(msg string) *AuthError {
	return &AuthError{Msg: msg, Forbidden: true}
}

// HTTPErrorHandler returns an echo error handler that maps the taxonomy to
// status codes and a {error, code, details} JSON body. Unrecognized errors
// become opaque 500s; their detail goes to the log only.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := toResponse(err)

		if status >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).
				Str("request_id", rid).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			logger.Error().Err(writeErr).Msg("failed to write error response")
		}
	}
}

func toResponse(err error) (int, map[string]interface{}) {
	var (
		inputErr     *InputError
		stateErr     *StateError
		invariantErr *InvariantError
		conflictErr  *ConflictError
		externalErr  *ExternalError
		notFoundErr  *NotFoundError
		authErr      *AuthError
		httpErr      *echo.HTTPError
	)

	switch {
	case errors.As(err, &inputErr):
		body := map[string]interface{}{"error": inputErr.Msg, "code": CodeInput}
		if len(inputErr.Fields) > 0 {
			body["details"] = inputErr.Fields
		}
		return http.StatusBadRequest, body

	case errors.As(err, &stateErr):
		return http.StatusConflict, map[string]interface{}{
			"error": stateErr.Error(),
			"code":  CodeState,
			"details": map[string]interface{}{
				"current_state": stateErr.Current,
				"allowed":       stateErr.Allowed,
			},
		}

	case errors.As(err, &invariantErr):
		return http.StatusConflict, map[string]interface{}{
			"error": invariantErr.Msg,
			"code":  CodeInvariant,
		}

	case errors.As(err, &conflictErr):
		return http.StatusConflict, map[string]interface{}{
			"error": conflictErr.Msg,
			"code":  CodeConflict,
		}

	case errors.As(err, &externalErr):
		return http.StatusBadGateway, map[string]interface{}{
			"error": externalErr.Error(),
			"code":  CodeExternal,
			"details": map[string]interface{}{
				"service": externalErr.Service,
			},
		}

	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, map[string]interface{}{
			"error": notFoundErr.Error(),
			"code":  CodeNotFound,
		}

	case errors.As(err, &authErr):
		if authErr.Forbidden {
			return http.StatusForbidden, map[string]interface{}{
				"error": authErr.Msg,
				"code":  CodeForbidden,
			}
		}
		return http.StatusUnauthorized, map[string]interface{}{
			"error": authErr.Msg,
			"code":  CodeAuth,
		}

	case errors.As(err, &httpErr):
		msg, ok := httpErr.Message.(string)
		if !ok {
			msg = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, map[string]interface{}{
			"error": msg,
			"code":  codeForStatus(httpErr.Code),
		}
	}

	return http.StatusInternalServerError, map[string]interface{}{
		"error": "internal server error",
		"code":  "internal",
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeInput
	case http.StatusUnauthorized:
		return CodeAuth
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	default:
		return "http_error"
	}
}
