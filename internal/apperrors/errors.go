package apperrors

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Stable machine-readable error codes returned in every error response body.
// Infrastructure failures all map to 500 but keep distinct codes so callers
// can tell which dependency operation failed without ever seeing provider
// detail.
const (
	CodeValidation   = "validation_error"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeNotFound     = "not_found"
	CodeUploadFailed = "upload_failed"
	CodeCreateFailed = "create_failed"
	CodeFetchFailed  = "fetch_failed"
	CodeUpdateFailed = "update_failed"
	CodeDeleteFailed = "delete_failed"
	CodeInternal     = "internal_error"
)

// Error pairs a stable code with a human-readable message. The wrapped cause
// stays server-side and is never serialized.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the error code to its HTTP status
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Validation builds a client-correctable 400 error
func Validation(message string) *Error {
	return &Error{Code: CodeValidation, Message: message}
}

// Unauthorized builds a 401 error for a missing or invalid identity
func Unauthorized(message string) *Error {
	return &Error{Code: CodeUnauthorized, Message: message}
}

// Forbidden builds a 403 error for a valid identity with insufficient role
func Forbidden(message string) *Error {
	return &Error{Code: CodeForbidden, Message: message}
}

// NotFound builds a 404 error; it also covers "exists but not yours" so
// existence is never leaked through the status code
func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

// Internal builds a 500 error with one of the infrastructure failure codes,
// keeping the underlying cause out of the response body
func Internal(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// response is the wire shape of every error body
type response struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HTTPErrorHandler renders every error as {"code","message"}. Echo's own
// HTTP errors (routing 404s, middleware rejections) are folded into the same
// taxonomy by status.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var status int
	var body response

	switch e := err.(type) {
	case *Error:
		status = e.HTTPStatus()
		body = response{Code: e.Code, Message: e.Message}
	case *echo.HTTPError:
		status = e.Code
		body = response{Code: codeForStatus(e.Code), Message: messageOf(e)}
	default:
		status = http.StatusInternalServerError
		body = response{Code: CodeInternal, Message: "internal server error"}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, body)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeValidation
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return CodeNotFound
	default:
		return CodeInternal
	}
}

func messageOf(e *echo.HTTPError) string {
	if msg, ok := e.Message.(string); ok {
		return msg
	}
	return http.StatusText(e.Code)
}
