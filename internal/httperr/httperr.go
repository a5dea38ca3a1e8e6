package httperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Error is the application error taxonomy. Every handler failure is one of
// BadRequest, Unauthenticated, Unauthorized or NotFound; anything else
// reaching the boundary is reported as a generic 500.
type Error struct {
	Code    int    `json:"-"`
	Message string `json:"msg"`
}

func (e *Error) Error() string {
	return e.Message
}

func New(code int, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func BadRequest(msg string) *Error {
	return New(http.StatusBadRequest, msg)
}

func Unauthenticated(msg string) *Error {
	return New(http.StatusUnauthorized, msg)
}

func Unauthorized(msg string) *Error {
	return New(http.StatusForbidden, msg)
}

func NotFound(msg string) *Error {
	return New(http.StatusNotFound, msg)
}

// Handler is the single boundary translator: it maps taxonomy errors to their
// status and {"msg": ...} body and never leaks internal detail to clients.
func Handler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := "something went wrong, please try again"

	var appErr *Error
	var echoErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		code = appErr.Code
		msg = appErr.Message
	case errors.As(err, &echoErr):
		code = echoErr.Code
		if s, ok := echoErr.Message.(string); ok {
			msg = s
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, map[string]string{"msg": msg})
}
