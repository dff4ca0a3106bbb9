package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/seedlearn/seed-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// domainStatus maps sentinel errors to a status and public message. An
// empty message means the error text itself is safe to return.
var domainStatus = []struct {
	err  error
	code int
	msg  string
}{
	{domain.ErrUserExists, http.StatusConflict, "user already exists"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
	{domain.ErrTokenInvalid, http.StatusUnauthorized, "invalid or expired token"},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "authentication required"},
	{domain.ErrForbidden, http.StatusForbidden, "access forbidden"},
	{domain.ErrUserNotFound, http.StatusNotFound, "user not found"},
	{domain.ErrInvalidInput, http.StatusBadRequest, ""},
}

// NewHTTPErrorHandler renders every error as {"error": "..."}. Domain errors
// get a fixed status, echo errors keep theirs, anything else is logged and
// hidden behind a 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err)
		if code == http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Msg("unhandled error")
		}
		if code == http.StatusUnauthorized {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	for _, m := range domainStatus {
		if errors.Is(err, m.err) {
			if m.msg == "" {
				return m.code, err.Error()
			}
			return m.code, m.msg
		}
	}
	return http.StatusInternalServerError, "internal server error"
}
