package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"satprep-service/internal/domain"
)

// ok writes the success envelope with the handler's payload fields merged in.
func ok(c echo.Context, payload echo.Map) error {
	body := echo.Map{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	return c.JSON(http.StatusOK, body)
}

// fail writes the error envelope.
func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, echo.Map{"success": false, "error": message})
}

// failErr maps domain sentinels onto their statuses; anything unrecognized
// becomes a logged 500.
func failErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrGoogleAuthFailed):
		return fail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrQuestionNotFound):
		return fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrEmailTaken), errors.Is(err, domain.ErrGoogleAlreadyLinked):
		return fail(c, http.StatusConflict, err.Error())
	default:
		c.Logger().Error(err)
		return fail(c, http.StatusInternalServerError, "Internal server error")
	}
}
