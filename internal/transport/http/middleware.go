package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"satprep-service/internal/app"
)

const contextUserIDKey = "userID"

// bearerAuth validates the Authorization header and stores the token's user
// id in the request context.
func bearerAuth(auth *app.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return fail(c, http.StatusUnauthorized, "Missing or invalid authorization header")
			}
			userID, err := auth.ParseToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return fail(c, http.StatusUnauthorized, "Invalid or expired token")
			}
			c.Set(contextUserIDKey, userID)
			return next(c)
		}
	}
}

func currentUserID(c echo.Context) string {
	id, _ := c.Get(contextUserIDKey).(string)
	return id
}
