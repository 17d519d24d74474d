package middleware

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"contactbook/internal/auth"
	"contactbook/internal/model"
	"contactbook/internal/repository"
)

const currentUserKey = "currentUser"

// CurrentUser resolves the bearer token parsed by the JWT middleware into the
// owning user and stores it on the request context. Only access tokens pass;
// a refresh or email token on an API route fails with 401 even when its
// signature and expiry are fine. The token here is the jwt/v5 value produced
// by echo-jwt.
func CurrentUser(users repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			scope, _ := claims["scope"].(string)
			if scope != string(auth.TokenKindAccess) {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			email, _ := claims["sub"].(string)
			user, err := users.FindByEmail(c.Request().Context(), email)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			c.Set(currentUserKey, user)
			return next(c)
		}
	}
}

// UserFromContext returns the authenticated user placed by CurrentUser, or
// nil outside a secured route.
func UserFromContext(c echo.Context) *model.User {
	user, _ := c.Get(currentUserKey).(*model.User)
	return user
}
