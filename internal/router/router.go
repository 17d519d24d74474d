package router

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"contactbook/internal/config"
	"contactbook/internal/handler"
	"contactbook/internal/middleware"
	"contactbook/internal/repository"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	users repository.UserRepository,
	limiter middleware.Counter,
	authHandler *handler.AuthHandler,
	contactHandler *handler.ContactHandler,
	userHandler *handler.UserHandler,
) {
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{echo.GET, echo.POST, echo.PUT, echo.PATCH, echo.DELETE},
		AllowCredentials: true,
	}))

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Contact book API"})
	}, middleware.RateLimit(limiter, 2, 5*time.Second))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/signup", authHandler.Signup)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/auth/refresh_token", authHandler.Refresh)
	api.GET("/auth/confirmed_email/:token", authHandler.ConfirmEmail)
	api.POST("/auth/request_email", authHandler.RequestEmail)

	// Secured routes: the JWT middleware checks signature and expiry, then
	// CurrentUser enforces the access scope and loads the caller.
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(cfg.JWTSecret),
	}), middleware.CurrentUser(users))

	contacts := secured.Group("/contacts", middleware.RateLimit(limiter, 10, time.Minute))
	contacts.GET("/", contactHandler.List)
	contacts.GET("/birthdays", contactHandler.Birthdays)
	contacts.POST("/", contactHandler.Create)
	contacts.GET("/:id", contactHandler.Get)
	contacts.PUT("/:id", contactHandler.Update)
	contacts.DELETE("/:id", contactHandler.Delete)

	secured.GET("/users/me/", userHandler.Me)
	secured.PATCH("/users/avatar", userHandler.UpdateAvatar)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
