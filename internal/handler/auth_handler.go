package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "contactbook/internal/errors"
	"contactbook/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// SignupRequest represents a user signup request.
type SignupRequest struct {
	Username string `json:"username" validate:"required,min=5,max=16"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest represents a login form submission. The username field carries
// the email address.
type LoginRequest struct {
	Username string `form:"username" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// RequestEmailRequest asks for the confirmation email to be re-sent.
type RequestEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// TokenResponse represents an issued token pair.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// MessageResponse is a plain message body.
type MessageResponse struct {
	Message string `json:"message"`
}

// Signup godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignupRequest true "Signup data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.authService.Signup(c.Request().Context(), req.Username, req.Email, req.Password, baseURL(c))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"user":   user,
		"detail": "User successfully created. Check your email for confirmation.",
	})
}

// Login godoc
// @Summary Login with email and password
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param username formData string true "Email address"
// @Param password formData string true "Password"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	pair, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
	})
}

// Refresh godoc
// @Summary Exchange a refresh token for a new token pair
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} TokenResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/refresh_token [get]
func (h *AuthHandler) Refresh(c echo.Context) error {
	token := bearerToken(c)
	if token == "" {
		return httpError(apperrors.ErrInvalidRefreshToken)
	}

	pair, err := h.authService.Refresh(c.Request().Context(), token)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
	})
}

// ConfirmEmail godoc
// @Summary Confirm an email address
// @Tags auth
// @Produce json
// @Param token path string true "Confirmation token"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /auth/confirmed_email/{token} [get]
func (h *AuthHandler) ConfirmEmail(c echo.Context) error {
	already, err := h.authService.ConfirmEmail(c.Request().Context(), c.Param("token"))
	if err != nil {
		return httpError(err)
	}
	if already {
		return c.JSON(http.StatusOK, MessageResponse{Message: "Your email is already confirmed"})
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Email confirmed"})
}

// RequestEmail godoc
// @Summary Request a new confirmation email
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RequestEmailRequest true "Email address"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /auth/request_email [post]
func (h *AuthHandler) RequestEmail(c echo.Context) error {
	var req RequestEmailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	already, err := h.authService.RequestEmailConfirmation(c.Request().Context(), req.Email, baseURL(c))
	if err != nil {
		return httpError(err)
	}
	if already {
		return c.JSON(http.StatusOK, MessageResponse{Message: "Your email is already confirmed"})
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Check your email for confirmation."})
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func baseURL(c echo.Context) string {
	return c.Scheme() + "://" + c.Request().Host + "/"
}

// httpError translates a domain error to the echo error shape.
func httpError(err error) *echo.HTTPError {
	he := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(he.StatusCode, he.ToErrorResponse())
}
