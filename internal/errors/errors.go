package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrEmailTaken is returned when signing up with an already registered email.
	ErrEmailTaken = errors.New("account already exists")
	// ErrInvalidEmail is returned when login finds no user for the email.
	ErrInvalidEmail = errors.New("invalid email")
	// ErrEmailNotConfirmed is returned when login is attempted before confirmation.
	ErrEmailNotConfirmed = errors.New("email not confirmed")
	// ErrInvalidPassword is returned when the password does not match.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrInvalidRefreshToken is returned when a refresh token is invalid, expired or reused.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrVerificationFailed is returned when an email confirmation token resolves to no user.
	ErrVerificationFailed = errors.New("verification error")
	// ErrContactNotFound is returned when a contact is absent or not owned by the caller.
	ErrContactNotFound = errors.New("contact not found")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. The three login failure
// causes stay distinguishable here for diagnostics but all surface as 401.
func MapErrorToHTTP(err error) *HTTPError {
	switch err {
	case ErrEmailTaken:
		return NewHTTPError(http.StatusConflict, err.Error(), "ACCOUNT_EXISTS")
	case ErrInvalidEmail, ErrEmailNotConfirmed, ErrInvalidPassword:
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "UNAUTHORIZED")
	case ErrInvalidRefreshToken:
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_REFRESH_TOKEN")
	case ErrVerificationFailed:
		return NewHTTPError(http.StatusBadRequest, err.Error(), "VERIFICATION_ERROR")
	case ErrContactNotFound:
		return NewHTTPError(http.StatusNotFound, err.Error(), "NOT_FOUND")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
