package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"contactbook/internal/auth"
	apperrors "contactbook/internal/errors"
	"contactbook/internal/mailer"
	"contactbook/internal/model"
	"contactbook/internal/repository"
)

// TokenPair bundles the two credentials issued on login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService handles the signup/confirmation/login/refresh lifecycle.
type AuthService interface {
	Signup(ctx context.Context, username, email, password, host string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	ConfirmEmail(ctx context.Context, token string) (alreadyConfirmed bool, err error)
	RequestEmailConfirmation(ctx context.Context, email, host string) (alreadyConfirmed bool, err error)
}

type authService struct {
	users repository.UserRepository
	jwt   *auth.JWTService
	mail  mailer.Queue
}

// NewAuthService creates a new authentication service.
func NewAuthService(users repository.UserRepository, jwt *auth.JWTService, mail mailer.Queue) AuthService {
	return &authService{
		users: users,
		jwt:   jwt,
		mail:  mail,
	}
}

// Signup creates an unconfirmed user and enqueues the confirmation email. The
// email send never blocks or fails the request.
func (s *authService) Signup(ctx context.Context, username, email, password, host string) (*model.User, error) {
	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, apperrors.ErrEmailTaken
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Two signups for the same email can both pass the existence check;
		// the unique index decides the loser.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.enqueueConfirmation(user, host)
	return user, nil
}

// Login verifies credentials and issues a fresh token pair. Storing the new
// refresh token invalidates any session still holding the previous one.
func (s *authService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.ErrInvalidEmail
	}
	if !user.Confirmed {
		return nil, apperrors.ErrEmailNotConfirmed
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidPassword
	}

	pair, err := s.issuePair(user.Email)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateRefreshToken(ctx, user.ID, &pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return pair, nil
}

// Refresh exchanges a valid refresh token for a new pair. The compare-and-swap
// against the stored token runs inside the repository's transaction; a token
// that no longer matches forces re-login.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	email, err := s.jwt.VerifyToken(auth.TokenKindRefresh, refreshToken)
	if err != nil {
		return nil, apperrors.ErrInvalidRefreshToken
	}

	pair, err := s.issuePair(email)
	if err != nil {
		return nil, err
	}
	if err := s.users.RotateRefreshToken(ctx, email, refreshToken, pair.RefreshToken); err != nil {
		if errors.Is(err, apperrors.ErrInvalidRefreshToken) {
			return nil, apperrors.ErrInvalidRefreshToken
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}
	return pair, nil
}

// ConfirmEmail consumes a confirmation token. Confirming twice is not an
// error; the flag only ever moves from false to true.
func (s *authService) ConfirmEmail(ctx context.Context, token string) (bool, error) {
	email, err := s.jwt.VerifyToken(auth.TokenKindEmail, token)
	if err != nil {
		return false, apperrors.ErrVerificationFailed
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return false, apperrors.ErrVerificationFailed
	}
	if user.Confirmed {
		return true, nil
	}
	if err := s.users.ConfirmEmail(ctx, email); err != nil {
		return false, fmt.Errorf("confirm email: %w", err)
	}
	return false, nil
}

// RequestEmailConfirmation re-sends the confirmation email. An unknown email
// gets the same generic response as a known one so the endpoint cannot be
// used to probe which addresses are registered.
func (s *authService) RequestEmailConfirmation(ctx context.Context, email, host string) (bool, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return false, nil
	}
	if user.Confirmed {
		return true, nil
	}
	s.enqueueConfirmation(user, host)
	return false, nil
}

func (s *authService) issuePair(email string) (*TokenPair, error) {
	access, err := s.jwt.IssueToken(auth.TokenKindAccess, email)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.jwt.IssueToken(auth.TokenKindRefresh, email)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *authService) enqueueConfirmation(user *model.User, host string) {
	token, err := s.jwt.IssueToken(auth.TokenKindEmail, user.Email)
	if err != nil {
		// The signup itself already succeeded; the user can re-request the
		// confirmation email once whatever broke signing is fixed.
		log.Printf("issue confirmation token for %s: %v", user.Email, err)
		return
	}
	s.mail.Enqueue(mailer.Message{
		To:       user.Email,
		Username: user.Username,
		Host:     host,
		Token:    token,
	})
}
