package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// TokenKind discriminates the three token flavours sharing one signing secret.
// The kind is embedded as the "scope" claim so a token can never be presented
// in place of another kind.
type TokenKind string

const (
	// TokenKindAccess authorizes API calls.
	TokenKindAccess TokenKind = "access_token"
	// TokenKindRefresh is exchanged for a new token pair.
	TokenKindRefresh TokenKind = "refresh_token"
	// TokenKindEmail proves control of an email address during confirmation.
	TokenKindEmail TokenKind = "email_token"
)

const (
	// AccessTokenExpiry is the duration for which access tokens are valid.
	AccessTokenExpiry = 15 * time.Minute
	// RefreshTokenExpiry is the duration for which refresh tokens are valid.
	RefreshTokenExpiry = 7 * 24 * time.Hour
	// EmailTokenExpiry is the duration for which email confirmation tokens are valid.
	EmailTokenExpiry = 24 * time.Hour
)

var (
	// ErrTokenInvalid covers malformed tokens and signature mismatches.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned when the token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrScopeMismatch is returned when a token of one kind is presented
	// where another kind is expected.
	ErrScopeMismatch = errors.New("token scope mismatch")
)

// Claims represents JWT claims carried by every token kind.
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// JWTService issues and verifies the three token kinds.
type JWTService struct {
	secret []byte
	now    func() time.Time
}

// NewJWTService creates a new JWT service with the given secret.
func NewJWTService(secret string) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		now:    time.Now,
	}
}

func lifetime(kind TokenKind) time.Duration {
	switch kind {
	case TokenKindRefresh:
		return RefreshTokenExpiry
	case TokenKindEmail:
		return EmailTokenExpiry
	default:
		return AccessTokenExpiry
	}
}

// IssueToken creates a signed token of the given kind with the user email as
// subject.
func (s *JWTService) IssueToken(kind TokenKind, email string) (string, error) {
	now := s.now()
	claims := &Claims{
		Scope: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime(kind))),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyToken checks signature, expiry and kind, returning the subject email.
// Expiry and scope are checked here against the service clock so the distinct
// failure causes stay visible to callers.
func (s *JWTService) VerifyToken(kind TokenKind, tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithoutClaimsValidation())

	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", ErrTokenInvalid
	}

	if claims.ExpiresAt == nil || s.now().After(claims.ExpiresAt.Time) {
		return "", ErrTokenExpired
	}
	if claims.Scope != string(kind) {
		return "", ErrScopeMismatch
	}

	return claims.Subject, nil
}
