package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"contactbook/internal/auth"
	apperrors "contactbook/internal/errors"
	"contactbook/internal/mailer"
	"contactbook/internal/model"
)

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) UpdateRefreshToken(ctx context.Context, userID uint, token *string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

func (m *MockUserRepository) RotateRefreshToken(ctx context.Context, email, presented, next string) error {
	args := m.Called(ctx, email, presented, next)
	return args.Error(0)
}

func (m *MockUserRepository) ConfirmEmail(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateAvatar(ctx context.Context, email, url string) (*model.User, error) {
	args := m.Called(ctx, email, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

// MockMailQueue records enqueued confirmation messages.
type MockMailQueue struct {
	mock.Mock
}

func (m *MockMailQueue) Enqueue(msg mailer.Message) {
	m.Called(msg)
}

func newTestUser(email, password string, confirmed bool) *model.User {
	hash, _ := auth.HashPassword(password)
	return &model.User{
		ID:           1,
		Username:     "tester",
		Email:        email,
		PasswordHash: hash,
		Confirmed:    confirmed,
	}
}

func TestAuthService_Signup(t *testing.T) {
	tests := []struct {
		name          string
		email         string
		setupMock     func(*MockUserRepository, *MockMailQueue)
		expectedError error
	}{
		{
			name:  "successful signup enqueues confirmation email",
			email: "new@example.com",
			setupMock: func(users *MockUserRepository, mail *MockMailQueue) {
				users.On("FindByEmail", mock.Anything, "new@example.com").Return(nil, gorm.ErrRecordNotFound)
				users.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
				mail.On("Enqueue", mock.AnythingOfType("mailer.Message")).Return()
			},
			expectedError: nil,
		},
		{
			name:  "duplicate email conflicts",
			email: "taken@example.com",
			setupMock: func(users *MockUserRepository, mail *MockMailQueue) {
				users.On("FindByEmail", mock.Anything, "taken@example.com").Return(&model.User{Email: "taken@example.com"}, nil)
			},
			expectedError: apperrors.ErrEmailTaken,
		},
		{
			// two signups can pass the existence check at the same time;
			// the loser's insert hits the unique index and still conflicts
			name:  "duplicate email losing the insert race conflicts",
			email: "raced@example.com",
			setupMock: func(users *MockUserRepository, mail *MockMailQueue) {
				users.On("FindByEmail", mock.Anything, "raced@example.com").Return(nil, gorm.ErrRecordNotFound)
				users.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(gorm.ErrDuplicatedKey)
			},
			expectedError: apperrors.ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			mail := new(MockMailQueue)
			tt.setupMock(users, mail)

			svc := NewAuthService(users, auth.NewJWTService("test-secret"), mail)
			user, err := svc.Signup(context.Background(), "tester", tt.email, "password123", "http://localhost/")

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, user)
				assert.Equal(t, tt.email, user.Email)
				assert.False(t, user.Confirmed)
				assert.NotEmpty(t, user.PasswordHash)
				assert.NotEqual(t, "password123", user.PasswordHash)
			}

			users.AssertExpectations(t)
			mail.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name          string
		password      string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful login stores new refresh token",
			password: "password123",
			setupMock: func(users *MockUserRepository) {
				users.On("FindByEmail", mock.Anything, "user@example.com").
					Return(newTestUser("user@example.com", "password123", true), nil)
				users.On("UpdateRefreshToken", mock.Anything, uint(1), mock.AnythingOfType("*string")).Return(nil)
			},
		},
		{
			name:     "unknown email",
			password: "password123",
			setupMock: func(users *MockUserRepository) {
				users.On("FindByEmail", mock.Anything, "user@example.com").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrInvalidEmail,
		},
		{
			name:     "unconfirmed email",
			password: "password123",
			setupMock: func(users *MockUserRepository) {
				users.On("FindByEmail", mock.Anything, "user@example.com").
					Return(newTestUser("user@example.com", "password123", false), nil)
			},
			expectedError: apperrors.ErrEmailNotConfirmed,
		},
		{
			name:     "wrong password",
			password: "wrong-password",
			setupMock: func(users *MockUserRepository) {
				users.On("FindByEmail", mock.Anything, "user@example.com").
					Return(newTestUser("user@example.com", "password123", true), nil)
			},
			expectedError: apperrors.ErrInvalidPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			tt.setupMock(users)

			svc := NewAuthService(users, auth.NewJWTService("test-secret"), new(MockMailQueue))
			pair, err := svc.Login(context.Background(), "user@example.com", tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, pair)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, pair.AccessToken)
				assert.NotEmpty(t, pair.RefreshToken)
				assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
			}

			users.AssertExpectations(t)
		})
	}
}

func TestAuthService_Refresh(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret")

	t.Run("successful rotation", func(t *testing.T) {
		presented, err := jwtService.IssueToken(auth.TokenKindRefresh, "user@example.com")
		assert.NoError(t, err)

		users := new(MockUserRepository)
		users.On("RotateRefreshToken", mock.Anything, "user@example.com", presented, mock.AnythingOfType("string")).Return(nil)

		svc := NewAuthService(users, jwtService, new(MockMailQueue))
		pair, err := svc.Refresh(context.Background(), presented)
		assert.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.NotEqual(t, presented, pair.RefreshToken)
		users.AssertExpectations(t)
	})

	t.Run("reused token after rotation is rejected", func(t *testing.T) {
		presented, err := jwtService.IssueToken(auth.TokenKindRefresh, "user@example.com")
		assert.NoError(t, err)

		users := new(MockUserRepository)
		users.On("RotateRefreshToken", mock.Anything, "user@example.com", presented, mock.AnythingOfType("string")).
			Return(apperrors.ErrInvalidRefreshToken)

		svc := NewAuthService(users, jwtService, new(MockMailQueue))
		pair, err := svc.Refresh(context.Background(), presented)
		assert.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
		assert.Nil(t, pair)
		users.AssertExpectations(t)
	})

	t.Run("access token presented as refresh token", func(t *testing.T) {
		accessToken, err := jwtService.IssueToken(auth.TokenKindAccess, "user@example.com")
		assert.NoError(t, err)

		users := new(MockUserRepository)
		svc := NewAuthService(users, jwtService, new(MockMailQueue))
		pair, err := svc.Refresh(context.Background(), accessToken)
		assert.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
		assert.Nil(t, pair)
		// kind mismatch fails before any store access
		users.AssertNotCalled(t, "RotateRefreshToken")
	})

	t.Run("subject without account", func(t *testing.T) {
		presented, err := jwtService.IssueToken(auth.TokenKindRefresh, "ghost@example.com")
		assert.NoError(t, err)

		users := new(MockUserRepository)
		users.On("RotateRefreshToken", mock.Anything, "ghost@example.com", presented, mock.AnythingOfType("string")).
			Return(gorm.ErrRecordNotFound)

		svc := NewAuthService(users, jwtService, new(MockMailQueue))
		_, err = svc.Refresh(context.Background(), presented)
		assert.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
	})
}

func TestAuthService_ConfirmEmail(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret")

	t.Run("first confirmation flips the flag", func(t *testing.T) {
		token, err := jwtService.IssueToken(auth.TokenKindEmail, "user@example.com")
		assert.NoError(t, err)

		users := new(MockUserRepository)
		users.On("FindByEmail", mock.Anything, "user@example.com").
			Return(newTestUser("user@example.com", "password123", false), nil)
		users.On("ConfirmEmail", mock.Anything, "user@example.com").Return(nil)

		svc := NewAuthService(users, jwtService, new(MockMailQueue))
		already, err := svc.ConfirmEmail(context.Background(), token)
		assert.NoError(t, err)
		assert.False(t, already)
		users.AssertExpectations(t)
	})

	t.Run("second confirmation is idempotent", func(t *testing.T) {
		token, err := jwtService.IssueToken(auth.TokenKindEmail, "user@example.com")
		assert.NoError(t, err)

		users := new(MockUserRepository)
		users.On("FindByEmail", mock.Anything, "user@example.com").
			Return(newTestUser("user@example.com", "password123", true), nil)

		svc := NewAuthService(users, jwtService, new(MockMailQueue))
		already, err := svc.ConfirmEmail(context.Background(), token)
		assert.NoError(t, err)
		assert.True(t, already)
		users.AssertNotCalled(t, "ConfirmEmail")
	})

	t.Run("token for an unknown user", func(t *testing.T) {
		token, err := jwtService.IssueToken(auth.TokenKindEmail, "ghost@example.com")
		assert.NoError(t, err)

		users := new(MockUserRepository)
		users.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, gorm.ErrRecordNotFound)

		svc := NewAuthService(users, jwtService, new(MockMailQueue))
		_, err = svc.ConfirmEmail(context.Background(), token)
		assert.ErrorIs(t, err, apperrors.ErrVerificationFailed)
	})

	t.Run("access token is not a confirmation token", func(t *testing.T) {
		token, err := jwtService.IssueToken(auth.TokenKindAccess, "user@example.com")
		assert.NoError(t, err)

		svc := NewAuthService(new(MockUserRepository), jwtService, new(MockMailQueue))
		_, err = svc.ConfirmEmail(context.Background(), token)
		assert.ErrorIs(t, err, apperrors.ErrVerificationFailed)
	})
}

func TestAuthService_RequestEmailConfirmation(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret")

	t.Run("unconfirmed user gets a new email", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("FindByEmail", mock.Anything, "user@example.com").
			Return(newTestUser("user@example.com", "password123", false), nil)
		mail := new(MockMailQueue)
		mail.On("Enqueue", mock.AnythingOfType("mailer.Message")).Return()

		svc := NewAuthService(users, jwtService, mail)
		already, err := svc.RequestEmailConfirmation(context.Background(), "user@example.com", "http://localhost/")
		assert.NoError(t, err)
		assert.False(t, already)
		mail.AssertExpectations(t)
	})

	t.Run("confirmed user gets no email", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("FindByEmail", mock.Anything, "user@example.com").
			Return(newTestUser("user@example.com", "password123", true), nil)
		mail := new(MockMailQueue)

		svc := NewAuthService(users, jwtService, mail)
		already, err := svc.RequestEmailConfirmation(context.Background(), "user@example.com", "http://localhost/")
		assert.NoError(t, err)
		assert.True(t, already)
		mail.AssertNotCalled(t, "Enqueue")
	})

	t.Run("unknown email succeeds silently", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, gorm.ErrRecordNotFound)
		mail := new(MockMailQueue)

		svc := NewAuthService(users, jwtService, mail)
		already, err := svc.RequestEmailConfirmation(context.Background(), "ghost@example.com", "http://localhost/")
		assert.NoError(t, err)
		assert.False(t, already)
		mail.AssertNotCalled(t, "Enqueue")
	})
}
