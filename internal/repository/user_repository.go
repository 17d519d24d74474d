package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "contactbook/internal/errors"
	"contactbook/internal/model"
)

// UserRepository defines user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateRefreshToken(ctx context.Context, userID uint, token *string) error
	RotateRefreshToken(ctx context.Context, email, presented, next string) error
	ConfirmEmail(ctx context.Context, email string) error
	UpdateAvatar(ctx context.Context, email, url string) (*model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateRefreshToken overwrites the stored refresh token. Passing nil revokes
// the current session.
func (r *userRepository) UpdateRefreshToken(ctx context.Context, userID uint, token *string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("refresh_token", token).Error
}

// RotateRefreshToken compares the presented refresh token against the stored
// one and swaps in the next token, all under a row lock so two concurrent
// refresh attempts cannot both succeed. A mismatch clears the stored token
// (reuse after rotation is treated as compromise evidence) and fails with
// ErrInvalidRefreshToken. The mismatch is carried out of the transaction
// callback so the revoke commits; returning the error from inside would roll
// it back and leave the stored token live.
func (r *userRepository) RotateRefreshToken(ctx context.Context, email, presented, next string) error {
	reused := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("email = ?", email).First(&user).Error; err != nil {
			return err
		}
		if user.RefreshToken == nil || *user.RefreshToken != presented {
			reused = true
			return tx.Model(&user).Update("refresh_token", nil).Error
		}
		return tx.Model(&user).Update("refresh_token", next).Error
	})
	if err != nil {
		return err
	}
	if reused {
		return apperrors.ErrInvalidRefreshToken
	}
	return nil
}

// ConfirmEmail flips the confirmed flag. The transition is one-way; nothing
// ever sets it back to false.
func (r *userRepository) ConfirmEmail(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("email = ?", email).
		Update("confirmed", true).Error
}

func (r *userRepository) UpdateAvatar(ctx context.Context, email, url string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&user).Update("avatar", url).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
