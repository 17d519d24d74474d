package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperrors "contactbook/internal/errors"
	"contactbook/internal/model"
)

// openTestDB gives each test its own in-memory database. The pool is capped
// at one connection because every connection to ":memory:" would otherwise
// see a different database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Contact{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string, refreshToken *string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     "tester",
		Email:        email,
		PasswordHash: "irrelevant",
		Confirmed:    true,
		RefreshToken: refreshToken,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func strPtr(s string) *string { return &s }

func TestUserRepository_RotateRefreshToken(t *testing.T) {
	ctx := context.Background()

	t.Run("matching token is swapped for the next one", func(t *testing.T) {
		db := openTestDB(t)
		repo := NewUserRepository(db)
		seedUser(t, db, "rotate@example.com", strPtr("current"))

		err := repo.RotateRefreshToken(ctx, "rotate@example.com", "current", "next")
		assert.NoError(t, err)

		var stored model.User
		require.NoError(t, db.Where("email = ?", "rotate@example.com").First(&stored).Error)
		require.NotNil(t, stored.RefreshToken)
		assert.Equal(t, "next", *stored.RefreshToken)
	})

	t.Run("stale token revokes the stored one", func(t *testing.T) {
		db := openTestDB(t)
		repo := NewUserRepository(db)
		seedUser(t, db, "reuse@example.com", strPtr("current"))

		err := repo.RotateRefreshToken(ctx, "reuse@example.com", "stolen-or-stale", "next")
		assert.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)

		// The revoke must land even though the rotation failed; the session
		// holding the once-valid token is forced back through login.
		var stored model.User
		require.NoError(t, db.Where("email = ?", "reuse@example.com").First(&stored).Error)
		assert.Nil(t, stored.RefreshToken)
	})

	t.Run("no stored token counts as a mismatch", func(t *testing.T) {
		db := openTestDB(t)
		repo := NewUserRepository(db)
		seedUser(t, db, "empty@example.com", nil)

		err := repo.RotateRefreshToken(ctx, "empty@example.com", "anything", "next")
		assert.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
	})

	t.Run("unknown user", func(t *testing.T) {
		db := openTestDB(t)
		repo := NewUserRepository(db)

		err := repo.RotateRefreshToken(ctx, "ghost@example.com", "tok", "next")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewUserRepository(db)
	seedUser(t, db, "taken@example.com", nil)

	err := repo.Create(ctx, &model.User{
		Username:     "second",
		Email:        "taken@example.com",
		PasswordHash: "irrelevant",
	})
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))
}
