package service

import (
	"context"
	"fmt"
	"io"

	"contactbook/internal/model"
	"contactbook/internal/repository"
	"contactbook/internal/storage"
)

// UserService exposes profile operations for the authenticated user.
type UserService interface {
	UpdateAvatar(ctx context.Context, user *model.User, file io.Reader) (*model.User, error)
}

type userService struct {
	users    repository.UserRepository
	uploader storage.Uploader
}

// NewUserService builds a UserService with repository and uploader.
func NewUserService(users repository.UserRepository, uploader storage.Uploader) UserService {
	return &userService{users: users, uploader: uploader}
}

// UpdateAvatar hands the image to the external host and stores the returned
// public URL on the user.
func (s *userService) UpdateAvatar(ctx context.Context, user *model.User, file io.Reader) (*model.User, error) {
	url, err := s.uploader.Upload(ctx, file, "ContactsApp/"+user.Username)
	if err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}
	updated, err := s.users.UpdateAvatar(ctx, user.Email, url)
	if err != nil {
		return nil, fmt.Errorf("store avatar url: %w", err)
	}
	return updated, nil
}
