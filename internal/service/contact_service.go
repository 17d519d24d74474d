package service

import (
	"context"
	"fmt"
	"time"

	apperrors "contactbook/internal/errors"
	"contactbook/internal/model"
	"contactbook/internal/repository"
)

const birthdayWindowDays = 7

// ContactService exposes the contact operations, all scoped to the
// authenticated user. A contact the user does not own is indistinguishable
// from one that does not exist.
type ContactService interface {
	Create(ctx context.Context, user *model.User, contact *model.Contact) (*model.Contact, error)
	Get(ctx context.Context, user *model.User, id uint) (*model.Contact, error)
	Search(ctx context.Context, user *model.User, filter repository.ContactFilter) ([]model.Contact, error)
	Update(ctx context.Context, user *model.User, id uint, patch repository.ContactPatch) (*model.Contact, error)
	Delete(ctx context.Context, user *model.User, id uint) error
	UpcomingBirthdays(ctx context.Context, user *model.User) ([]model.Contact, error)
}

type contactService struct {
	contacts repository.ContactRepository
	now      func() time.Time
}

// NewContactService builds a ContactService over the repository.
func NewContactService(contacts repository.ContactRepository) ContactService {
	return &contactService{contacts: contacts, now: time.Now}
}

func (s *contactService) Create(ctx context.Context, user *model.User, contact *model.Contact) (*model.Contact, error) {
	if err := s.contacts.Create(ctx, contact, user); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return contact, nil
}

func (s *contactService) Get(ctx context.Context, user *model.User, id uint) (*model.Contact, error) {
	contact, err := s.contacts.FindByID(ctx, id, user.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.ErrContactNotFound
		}
		return nil, err
	}
	return contact, nil
}

func (s *contactService) Search(ctx context.Context, user *model.User, filter repository.ContactFilter) ([]model.Contact, error) {
	return s.contacts.Search(ctx, user.ID, filter)
}

func (s *contactService) Update(ctx context.Context, user *model.User, id uint, patch repository.ContactPatch) (*model.Contact, error) {
	contact, err := s.contacts.Update(ctx, id, user.ID, patch)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.ErrContactNotFound
		}
		return nil, err
	}
	return contact, nil
}

func (s *contactService) Delete(ctx context.Context, user *model.User, id uint) error {
	if err := s.contacts.Delete(ctx, id, user.ID); err != nil {
		if repository.IsNotFound(err) {
			return apperrors.ErrContactNotFound
		}
		return err
	}
	return nil
}

// UpcomingBirthdays returns contacts whose birthday falls in the next seven
// days, counting from today.
func (s *contactService) UpcomingBirthdays(ctx context.Context, user *model.User) ([]model.Contact, error) {
	start := s.now()
	end := start.AddDate(0, 0, birthdayWindowDays)
	return s.contacts.UpcomingBirthdays(ctx, user.ID, start, end)
}
