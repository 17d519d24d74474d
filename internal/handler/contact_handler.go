package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"contactbook/internal/middleware"
	"contactbook/internal/model"
	"contactbook/internal/repository"
	"contactbook/internal/service"
)

const dateLayout = "2006-01-02"

// ContactHandler handles contact endpoints. Every route runs behind the
// access-token middleware, so the current user is always present.
type ContactHandler struct {
	contactService service.ContactService
}

// NewContactHandler creates a new contact handler.
func NewContactHandler(contactService service.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// ContactRequest represents a contact create or update payload. On update,
// absent fields leave the stored values untouched.
type ContactRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1"`
	Surname        *string `json:"surname"`
	Email          *string `json:"email" validate:"omitempty,email"`
	Phone          *string `json:"phone"`
	Birthday       *string `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
	AdditionalData *string `json:"additional_data"`
}

func (r *ContactRequest) birthday() *time.Time {
	if r.Birthday == nil {
		return nil
	}
	parsed, err := time.Parse(dateLayout, *r.Birthday)
	if err != nil {
		return nil
	}
	return &parsed
}

func (r *ContactRequest) patch() repository.ContactPatch {
	return repository.ContactPatch{
		Name:           r.Name,
		Surname:        r.Surname,
		Email:          r.Email,
		Phone:          r.Phone,
		Birthday:       r.birthday(),
		AdditionalData: r.AdditionalData,
	}
}

// List godoc
// @Summary Search contacts by exact field values
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Param name query string false "Name"
// @Param surname query string false "Surname"
// @Param email query string false "Email"
// @Param phone query string false "Phone"
// @Param birthday query string false "Birthday (YYYY-MM-DD)"
// @Success 200 {array} model.Contact
// @Failure 401 {object} errors.ErrorResponse
// @Router /contacts/ [get]
func (h *ContactHandler) List(c echo.Context) error {
	filter := repository.ContactFilter{
		Name:    queryParam(c, "name"),
		Surname: queryParam(c, "surname"),
		Email:   queryParam(c, "email"),
		Phone:   queryParam(c, "phone"),
	}
	if raw := queryParam(c, "birthday"); raw != nil {
		parsed, err := time.Parse(dateLayout, *raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid birthday, expected YYYY-MM-DD")
		}
		filter.Birthday = &parsed
	}

	contacts, err := h.contactService.Search(c.Request().Context(), middleware.UserFromContext(c), filter)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, contacts)
}

// Birthdays godoc
// @Summary List contacts with a birthday in the next 7 days
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Contact
// @Failure 401 {object} errors.ErrorResponse
// @Router /contacts/birthdays [get]
func (h *ContactHandler) Birthdays(c echo.Context) error {
	contacts, err := h.contactService.UpcomingBirthdays(c.Request().Context(), middleware.UserFromContext(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, contacts)
}

// Get godoc
// @Summary Get a contact by id
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Contact ID"
// @Success 200 {object} model.Contact
// @Failure 404 {object} errors.ErrorResponse
// @Router /contacts/{id} [get]
func (h *ContactHandler) Get(c echo.Context) error {
	id, err := contactID(c)
	if err != nil {
		return err
	}
	contact, err := h.contactService.Get(c.Request().Context(), middleware.UserFromContext(c), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, contact)
}

// Create godoc
// @Summary Create a contact
// @Tags contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ContactRequest true "Contact data"
// @Success 201 {object} model.Contact
// @Failure 400 {object} errors.ErrorResponse
// @Router /contacts/ [post]
func (h *ContactHandler) Create(c echo.Context) error {
	var req ContactRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Name == nil || req.Phone == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "name and phone are required")
	}

	contact := &model.Contact{
		Name:           *req.Name,
		Phone:          *req.Phone,
		Email:          req.Email,
		Birthday:       req.birthday(),
		AdditionalData: req.AdditionalData,
	}
	if req.Surname != nil {
		contact.Surname = *req.Surname
	}

	created, err := h.contactService.Create(c.Request().Context(), middleware.UserFromContext(c), contact)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

// Update godoc
// @Summary Update a contact, merging only the supplied fields
// @Tags contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Contact ID"
// @Param request body ContactRequest true "Fields to update"
// @Success 200 {object} model.Contact
// @Failure 404 {object} errors.ErrorResponse
// @Router /contacts/{id} [put]
func (h *ContactHandler) Update(c echo.Context) error {
	id, err := contactID(c)
	if err != nil {
		return err
	}
	var req ContactRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updated, err := h.contactService.Update(c.Request().Context(), middleware.UserFromContext(c), id, req.patch())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete godoc
// @Summary Delete a contact
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Contact ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /contacts/{id} [delete]
func (h *ContactHandler) Delete(c echo.Context) error {
	id, err := contactID(c)
	if err != nil {
		return err
	}
	if err := h.contactService.Delete(c.Request().Context(), middleware.UserFromContext(c), id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Contact deleted successfully"})
}

func contactID(c echo.Context) (uint, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

func queryParam(c echo.Context, name string) *string {
	if v := c.QueryParam(name); v != "" {
		return &v
	}
	return nil
}
