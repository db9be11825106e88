package form

import (
	"errors"
	"strings"

	"user-console/internal/domain"
)

type createInput struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,emailshape"`
	Password string `validate:"required"`
}

type editInput struct {
	Name  string `validate:"required"`
	Email string `validate:"required,emailshape"`
}

// CreateForm holds the state of the new-user form.
type CreateForm struct {
	Name     string
	Email    string
	Password string
	Errors   FieldErrors

	msgs Messages
}

func NewCreateForm(msgs Messages) *CreateForm {
	return &CreateForm{Errors: FieldErrors{}, msgs: msgs}
}

// Validate refreshes Errors and reports whether the form may be submitted.
func (f *CreateForm) Validate() bool {
	f.Errors = check(createInput{
		Name:     strings.TrimSpace(f.Name),
		Email:    strings.TrimSpace(f.Email),
		Password: f.Password,
	}, f.msgs)
	return len(f.Errors) == 0
}

// Submit validates and hands the data to fn. The form is reset only when fn succeeds.
// An email conflict from fn is attached to the email field.
func (f *CreateForm) Submit(fn func(domain.NewUser) error) error {
	if !f.Validate() {
		return ErrInvalid
	}
	err := fn(domain.NewUser{
		Name:     strings.TrimSpace(f.Name),
		Email:    strings.TrimSpace(f.Email),
		Password: f.Password,
	})
	if err != nil {
		attachConflict(f.Errors, err, f.msgs)
		return err
	}
	f.Reset()
	return nil
}

// Reset clears every field and error.
func (f *CreateForm) Reset() {
	f.Name = ""
	f.Email = ""
	f.Password = ""
	f.Errors = FieldErrors{}
}

// EditForm holds the state of the edit-user form. Password is optional.
type EditForm struct {
	Name     string
	Email    string
	Password string
	IsActive bool
	Errors   FieldErrors

	msgs Messages
}

func NewEditForm(user domain.User, msgs Messages) *EditForm {
	return &EditForm{
		Name:     user.Name,
		Email:    user.Email,
		IsActive: user.IsActive,
		Errors:   FieldErrors{},
		msgs:     msgs,
	}
}

func (f *EditForm) Validate() bool {
	f.Errors = check(editInput{
		Name:  strings.TrimSpace(f.Name),
		Email: strings.TrimSpace(f.Email),
	}, f.msgs)
	return len(f.Errors) == 0
}

// Patch builds the update payload; the password is included only when typed.
func (f *EditForm) Patch() domain.UserPatch {
	name := strings.TrimSpace(f.Name)
	email := strings.TrimSpace(f.Email)
	active := f.IsActive
	patch := domain.UserPatch{
		Name:     &name,
		Email:    &email,
		IsActive: &active,
	}
	if f.Password != "" {
		password := f.Password
		patch.Password = &password
	}
	return patch
}

// Submit validates and hands the patch to fn. Fields are kept after submission.
func (f *EditForm) Submit(fn func(domain.UserPatch) error) error {
	if !f.Validate() {
		return ErrInvalid
	}
	if err := fn(f.Patch()); err != nil {
		attachConflict(f.Errors, err, f.msgs)
		return err
	}
	f.Password = ""
	return nil
}

func attachConflict(errs FieldErrors, err error, msgs Messages) {
	if errors.Is(err, domain.ErrEmailRegistered) {
		errs[FieldEmail] = msgs.EmailTaken
	}
}
