// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package validation checks request input and reports one stable code per field.
package validation

import (
	"context"
	"errors"

	"codeberg.org/oliverandrich/go-accounts/internal/services/auth"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	UsernameMinLength = 4
	UsernameMaxLength = 32
	PasswordMinLength = 6
)

// EmailLookup reports whether an account with the given email exists.
type EmailLookup func(ctx context.Context, email string) (bool, error)

// Registration is the input of the register endpoint.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordReset is the input of the password update endpoint.
type PasswordReset struct {
	Password           string `json:"password"`
	PasswordResetToken string `json:"passwordResetToken"`
}

// UserUpdate is the input of the user update endpoint.
type UserUpdate struct {
	Username string `json:"username"`
}

// PasswordRequest is the input of the password reset request endpoint.
type PasswordRequest struct {
	Email string `json:"email"`
}

func usernameRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("username_null"),
		validation.RuneLength(UsernameMinLength, UsernameMaxLength).Error("username_size"),
	}
}

func emailRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("email_null"),
		is.Email.Error("email_valid"),
	}
}

func passwordRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("password_null"),
		validation.RuneLength(PasswordMinLength, 0).Error("password_size"),
	}
}

// Validate checks a registration. The uniqueness of the email is only
// checked once its format is valid.
func (r Registration) Validate(ctx context.Context, emailExists EmailLookup) error {
	email := append(emailRules(), validation.By(func(value interface{}) error {
		exists, err := emailExists(ctx, value.(string))
		if err != nil {
			return validation.NewInternalError(err)
		}
		if exists {
			return errors.New("email_in_use")
		}
		return nil
	}))

	return convert(validation.ValidateStruct(&r,
		validation.Field(&r.Username, usernameRules()...),
		validation.Field(&r.Email, email...),
		validation.Field(&r.Password, passwordRules()...),
	))
}

// Validate checks the new password. The reset token is checked by the
// account service before this runs.
func (r PasswordReset) Validate() error {
	return convert(validation.ValidateStruct(&r,
		validation.Field(&r.Password, passwordRules()...),
	))
}

// Validate checks a username change.
func (r UserUpdate) Validate() error {
	return convert(validation.ValidateStruct(&r,
		validation.Field(&r.Username, usernameRules()...),
	))
}

// Validate checks the email of a reset request.
func (r PasswordRequest) Validate() error {
	return convert(validation.ValidateStruct(&r,
		validation.Field(&r.Email, emailRules()...),
	))
}

// convert turns ozzo field errors into an auth.ValidationError. Internal
// errors are passed through.
func convert(err error) error {
	if err == nil {
		return nil
	}

	var internal validation.InternalError
	if errors.As(err, &internal) {
		return internal.InternalError()
	}

	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}

	fields := make(map[string]string, len(errs))
	for field, fieldErr := range errs {
		fields[field] = fieldErr.Error()
	}
	return &auth.ValidationError{Fields: fields}
}
