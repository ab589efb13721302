// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package validation_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"codeberg.org/oliverandrich/go-accounts/internal/services/auth"
	"codeberg.org/oliverandrich/go-accounts/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEmails(context.Context, string) (bool, error) { return false, nil }

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *auth.ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}

func validRegistration() validation.Registration {
	return validation.Registration{
		Username: "user1",
		Email:    "user1@mail.com",
		Password: "P4ssword",
	}
}

func TestRegistration_Valid(t *testing.T) {
	err := validRegistration().Validate(context.Background(), noEmails)

	assert.NoError(t, err)
}

func TestRegistration_FieldCodes(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		value    string
		expected string
	}{
		{"username null", "username", "", "username_null"},
		{"username too short", "username", "usr", "username_size"},
		{"username too long", "username", strings.Repeat("a", 33), "username_size"},
		{"email null", "email", "", "email_null"},
		{"email without domain", "email", "mail.com", "email_valid"},
		{"email without at", "email", "user.mail.com", "email_valid"},
		{"password null", "password", "", "password_null"},
		{"password too short", "password", "P4ssw", "password_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validRegistration()
			switch tt.field {
			case "username":
				in.Username = tt.value
			case "email":
				in.Email = tt.value
			case "password":
				in.Password = tt.value
			}

			fields := fieldErrors(t, in.Validate(context.Background(), noEmails))

			assert.Len(t, fields, 1)
			assert.Equal(t, tt.expected, fields[tt.field])
		})
	}
}

func TestRegistration_UsernameBoundaries(t *testing.T) {
	for _, username := range []string{"abcd", strings.Repeat("a", 32), "äöüß"} {
		in := validRegistration()
		in.Username = username

		assert.NoError(t, in.Validate(context.Background(), noEmails), username)
	}
}

func TestRegistration_PasswordAnyCharacters(t *testing.T) {
	for _, password := range []string{"password", "ALLUPPERCASE", "123456", "äöüßäö"} {
		in := validRegistration()
		in.Password = password

		assert.NoError(t, in.Validate(context.Background(), noEmails), password)
	}
}

func TestRegistration_AllFieldsInvalid(t *testing.T) {
	fields := fieldErrors(t, validation.Registration{}.Validate(context.Background(), noEmails))

	assert.Equal(t, map[string]string{
		"username": "username_null",
		"email":    "email_null",
		"password": "password_null",
	}, fields)
}

func TestRegistration_EmailInUse(t *testing.T) {
	taken := func(_ context.Context, email string) (bool, error) {
		return email == "user1@mail.com", nil
	}

	fields := fieldErrors(t, validRegistration().Validate(context.Background(), taken))

	assert.Equal(t, "email_in_use", fields["email"])
}

func TestRegistration_EmailLookupSkippedForInvalidFormat(t *testing.T) {
	called := false
	lookup := func(context.Context, string) (bool, error) {
		called = true
		return false, nil
	}
	in := validRegistration()
	in.Email = "not-an-email"

	_ = in.Validate(context.Background(), lookup)

	assert.False(t, called)
}

func TestRegistration_EmailLookupError(t *testing.T) {
	boom := errors.New("database is gone")
	lookup := func(context.Context, string) (bool, error) { return false, boom }

	err := validRegistration().Validate(context.Background(), lookup)

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var verr *auth.ValidationError
	assert.False(t, errors.As(err, &verr))
}

func TestRegistration_IsValidationFailed(t *testing.T) {
	err := validation.Registration{}.Validate(context.Background(), noEmails)

	assert.ErrorIs(t, err, auth.ErrValidationFailed)
	assert.Equal(t, auth.KindValidationFailed, auth.KindOf(err))
}

func TestPasswordReset(t *testing.T) {
	assert.NoError(t, validation.PasswordReset{Password: "N3wP4ss"}.Validate())

	fields := fieldErrors(t, validation.PasswordReset{Password: "weak"}.Validate())
	assert.Equal(t, "password_size", fields["password"])

	fields = fieldErrors(t, validation.PasswordReset{}.Validate())
	assert.Equal(t, "password_null", fields["password"])
}

func TestUserUpdate(t *testing.T) {
	assert.NoError(t, validation.UserUpdate{Username: "user1-updated"}.Validate())

	fields := fieldErrors(t, validation.UserUpdate{Username: "abc"}.Validate())
	assert.Equal(t, "username_size", fields["username"])
}

func TestPasswordRequest(t *testing.T) {
	assert.NoError(t, validation.PasswordRequest{Email: "user1@mail.com"}.Validate())

	fields := fieldErrors(t, validation.PasswordRequest{Email: "user1"}.Validate())
	assert.Equal(t, "email_valid", fields["email"])
}
