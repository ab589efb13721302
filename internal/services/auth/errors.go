// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"errors"
	"fmt"
)

// Kind classifies account errors. The HTTP layer maps each kind to a status.
type Kind int

const (
	KindInternal Kind = iota
	KindValidationFailed
	KindAuthenticationFailed
	KindAccountInactive
	KindInvalidToken
	KindForbidden
	KindNotFound
	KindEmailDeliveryFailed
)

func (k Kind) String() string {
	switch k {
	case KindValidationFailed:
		return "validation_failed"
	case KindAuthenticationFailed:
		return "authentication_failed"
	case KindAccountInactive:
		return "account_inactive"
	case KindInvalidToken:
		return "invalid_token"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindEmailDeliveryFailed:
		return "email_delivery_failed"
	default:
		return "internal"
	}
}

// Error is an account error with a stable code for localization.
type Error struct {
	Kind Kind
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors of the same kind and code regardless of the cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

var (
	ErrAuthenticationFailed = &Error{Kind: KindAuthenticationFailed, Code: "authentication_failure"}
	ErrAccountInactive      = &Error{Kind: KindAccountInactive, Code: "inactive_authentication_failure"}
	ErrActivationFailed     = &Error{Kind: KindInvalidToken, Code: "account_activation_failure"}
	ErrUnauthorizedReset    = &Error{Kind: KindForbidden, Code: "unauthorized_password_reset"}
	ErrUnauthorizedUpdate   = &Error{Kind: KindForbidden, Code: "unauthorized_user_update"}
	ErrUnauthorizedDelete   = &Error{Kind: KindForbidden, Code: "unauthorized_user_delete"}
	ErrUserNotFound         = &Error{Kind: KindNotFound, Code: "user_not_found"}
	ErrEmailNotFound        = &Error{Kind: KindNotFound, Code: "email_not_in_use"}
	ErrEmailDeliveryFailed  = &Error{Kind: KindEmailDeliveryFailed, Code: "email_failure"}
	ErrValidationFailed     = &Error{Kind: KindValidationFailed, Code: "validation_failure"}
)

// emailDeliveryFailed wraps the mailer error so it stays visible in logs.
func emailDeliveryFailed(cause error) error {
	return &Error{Kind: KindEmailDeliveryFailed, Code: ErrEmailDeliveryFailed.Code, Err: cause}
}

// ValidationError carries one error code per invalid field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation_failure: %d field(s)", len(e.Fields))
}

// Is lets errors.Is(err, ErrValidationFailed) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t == ErrValidationFailed
}

// KindOf returns the kind of err, or KindInternal if it is not an account error.
func KindOf(err error) Kind {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return KindValidationFailed
	}
	var aerr *Error
	if errors.As(err, &aerr) {
		return aerr.Kind
	}
	return KindInternal
}
