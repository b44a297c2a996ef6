package journalapi

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

const MinPasswordLength = 8

var (
	ErrInvalidEmail     = errors.New("Please enter a valid email address")     //nolint:staticcheck // Shown to users as is.
	ErrPasswordTooShort = errors.New("Password must be at least 8 characters") //nolint:staticcheck // Shown to users as is.
	ErrPasswordMismatch = errors.New("Passwords do not match")                 //nolint:staticcheck // Shown to users as is.

	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

func ValidateEmail(email string) error {
	if !emailRe.MatchString(strings.TrimSpace(email)) {
		return ErrInvalidEmail
	}

	return nil
}

func ValidateNewPassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	return nil
}

func ValidatePasswordConfirmation(password string, confirmation string) error {
	if password != confirmation {
		return ErrPasswordMismatch
	}

	return nil
}
