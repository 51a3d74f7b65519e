// Package validation holds the field rules applied to account forms.
package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"time"
)

// UsernamePattern allows latin letters, digits, underscores and dots.
var UsernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

// PhonePattern is exactly ten digits.
var PhonePattern = regexp.MustCompile(`^[0-9]{10}$`)

const (
	MinUsernameLen = 7
	MaxUsernameLen = 15
	MinPasswordLen = 8
	MaxPasswordLen = 20
)

func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	if len(username) < MinUsernameLen || len(username) > MaxUsernameLen {
		return fmt.Errorf("username must be between %d and %d characters long", MinUsernameLen, MaxUsernameLen)
	}

	if !UsernamePattern.MatchString(username) {
		return fmt.Errorf("username can only contain letters, numbers, underscores and dots")
	}

	return nil
}

func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("invalid email address")
	}

	return nil
}

func ValidatePhoneNumber(phone string) error {
	if phone == "" {
		return fmt.Errorf("phone number cannot be empty")
	}
	if !PhonePattern.MatchString(phone) {
		return fmt.Errorf("phone number must be exactly 10 digits")
	}
	return nil
}

// ValidateDateOfBirth requires a date that is set and not after today.
func ValidateDateOfBirth(dob, today time.Time) error {
	if dob.IsZero() {
		return fmt.Errorf("date of birth cannot be empty")
	}
	if dob.After(today) {
		return fmt.Errorf("date of birth cannot be in the future")
	}
	return nil
}

func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if len(password) < MinPasswordLen || len(password) > MaxPasswordLen {
		return fmt.Errorf("password must be between %d and %d characters long", MinPasswordLen, MaxPasswordLen)
	}

	return nil
}

// ValidateConfirmation checks that the repeated password equals the first one.
func ValidateConfirmation(password, confirm string) error {
	if password != confirm {
		return fmt.Errorf("passwords must match")
	}
	return nil
}
