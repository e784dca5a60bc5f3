// Package crypto hashes account passwords and enforces their strength.
package crypto

import (
	"errors"
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password IsStrong accepts.
const MinPasswordLength = 8

// PasswordTag is the validator tag checking IsStrong.
const PasswordTag = "password"

// ErrPasswordStrength describes the rule IsStrong enforces.
var ErrPasswordStrength = errors.New("password must be at least 8 characters long and contain an uppercase letter, a lowercase letter and a digit")

// ErrPasswordMismatch is returned by CheckPassword for a wrong password.
var ErrPasswordMismatch = errors.New("password does not match")

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares password with a hash from HashPassword.
func CheckPassword(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}

// IsStrong reports whether password has MinPasswordLength characters with at
// least one upper case letter, one lower case letter and one digit.
func IsStrong(password string) bool {
	var upper, lower, digit bool
	n := 0
	for _, r := range password {
		n++
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return n >= MinPasswordLength && upper && lower && digit
}

// RegisterPasswordValidator adds PasswordTag to v. Registering twice is fine.
func RegisterPasswordValidator(v *validator.Validate) error {
	return v.RegisterValidation(PasswordTag, func(fl validator.FieldLevel) bool {
		return IsStrong(fl.Field().String())
	})
}
