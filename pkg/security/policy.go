package security

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/angelmondragon/accounts-backend/pkg/config"
)

// Password policy failures reported by CheckPassword.
var (
	ErrPasswordTooShort = errors.New("password is too short")
	ErrPasswordMismatch = errors.New("password confirmation does not match")
	ErrPasswordNumeric  = errors.New("password cannot be entirely numeric")
	ErrPasswordUsername = errors.New("password is too similar to the username")
)

// CheckPassword applies the account password policy: minimum length, a
// matching confirmation, not all digits and not the username itself.
func CheckPassword(password, confirmation, username string, cfg config.PasswordConfig) error {
	minLen := cfg.MinLength
	if minLen <= 0 {
		minLen = 8
	}
	if utf8.RuneCountInString(password) < minLen {
		return ErrPasswordTooShort
	}
	if password != confirmation {
		return ErrPasswordMismatch
	}
	if strings.Trim(password, "0123456789") == "" {
		return ErrPasswordNumeric
	}
	if username != "" && strings.EqualFold(strings.TrimSpace(password), strings.TrimSpace(username)) {
		return ErrPasswordUsername
	}
	return nil
}
