package security

import (
	"unicode"

	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
)

const (
	MinPasswordLength   = 8
	MinPasswordStrength = 3
)

// PasswordStrength scores a password from 0 to 4, one point each for length,
// an uppercase letter, a digit, and a symbol.
func PasswordStrength(password string) int {
	var upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsLetter(r):
			symbol = true
		}
	}
	score := 0
	for _, ok := range []bool{len([]rune(password)) >= MinPasswordLength, upper, digit, symbol} {
		if ok {
			score++
		}
	}
	return score
}

// CheckPassword enforces the account password policy. When confirm is non-nil
// it must match password.
func CheckPassword(password string, confirm *string) error {
	if len([]rune(password)) < MinPasswordLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "Password must be at least 8 characters")
	}
	if PasswordStrength(password) < MinPasswordStrength {
		return pkgerrors.New(pkgerrors.CodeValidation, "Password too weak; include uppercase, numbers & symbols")
	}
	if confirm != nil && *confirm != password {
		return pkgerrors.New(pkgerrors.CodeValidation, "Passwords do not match")
	}
	return nil
}
