package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	emailRegexp = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	symbols     = `!@#$%^&*(),.?":{}|<>`
)

// Password rule descriptions, in the order they are reported.
const (
	RuleLength    = "at least 8 characters"
	RuleUppercase = "1 uppercase letter"
	RuleNumber    = "1 number"
	RuleSpecial   = "1 special character (!@#$%^&*)"
)

// MinPasswordLength is the shortest password accepted.
const MinPasswordLength = 8

// Phone numbers must have between these many digits, once formatting is stripped.
const (
	MinPhoneDigits = 10
	MaxPhoneDigits = 15
)

// ValidateEmail validates for format of an email.
func ValidateEmail(email string) bool {
	return emailRegexp.MatchString(email)
}

// CheckPassword returns the rules the password fails, empty if it is acceptable.
func CheckPassword(password string) []string {
	var (
		upper, number, special bool
		failed                 []string
	)
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			number = true
		case strings.ContainsRune(symbols, r):
			special = true
		}
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		failed = append(failed, RuleLength)
	}
	if !upper {
		failed = append(failed, RuleUppercase)
	}
	if !number {
		failed = append(failed, RuleNumber)
	}
	if !special {
		failed = append(failed, RuleSpecial)
	}
	return failed
}

// PhoneDigits strips everything but ASCII digits from phone.
func PhoneDigits(phone string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
}

// ValidatePhone reports whether phone has an acceptable number of digits.
func ValidatePhone(phone string) bool {
	n := len(PhoneDigits(phone))
	return n >= MinPhoneDigits && n <= MaxPhoneDigits
}
