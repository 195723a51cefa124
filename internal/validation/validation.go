package validation

import (
	"regexp"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@gmail\.com$`)
	phoneRe = regexp.MustCompile(`^\d{10}$`)
)

// IsValidEmail reports whether s is an address on the only accepted domain (gmail.com).
func IsValidEmail(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

// IsValidPhone reports whether s consists of exactly ten digits.
func IsValidPhone(s string) bool {
	return phoneRe.MatchString(strings.TrimSpace(s))
}
