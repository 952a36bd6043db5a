package handlers

import "regexp"

var (
	emailRe    = regexp.MustCompile(`(?i)^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nonDigitRe = regexp.MustCompile(`\D`)
)

// validPhone wants at least 7 digits once separators are stripped.
func validPhone(phone string) bool {
	return len(nonDigitRe.ReplaceAllString(phone, "")) >= 7
}
