// Package identity canonicalizes the email key used to join roster, survey
// and calculator records.
package identity

import (
	"strings"
	"unicode"
)

// Normalize cleans a raw email for joining: trim, lowercase, drop
// non-printable runes. Blank cells and the literal "nan" the survey export
// writes for missing values map to the empty string, which means "no
// identity" and never matches anything downstream.
func Normalize(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" || email == "nan" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(email))
	for _, r := range email {
		if unicode.IsPrint(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
