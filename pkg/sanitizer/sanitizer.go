// Package sanitizer normalizes client contact data before validation and
// storage. All functions are idempotent and handle invalid input by returning
// the empty string rather than an error.
package sanitizer

import (
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

// Regions tried when parsing a phone number without a country prefix. Spain
// first (the rental operation is based there), then the most common visitor
// countries.
var supportedRegions = []string{
	"ES",
	"GB",
	"DE",
	"FR",
	"US",
}

// TrimAndNormalize trims the string and collapses internal whitespace runs to
// a single space. Case is preserved: client names are stored as entered.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// SanitizeName normalizes a client or staff display name.
func SanitizeName(name string) string {
	return TrimAndNormalize(name)
}

// SanitizeEmail lowercases and trims an email address.
func SanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SanitizePhone converts a phone number to E.164. Numbers that cannot be
// parsed against any supported region come back empty so validation can
// reject them with a specific message.
func SanitizePhone(phone string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}

	for _, region := range supportedRegions {
		parsed, err := phonenumbers.Parse(phone, region)
		if err != nil {
			continue
		}
		if phonenumbers.IsValidNumber(parsed) {
			return phonenumbers.Format(parsed, phonenumbers.E164)
		}
	}
	return ""
}
