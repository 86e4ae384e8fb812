package phone

import (
	"regexp"
	"strings"
)

var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)

// Normalize trims surrounding whitespace from a raw phone number.
func Normalize(raw string) string {
	return strings.TrimSpace(raw)
}

// ValidE164 reports whether the phone number is in E.164 format.
func ValidE164(phone string) bool {
	return e164Pattern.MatchString(phone)
}

// Mask hides the middle digits of a phone number for logging
// (e.g. "+4915123456789" -> "+4**********89").
func Mask(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return phone[:2] + strings.Repeat("*", len(phone)-4) + phone[len(phone)-2:]
}
