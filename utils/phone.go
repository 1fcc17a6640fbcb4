// utils/phone.go
package utils

import "strings"

// SanitizePhone strips every non-digit character from a contact string.
// Returns false when fewer than 10 digits remain: too short for a
// WhatsApp deep link.
func SanitizePhone(contact string) (string, bool) {
	var b strings.Builder
	for _, r := range contact {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	return digits, len(digits) >= 10
}
