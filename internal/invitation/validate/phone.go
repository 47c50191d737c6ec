package validate

import (
	"errors"
	"strings"
)

var ErrPhoneFormat = errors.New("invalid_phone_format")

const minPhoneDigits = 8

// Phone normalizes a contact phone number to international form.
// Accepted inputs: already-international numbers (+ or 00 prefix),
// Madagascar national numbers (032/033/034/038) and French mobile
// numbers (06/07). Anything else is rejected.
func Phone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && b.Len() == 0 {
			b.WriteRune(r)
		}
	}
	clean := b.String()

	switch {
	case strings.HasPrefix(clean, "+"):
		if len(clean) < minPhoneDigits+1 {
			return "", ErrPhoneFormat
		}
		return clean, nil

	case strings.HasPrefix(clean, "00"):
		rest := clean[2:]
		if len(rest) < minPhoneDigits {
			return "", ErrPhoneFormat
		}
		return "+" + rest, nil

	case strings.HasPrefix(clean, "0"):
		if len(clean) != 10 {
			return "", ErrPhoneFormat
		}
		switch {
		case strings.HasPrefix(clean, "032"),
			strings.HasPrefix(clean, "033"),
			strings.HasPrefix(clean, "034"),
			strings.HasPrefix(clean, "038"):
			return "+261" + clean[1:], nil
		case strings.HasPrefix(clean, "06"), strings.HasPrefix(clean, "07"):
			return "+33" + clean[1:], nil
		default:
			return "", ErrPhoneFormat
		}

	default:
		if len(clean) < minPhoneDigits {
			return "", ErrPhoneFormat
		}
		return "+" + clean, nil
	}
}
