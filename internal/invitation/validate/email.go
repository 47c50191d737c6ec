// Package validate holds the contact-channel validation rules applied
// when an invitation is created.
package validate

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
)

var (
	ErrEmailFormat     = errors.New("invalid_email_format")
	ErrEmailDomain     = errors.New("email_domain_not_allowed")
	ErrEmailSuspicious = errors.New("email_suspicious")
)

// Local parts containing any of these substrings are rejected as
// throwaway or placeholder addresses.
var forbiddenLocalParts = []string{
	"test", "fake", "invalid", "example", "dummy", "sample",
	"nonexistent", "notreal", "fictif", "bidon", "inexistant",
	"faux", "temporaire", "temp", "throwaway", "spam", "trash",
	"delete", "remove", "admin", "root", "guest",
	"anonymous", "nobody", "null", "void", "empty", "blank",
	"random", "generic", "default", "placeholder", "mock",
	"trial", "demo", "prototype", "noreply", "donotreply",
	"no-reply", "bounce", "mailer",
}

var (
	letterDigitPattern = regexp.MustCompile(`^[a-z]\d+$`)
	digitsOnlyPattern  = regexp.MustCompile(`^\d+$`)
	anyLetterPattern   = regexp.MustCompile(`[a-zA-Z]`)
)

// Email validates an invitation contact email: syntactic form, domain
// allowlist, and a set of heuristics rejecting obviously disposable
// local parts. Returns the normalized (lowercased) address.
func Email(raw string, allowedDomains []string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", ErrEmailFormat
	}
	email := strings.ToLower(addr.Address)

	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", ErrEmailFormat
	}
	localPart, domain := email[:at], email[at+1:]

	if len(allowedDomains) > 0 {
		allowed := false
		for _, candidate := range allowedDomains {
			if domain == candidate {
				allowed = true
				break
			}
		}
		if !allowed {
			return "", ErrEmailDomain
		}
	}

	if !plausibleLocalPart(localPart) {
		return "", ErrEmailSuspicious
	}

	return email, nil
}

func plausibleLocalPart(localPart string) bool {
	if len(localPart) < 4 || len(localPart) > 30 {
		return false
	}
	for _, pattern := range forbiddenLocalParts {
		if strings.Contains(localPart, pattern) {
			return false
		}
	}
	if hasRepeatedRun(localPart) {
		return false
	}
	if letterDigitPattern.MatchString(localPart) {
		return false
	}
	if digitsOnlyPattern.MatchString(localPart) {
		return false
	}
	return anyLetterPattern.MatchString(localPart)
}

// hasRepeatedRun reports whether any character appears three or more
// times in a row. Go's RE2 engine has no backreferences, so the
// equivalent of `(.)\1\1` is computed by hand.
func hasRepeatedRun(s string) bool {
	for i := 0; i+2 < len(s); i++ {
		if s[i] == s[i+1] && s[i] == s[i+2] {
			return true
		}
	}
	return false
}
