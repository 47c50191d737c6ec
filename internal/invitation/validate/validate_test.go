package validate

import "testing"

var gmailOnly = []string{"gmail.com", "googlemail.com"}

func TestEmailAccepted(t *testing.T) {
	got, err := Email("Marie.Rakoto@Gmail.com", gmailOnly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "marie.rakoto@gmail.com" {
		t.Fatalf("expected normalized email, got %q", got)
	}
}

func TestEmailDomainRejected(t *testing.T) {
	if _, err := Email("marie.rakoto@yahoo.com", gmailOnly); err != ErrEmailDomain {
		t.Fatalf("expected ErrEmailDomain, got %v", err)
	}
}

func TestEmailAnyDomainWhenAllowlistEmpty(t *testing.T) {
	if _, err := Email("marie.rakoto@yahoo.com", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEmailSuspiciousLocalParts(t *testing.T) {
	cases := []string{
		"test123@gmail.com",
		"fakeuser@gmail.com",
		"ab@gmail.com",
		"aaabcdef@gmail.com",
		"a1234@gmail.com",
		"12345678@gmail.com",
		"noreply@gmail.com",
	}
	for _, email := range cases {
		if _, err := Email(email, gmailOnly); err != ErrEmailSuspicious {
			t.Fatalf("expected ErrEmailSuspicious for %q, got %v", email, err)
		}
	}
}

func TestEmailMalformed(t *testing.T) {
	for _, email := range []string{"", "not-an-email", "missing@", "@gmail.com"} {
		if _, err := Email(email, gmailOnly); err == nil {
			t.Fatalf("expected error for %q", email)
		}
	}
}

func TestPhoneInternational(t *testing.T) {
	got, err := Phone("+261 32 12 345 67")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "+261321234567" {
		t.Fatalf("expected +261321234567, got %q", got)
	}
}

func TestPhoneDoubleZeroPrefix(t *testing.T) {
	got, err := Phone("0033612345678")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "+33612345678" {
		t.Fatalf("expected +33612345678, got %q", got)
	}
}

func TestPhoneMadagascarNational(t *testing.T) {
	got, err := Phone("0321234567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "+261321234567" {
		t.Fatalf("expected +261321234567, got %q", got)
	}
}

func TestPhoneFrenchMobile(t *testing.T) {
	got, err := Phone("0612345678")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "+33612345678" {
		t.Fatalf("expected +33612345678, got %q", got)
	}
}

func TestPhoneUnrecognizedNationalFormat(t *testing.T) {
	if _, err := Phone("0512345678"); err != ErrPhoneFormat {
		t.Fatalf("expected ErrPhoneFormat, got %v", err)
	}
}

func TestPhoneTooShort(t *testing.T) {
	if _, err := Phone("+123"); err != ErrPhoneFormat {
		t.Fatalf("expected ErrPhoneFormat, got %v", err)
	}
}
