package signal

import (
	"testing"
)

func TestMatchPhonesDialCodeNormalizesToTrunkForm(t *testing.T) {
	t.Parallel()

	r := testRules(t)
	phones, countryMatch := matchPhones("call us on +234 801 234 5678 today", "", r)
	if len(phones) != 1 {
		t.Fatalf("expected one phone, got %v", phones)
	}
	if phones[0] != "08012345678" {
		t.Fatalf("unexpected normalized phone: %q", phones[0])
	}
	if !countryMatch {
		t.Fatalf("expected country dial code marker")
	}
}

func TestMatchPhonesTrunkFormWithoutCountryMarker(t *testing.T) {
	t.Parallel()

	r := testRules(t)
	phones, countryMatch := matchPhones("whatsapp 0801-234-5678", "", r)
	if len(phones) != 1 || phones[0] != "08012345678" {
		t.Fatalf("unexpected phones: %v", phones)
	}
	if countryMatch {
		t.Fatalf("trunk-only number must not set the country marker")
	}
}

func TestMatchPhonesDedupsEquivalentForms(t *testing.T) {
	t.Parallel()

	r := testRules(t)
	text := "call +2348012345678 or 0801 234 5678"
	phones, countryMatch := matchPhones(text, "", r)
	if len(phones) != 1 {
		t.Fatalf("expected the two spellings to collapse, got %v", phones)
	}
	if !countryMatch {
		t.Fatalf("expected country marker from the dial-code spelling")
	}
}

func TestMatchPhonesUsesStructuredHint(t *testing.T) {
	t.Parallel()

	r := testRules(t)
	phones, _ := matchPhones("no numbers in the text", "+234 802 000 1122", r)
	if len(phones) != 1 || phones[0] != "08020001122" {
		t.Fatalf("unexpected phones: %v", phones)
	}
}

func TestMatchPhonesRejectsShortAndForeignNumbers(t *testing.T) {
	t.Parallel()

	r := testRules(t)

	cases := []string{
		"order #123456 shipped",
		"call 12345",
		"+1 415 555 0100",
		"0801",
	}
	for _, text := range cases {
		if phones, _ := matchPhones(text, "", r); len(phones) != 0 {
			t.Fatalf("expected no phones in %q, got %v", text, phones)
		}
	}
}

func TestNormalizePhoneDigitBounds(t *testing.T) {
	t.Parallel()

	r := testRules(t)

	if _, _, ok := normalizePhone("0801234567", r); ok {
		t.Fatalf("expected 10-digit number to be rejected")
	}
	if normalized, _, ok := normalizePhone("08012345678", r); !ok || normalized != "08012345678" {
		t.Fatalf("expected 11-digit number to pass, got %q ok=%t", normalized, ok)
	}
	if _, _, ok := normalizePhone("080123456789012345", r); ok {
		t.Fatalf("expected over-long number to be rejected")
	}
}
