package dedup

import (
	"testing"

	"leadscout/internal/lead"
	"leadscout/internal/rules"
)

func testRules(t *testing.T) *rules.Rules {
	t.Helper()
	r, err := rules.Default()
	if err != nil {
		t.Fatalf("load default rules: %v", err)
	}
	return r
}

func TestFingerprintStableAcrossCosmeticVariants(t *testing.T) {
	t.Parallel()

	r := testRules(t)

	a := lead.RawCandidate{
		Platform:  lead.PlatformFacebook,
		SourceURL: "https://www.facebook.com/LagosHotel",
		Title:     "Lagos Hotel Ltd",
	}
	b := lead.RawCandidate{
		Platform:  lead.PlatformFacebook,
		SourceURL: "HTTPS://WWW.FACEBOOK.COM/LagosHotel/?fbclid=IwAR123#reviews",
		Title:     "  lagos   HOTEL ltd  ",
	}

	fpA := Fingerprint(a, r)
	fpB := Fingerprint(b, r)
	if fpA != fpB {
		t.Fatalf("expected equal fingerprints, got %q and %q", fpA, fpB)
	}
	if fpA != "facebook|lagos hotel ltd|/lagoshotel" {
		t.Fatalf("unexpected fingerprint: %q", fpA)
	}
}

func TestFingerprintDiffersAcrossPlatforms(t *testing.T) {
	t.Parallel()

	r := testRules(t)

	fb := lead.RawCandidate{
		Platform:  lead.PlatformFacebook,
		SourceURL: "https://www.facebook.com/acme",
		Title:     "Acme Stores",
	}
	li := lead.RawCandidate{
		Platform:  lead.PlatformLinkedIn,
		SourceURL: "https://www.linkedin.com/company/acme",
		Title:     "Acme Stores",
	}

	if Fingerprint(fb, r) == Fingerprint(li, r) {
		t.Fatalf("expected platform to separate fingerprints")
	}
}

func TestFingerprintEmptyNameFallsBackToURL(t *testing.T) {
	t.Parallel()

	r := testRules(t)

	c := lead.RawCandidate{
		Platform:  lead.PlatformGoogle,
		SourceURL: "https://maps.google.com/place/XYZ123?ref=share",
		Title:     "   ",
	}

	got := Fingerprint(c, r)
	want := "google|https://maps.google.com/place/xyz123"
	if got != want {
		t.Fatalf("unexpected fallback fingerprint: got %q want %q", got, want)
	}
}

func TestNormalizeURLStripsTrackingParams(t *testing.T) {
	t.Parallel()

	r := testRules(t)

	canonical, path := NormalizeURL("https://Example.com:443/Shops/Acme/?utm_source=fb&utm_campaign=x&page=2", r)
	if path != "/shops/acme" {
		t.Fatalf("unexpected path: %q", path)
	}
	if canonical != "https://example.com/shops/acme?page=2" {
		t.Fatalf("unexpected canonical url: %q", canonical)
	}
}

func TestNormalizeURLUnparseable(t *testing.T) {
	t.Parallel()

	r := testRules(t)

	canonical, path := NormalizeURL("not a url", r)
	if canonical != "" || path != "" {
		t.Fatalf("expected empty results, got %q and %q", canonical, path)
	}
}

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"Lagos Hotel Ltd", "lagos hotel ltd"},
		{"  lagos \t hotel\n ltd ", "lagos hotel ltd"},
		{"", ""},
		{"\t \n", ""},
	}
	for _, tc := range cases {
		if got := NormalizeName(tc.in); got != tc.want {
			t.Fatalf("NormalizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidURL(t *testing.T) {
	t.Parallel()

	if !ValidURL("https://www.facebook.com/acme") {
		t.Fatalf("expected absolute url to be valid")
	}
	if ValidURL("") {
		t.Fatalf("expected empty url to be invalid")
	}
	if ValidURL("/relative/path") {
		t.Fatalf("expected relative url to be invalid")
	}
	if ValidURL("not a url") {
		t.Fatalf("expected garbage to be invalid")
	}
}
