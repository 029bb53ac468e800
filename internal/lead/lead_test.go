package lead

import "testing"

func TestParsePlatform(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want Platform
	}{
		{"facebook", PlatformFacebook},
		{"FB", PlatformFacebook},
		{" LinkedIn ", PlatformLinkedIn},
		{"li", PlatformLinkedIn},
		{"google", PlatformGoogle},
		{"google_search", PlatformGoogle},
		{"google-derived", PlatformGoogle},
	}
	for _, tc := range cases {
		got, err := ParsePlatform(tc.in)
		if err != nil {
			t.Fatalf("ParsePlatform(%q) failed: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParsePlatform(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	if _, err := ParsePlatform("myspace"); err == nil {
		t.Fatalf("expected unknown platform to fail")
	}
	if _, err := ParsePlatform(""); err == nil {
		t.Fatalf("expected empty platform to fail")
	}
}

func TestPriorityForScore(t *testing.T) {
	t.Parallel()

	cases := []struct {
		score int
		want  Priority
	}{
		{100, PriorityHigh},
		{80, PriorityHigh},
		{79, PriorityMedium},
		{60, PriorityMedium},
		{59, PriorityLow},
		{0, PriorityLow},
	}
	for _, tc := range cases {
		if got := PriorityForScore(tc.score, 80, 60); got != tc.want {
			t.Fatalf("PriorityForScore(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}
