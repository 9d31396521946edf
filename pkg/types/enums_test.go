package types

import "testing"

func TestIsValidContextType(t *testing.T) {
	for _, ct := range ValidContextTypes {
		if !IsValidContextType(ct) {
			t.Errorf("expected %q to be valid", ct)
		}
	}
	if IsValidContextType(ContextType("invented")) {
		t.Error("expected invented type to be invalid")
	}
}

func TestCanonicalContextTypeExactMatch(t *testing.T) {
	if got := CanonicalContextType("architecture"); got != ContextArchitecture {
		t.Errorf("got %q, want architecture", got)
	}
}

func TestCanonicalContextTypeFuzzyFallback(t *testing.T) {
	cases := map[string]ContextType{
		"Fixed a nasty bug in the parser": ContextDebug,
		"decided to use postgres":         ContextDecision,
		"redesigned the module structure": ContextArchitecture,
		"total nonsense xyz":              ContextTechnical,
	}
	for raw, want := range cases {
		if got := CanonicalContextType(raw); got != want {
			t.Errorf("CanonicalContextType(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestIsValidStatusTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusActive, StatusPending, true},
		{StatusActive, StatusSuperseded, true},
		{StatusActive, StatusDeprecated, true},
		{StatusActive, StatusArchived, true},
		{StatusActive, StatusActive, false},
		{StatusPending, StatusActive, true},
		{StatusPending, StatusSuperseded, true},
		{StatusPending, StatusDeprecated, false},
		{StatusDeprecated, StatusArchived, true},
		{StatusDeprecated, StatusActive, false},
		{StatusSuperseded, StatusActive, false},
		{StatusArchived, StatusActive, false},
		{"", StatusActive, true},
		{"", StatusPending, false},
	}
	for _, c := range cases {
		if got := IsValidStatusTransition(c.from, c.to); got != c.want {
			t.Errorf("IsValidStatusTransition(%q, %q) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}
