package merchant

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/dvloznov/spendscan/internal/rules"
)

func TestClean(t *testing.T) {
	n := Default()

	tests := []struct {
		name        string
		description string
		want        string
	}{
		{"domain suffix keeps label", "NETFLIX.COM", "Netflix"},
		{"square prefix", "SQ *BLUE BOTTLE COFFEE", "Blue Bottle Coffee"},
		{"square prefix without space", "SQ*BLUE BOTTLE COFFEE", "Blue Bottle Coffee"},
		{"paypal prefix without space", "PAYPAL*SPOTIFY", "Spotify"},
		{"paypal prefix", "PAYPAL *SPOTIFY", "Spotify"},
		{"doordash processor tag", "DD *DOORDASH BURGERKING", "DoorDash"},
		{"doordash processor tag without space", "DD*DOORDASH CHIPOTLE", "DoorDash"},
		{"toast prefix with space", "TST* JOES PIZZA", "Joes Pizza"},
		{"pos debit with store and location", "POS DEBIT SBUX #1234 SEATTLE WA", "Starbucks"},
		{"marketplace reference", "AMZN MKTP US*2K4L83 AMZN.COM/BILL WA", "Amazon"},
		{"zip state city", "HEB #123 AUSTIN TX 78701", "H-E-B"},
		{"purchase authorized", "PURCHASE AUTHORIZED ON 03/14 CHIPOTLE 1234 AUSTIN TX", "Chipotle"},
		{"toll free number", "SPOTIFY USA 1-877-778-1161", "Spotify"},
		{"card digits", "CHECKCARD 4821 WHOLE FOODS MARKET", "Whole Foods Market"},
		{"long reference", "ACH DEBIT CITY WATER DEPT S123456789012345", "City Water Dept"},
		{"admin words", "BLUE BOTTLE COFFEE LLC", "Blue Bottle Coffee"},
		{"stop words lower", "THE HOME DEPOT OF AMERICA", "The Home Depot of America"},
		{"duplicate words", "JOES JOES PIZZA", "Joes Pizza"},
		{"url", "HTTPS://EXAMPLE.ORG/PAY ACME GYM", "Acme Gym"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Clean(tt.description); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.description, got, tt.want)
			}
		})
	}
}

func TestClean_Truncates(t *testing.T) {
	n := Default()

	got := n.Clean("SUPERCALIFRAGILISTIC EXPIALIDOCIOUS EMPORIUM")
	if got != "Supercalifragilistic" {
		t.Errorf("Clean() = %q, want word-boundary truncation", got)
	}
	if utf8.RuneCountInString(got) > maxNameLen {
		t.Errorf("Clean() = %q exceeds %d characters", got, maxNameLen)
	}
}

func TestClean_NeverEmpty(t *testing.T) {
	n := Default()

	inputs := []string{"", "   ", "**", "#", "12345678", "POS DEBIT", "LLC INC", "A"}
	for _, in := range inputs {
		got := n.Clean(in)
		if got == "" {
			t.Errorf("Clean(%q) returned empty string", in)
		}
		if utf8.RuneCountInString(got) > maxNameLen {
			t.Errorf("Clean(%q) = %q exceeds %d characters", in, got, maxNameLen)
		}
	}

	if got := n.Clean("   "); got != "Unknown" {
		t.Errorf("Clean(blank) = %q, want Unknown", got)
	}
}

func TestClean_FallbackToDescription(t *testing.T) {
	n := Default()

	long := "12345678 " + strings.Repeat("9", 40)
	got := n.Clean(long)
	if got != long[:maxNameLen] {
		t.Errorf("Clean(%q) = %q, want first %d characters", long, got, maxNameLen)
	}
}

func TestClean_Deterministic(t *testing.T) {
	n := Default()
	for _, in := range []string{"NETFLIX.COM", "SQ *BLUE BOTTLE COFFEE", ""} {
		if a, b := n.Clean(in), n.Clean(in); a != b {
			t.Errorf("Clean(%q) not deterministic: %q vs %q", in, a, b)
		}
	}
}

func TestNew_CustomAbbreviations(t *testing.T) {
	set := rules.Default()
	set.Abbreviations = []rules.Abbreviation{{Prefix: "wfm", Name: "Whole Foods"}}

	n, err := New(set)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got := n.Clean("WFM 10234 DALLAS TX"); got != "Whole Foods" {
		t.Errorf("Clean() = %q, want Whole Foods", got)
	}
}

func TestNew_BadPrefix(t *testing.T) {
	set := rules.Default()
	set.Prefixes = []string{"("}

	if _, err := New(set); err == nil {
		t.Error("expected error for invalid prefix pattern")
	}
}
