package sequence

import (
	"errors"
	"testing"
)

func TestFormatZeroPads(t *testing.T) {
	cases := []struct {
		value int
		want  string
	}{
		{1, "WC-2025-0001"},
		{7, "WC-2025-0007"},
		{42, "WC-2025-0042"},
		{999, "WC-2025-0999"},
		{9999, "WC-2025-9999"},
	}
	for _, tc := range cases {
		if got := Format("2025", tc.value); got != tc.want {
			t.Errorf("Format(2025, %d) = %s, want %s", tc.value, got, tc.want)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	number := Format("2031", 583)
	parsed, err := Parse(number)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", number, err)
	}
	if parsed.Prefix != "WC" {
		t.Errorf("prefix = %s, want WC", parsed.Prefix)
	}
	if parsed.Partition != "2031" {
		t.Errorf("partition = %s, want 2031", parsed.Partition)
	}
	if parsed.Value != 583 {
		t.Errorf("value = %d, want 583", parsed.Value)
	}
}

func TestParseRejectsMalformedInput(t *testing.T) {
	bad := []string{
		"",
		"WC-2025-001",    // 3-digit sequence
		"WC-2025-00013",  // 5-digit sequence
		"WC-202-0001",    // 3-digit partition
		"WC-20250-0001",  // 5-digit partition
		"XX-2025-0001",   // wrong prefix
		"wc-2025-0001",   // lowercase prefix
		"WC_2025_0001",   // wrong separators
		"WC-2025-00A1",   // non-numeric sequence
		"WC-20X5-0001",   // non-numeric partition
		"WC-2025-0001 ",  // trailing junk
		" WC-2025-0001",  // leading junk
		"WC-2025--0001",  // extra dash
		"WC20250001",     // no dashes
	}
	for _, s := range bad {
		if ValidFormat(s) {
			t.Errorf("ValidFormat(%q) = true, want false", s)
		}
		if _, err := Parse(s); !errors.Is(err, ErrMalformedNumber) {
			t.Errorf("Parse(%q) err = %v, want ErrMalformedNumber", s, err)
		}
	}
}

func TestValidFormatAcceptsContract(t *testing.T) {
	good := []string{"WC-2025-0001", "WC-0000-0000", "WC-9999-9999"}
	for _, s := range good {
		if !ValidFormat(s) {
			t.Errorf("ValidFormat(%q) = false, want true", s)
		}
	}
}
