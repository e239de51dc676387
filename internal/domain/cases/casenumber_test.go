package cases

import (
	"testing"
	"time"
)

func TestFormatCaseNumber(t *testing.T) {
	got := FormatCaseNumber("JS", "TAL", time.January, 1)
	if got != "JS-TAL-JAN-0001" {
		t.Fatalf("got %s", got)
	}
	if got := FormatCaseNumber("JS", "TAL", time.December, 1234); got != "JS-TAL-DEC-1234" {
		t.Fatalf("got %s", got)
	}
}

func TestValidCaseNumber(t *testing.T) {
	valid := []string{"JS-TAL-JAN-0001", "AB-CDEFG-DEC-9999", "JS-TAL-MAY-0042"}
	for _, s := range valid {
		if !ValidCaseNumber(s) {
			t.Errorf("%s should be valid", s)
		}
	}
	invalid := []string{
		"js-tal-jan-0001",     // lowercase
		"JS-TAL-XXX-0001",     // bad month
		"JS-TAL-JAN-001",      // short serial
		"JS-TAL-JAN-00001",    // long serial
		"J-TAL-JAN-0001",      // org code too short
		"JS-TAL-JAN-0001-foo", // trailing junk
		"",
	}
	for _, s := range invalid {
		if ValidCaseNumber(s) {
			t.Errorf("%s should be invalid", s)
		}
	}
}

func TestParseCaseNumber(t *testing.T) {
	org, proj, month, serial, err := ParseCaseNumber("JS-TAL-MAR-0107")
	if err != nil {
		t.Fatal(err)
	}
	if org != "JS" || proj != "TAL" || month != time.March || serial != 107 {
		t.Fatalf("got %s %s %v %d", org, proj, month, serial)
	}
	if _, _, _, _, err := ParseCaseNumber("bogus"); err == nil {
		t.Fatal("expected error")
	}
}

func TestMonthAbbrevRoundTrip(t *testing.T) {
	for m := time.January; m <= time.December; m++ {
		n := FormatCaseNumber("JS", "TAL", m, 1)
		_, _, got, _, err := ParseCaseNumber(n)
		if err != nil {
			t.Fatalf("%s: %v", n, err)
		}
		if got != m {
			t.Errorf("%s parsed month %v, want %v", n, got, m)
		}
	}
}
