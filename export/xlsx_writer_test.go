package export

import (
	"context"
	"testing"
	"time"
)

func TestWriteXLSX_ProducesValidContainer(t *testing.T) {
	rows := newFakeRowEmitter(
		Row{"Name", "Status"},
		Row{"Ada", "Submitted"},
		Row{"Alan", "Pending"},
	)
	data, dataRows, err := writeXLSX(context.Background(), rows, "Sheet1")
	if err != nil {
		t.Fatalf("writeXLSX failed: %v", err)
	}
	if dataRows != 2 {
		t.Fatalf("expected 2 data rows, got %d", dataRows)
	}
	if err := validateSpreadsheetBytes(data); err != nil {
		t.Fatalf("expected valid spreadsheet bytes: %v", err)
	}
}

func TestValidateSpreadsheetBytes_RejectsTooSmall(t *testing.T) {
	if err := validateSpreadsheetBytes([]byte{0x50, 0x4B}); err == nil {
		t.Fatal("expected error for undersized buffer")
	}
}

func TestValidateSpreadsheetBytes_RejectsMissingSignature(t *testing.T) {
	data := make([]byte, 200)
	if err := validateSpreadsheetBytes(data); err == nil {
		t.Fatal("expected error for missing container signature")
	}
}

func TestSheetName_DefaultsToTypeAndMonth(t *testing.T) {
	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	got := sheetName("", TypeParticipants, now)
	if got != "Participants Jan 2026" {
		t.Fatalf("expected default sheet name, got %q", got)
	}
}

func TestSheetName_StripsInvalidCharsAndTruncates(t *testing.T) {
	got := sheetName("My/Report:[2026]*Name?With\\Extra{Chars}", TypeParticipants, time.Now())
	if len(got) > sheetNameMaxLen {
		t.Fatalf("expected sheet name truncated to %d chars, got %d (%q)", sheetNameMaxLen, len(got), got)
	}
	for _, r := range sheetStripChars {
		if containsRune(got, r) {
			t.Fatalf("expected stripped char %q absent from %q", r, got)
		}
	}
}

func TestSheetName_EmptyFallsBackToSheet1(t *testing.T) {
	got := sheetName("[]:*?", TypeParticipants, time.Now())
	// every character of the hint is stripped; the type/month default applies
	// only to an empty hint, so a non-empty but fully stripped hint yields "Sheet1".
	if got != "Sheet1" {
		t.Fatalf("expected fallback sheet name Sheet1, got %q", got)
	}
}

func containsRune(s string, r rune) bool {
	for _, c := range s {
		if c == r {
			return true
		}
	}
	return false
}
