package labels

import (
	"bytes"
	"testing"
)

func TestSheet(t *testing.T) {
	entries := []Entry{
		{Tag: "CB-001", Name: "Chromebook 11 G9"},
		{Tag: "CB-002"},
		{Tag: "CB-003", Name: "Chromebook 14"},
	}
	pdf, err := Sheet(entries, DefaultLayout())
	if err != nil {
		t.Fatalf("Sheet: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Errorf("output does not start with a PDF header")
	}
}

func TestSheetMultiPage(t *testing.T) {
	var entries []Entry
	for i := 0; i < 30; i++ { // 3x8 layout holds 24 per page
		entries = append(entries, Entry{Tag: "CB-100"})
	}
	pdf, err := Sheet(entries, DefaultLayout())
	if err != nil {
		t.Fatalf("Sheet: %v", err)
	}
	// Two "/Type /Page" objects plus the "/Type /Pages" root.
	if n := bytes.Count(pdf, []byte("/Type /Page")); n < 3 {
		t.Errorf("expected a second page for 30 labels, found %d page objects", n)
	}
}

func TestSheetBadLayout(t *testing.T) {
	if _, err := Sheet([]Entry{{Tag: "CB-001"}}, Layout{}); err == nil {
		t.Error("zero layout must be rejected")
	}
}
