package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/cardadmin/internal/cardcsv"
	"github.com/JonMunkholm/cardadmin/internal/catalog"
	"github.com/JonMunkholm/cardadmin/internal/importer"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil", nil, ""},
		{"import running", importer.ErrImportInProgress, "IMP001"},
		{"limiter full", ErrTooManyImports, "IMP002"},
		{"wrapped not found session", fmt.Errorf("get import abc: %w", ErrImportNotFound), "IMP003"},
		{"no set", importer.ErrNoSet, "IMP004"},
		{"no rows", importer.ErrNoRows, "IMP005"},
		{"too large", cardcsv.ErrFileTooLarge, "FILE001"},
		{"not csv via importer alias", importer.ErrNotCSV, "FILE002"},
		{"no file", importer.ErrNoFile, "FILE004"},
		{"empty", cardcsv.ErrEmptyFile, "FILE005"},
		{"missing headers", fmt.Errorf("%w: Rarity", importer.ErrMissingHeaders), "VAL004"},
		{"validation", &catalog.ValidationError{Fields: map[string]string{"series": "x"}}, "VAL001"},
		{"not found", fmt.Errorf("get set 1: %w", catalog.ErrNotFound), "CAT001"},
		{"duplicate", errors.New("ERROR: duplicate key value violates unique constraint"), "DB001"},
		{"foreign key", errors.New("violates foreign key constraint"), "DB003"},
		{"refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), "DB004"},
		{"chunk timeout", fmt.Errorf("insert 50 cards: %w", errors.New("context deadline exceeded")), "DB006"},
		{"deadlock", errors.New("DEADLOCK detected"), "DB007"},
		{"unknown", errors.New("something odd"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapError(tt.err).Code; got != tt.wantCode {
				t.Errorf("MapError(%v).Code = %q, want %q", tt.err, got, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}

	got := FormatUserError(cardcsv.ErrNotCSV)
	want := "Please select a CSV file (Code: FILE002). Export the spreadsheet as comma-separated values (.csv)"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("IsUserFacing(nil) = true")
	}
	if !IsUserFacing(importer.ErrNoSet) {
		t.Error("IsUserFacing(ErrNoSet) = false")
	}
	if IsUserFacing(errors.New("boom")) {
		t.Error("IsUserFacing(unknown) = true")
	}
}
