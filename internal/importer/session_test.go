package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

const validCSV = `Set Name,Card Name,Card Number,Rarity,Image URL,HP
Base,Pikachu,58,Common,https://img/58.png,60
Base,Raichu,14,Rare,https://img/14.png,90
Base,"Mr. Mime, Jr.",6,Uncommon,https://img/6.png,40
`

func TestSession_HappyPath(t *testing.T) {
	s := NewSession(Options{})
	if s.State() != StateIdle {
		t.Fatalf("initial state = %q, want idle", s.State())
	}

	if err := s.SelectFile("cards.csv", strings.NewReader(validCSV)); err != nil {
		t.Fatalf("SelectFile() error = %v", err)
	}
	if s.State() != StatePreviewed {
		t.Fatalf("state = %q, want previewed", s.State())
	}

	snap := s.Snapshot()
	if len(snap.Preview) != 3 || snap.Rows != 3 {
		t.Errorf("preview/rows = %d/%d, want 3/3", len(snap.Preview), snap.Rows)
	}
	if snap.Message != "Found 3 preview rows. Ready to import." {
		t.Errorf("Message = %q", snap.Message)
	}

	setID := uuid.New()
	if err := s.SelectSet(setID); err != nil {
		t.Fatalf("SelectSet() error = %v", err)
	}
	if s.State() != StatePreviewed {
		t.Errorf("state after SelectSet = %q, want previewed", s.State())
	}

	ins := &recordingInserter{}
	records, warnings, err := s.Begin()
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
	sum := (&Submitter{Inserter: ins, BatchSize: 2}).Submit(context.Background(), records)
	s.Finish(sum)
	if sum.Succeeded != 3 {
		t.Errorf("Succeeded = %d, want 3", sum.Succeeded)
	}
	if s.State() != StateCompleted {
		t.Errorf("state = %q, want completed", s.State())
	}

	snap = s.Snapshot()
	if snap.Message != "Successfully imported 3 cards!" {
		t.Errorf("Message = %q", snap.Message)
	}
	if snap.FileName != "" || snap.SetID != uuid.Nil {
		t.Errorf("file and set should be cleared after import, got %q / %s", snap.FileName, snap.SetID)
	}
}

func TestSession_PreviewLimit(t *testing.T) {
	s := NewSession(Options{PreviewRows: 2})
	if err := s.SelectFile("cards.csv", strings.NewReader(validCSV)); err != nil {
		t.Fatalf("SelectFile() error = %v", err)
	}
	if got := len(s.Snapshot().Preview); got != 2 {
		t.Errorf("preview = %d rows, want 2", got)
	}
}

func TestSession_RejectsNonCSV(t *testing.T) {
	s := NewSession(Options{})
	err := s.SelectFile("cards.txt", strings.NewReader(validCSV))
	if !errors.Is(err, ErrNotCSV) {
		t.Fatalf("error = %v, want ErrNotCSV", err)
	}
	if s.State() != StateIdle {
		t.Errorf("state = %q, want idle", s.State())
	}
	if msg := s.Snapshot().Message; msg != "Please select a CSV file" {
		t.Errorf("Message = %q", msg)
	}
}

func TestSession_NoDataRows(t *testing.T) {
	s := NewSession(Options{})
	if err := s.SelectFile("cards.csv", strings.NewReader("Set Name,Card Name\n")); err != nil {
		t.Fatalf("SelectFile() error = %v", err)
	}
	if s.State() != StateFileSelected {
		t.Errorf("state = %q, want file_selected", s.State())
	}
	if msg := s.Snapshot().Message; msg != "No valid data found in CSV file" {
		t.Errorf("Message = %q", msg)
	}
}

func TestSession_BeginPreconditions(t *testing.T) {
	t.Run("no file", func(t *testing.T) {
		s := NewSession(Options{})
		_ = s.SelectSet(uuid.New())
		if _, _, err := s.Begin(); !errors.Is(err, ErrNoFile) {
			t.Errorf("Begin() error = %v, want ErrNoFile", err)
		}
	})

	t.Run("no set", func(t *testing.T) {
		s := NewSession(Options{})
		_ = s.SelectFile("cards.csv", strings.NewReader(validCSV))
		if _, _, err := s.Begin(); !errors.Is(err, ErrNoSet) {
			t.Errorf("Begin() error = %v, want ErrNoSet", err)
		}
		if msg := s.Snapshot().Message; msg != "Please select a set and upload a CSV file" {
			t.Errorf("Message = %q", msg)
		}
	})

	t.Run("missing headers", func(t *testing.T) {
		s := NewSession(Options{})
		_ = s.SelectFile("cards.csv", strings.NewReader("Card Name,Rarity\nA,Common\n"))
		_ = s.SelectSet(uuid.New())
		_, _, err := s.Begin()
		if !errors.Is(err, ErrMissingHeaders) {
			t.Fatalf("Begin() error = %v, want ErrMissingHeaders", err)
		}
		if !strings.Contains(err.Error(), "Set Name") {
			t.Errorf("error %q should name the missing column", err)
		}
		if s.State() != StatePreviewed {
			t.Errorf("state = %q, want previewed", s.State())
		}
	})

	t.Run("no rows", func(t *testing.T) {
		s := NewSession(Options{})
		_ = s.SelectFile("cards.csv", strings.NewReader("Set Name,Card Name,Card Number,Rarity,Image URL\n"))
		_ = s.SelectSet(uuid.New())
		if _, _, err := s.Begin(); !errors.Is(err, ErrNoRows) {
			t.Errorf("Begin() error = %v, want ErrNoRows", err)
		}
	})
}

func TestSession_ImportingBlocksTransitions(t *testing.T) {
	s := NewSession(Options{})
	_ = s.SelectFile("cards.csv", strings.NewReader(validCSV))
	setID := uuid.New()
	_ = s.SelectSet(setID)

	records, _, err := s.Begin()
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if len(records) != 3 || records[0].SetID != setID {
		t.Fatalf("records = %d, set %s", len(records), records[0].SetID)
	}
	if s.State() != StateImporting {
		t.Fatalf("state = %q, want importing", s.State())
	}

	if err := s.SelectFile("other.csv", strings.NewReader(validCSV)); !errors.Is(err, ErrImportInProgress) {
		t.Errorf("SelectFile() error = %v, want ErrImportInProgress", err)
	}
	if err := s.SelectSet(uuid.New()); !errors.Is(err, ErrImportInProgress) {
		t.Errorf("SelectSet() error = %v, want ErrImportInProgress", err)
	}
	if _, _, err := s.Begin(); !errors.Is(err, ErrImportInProgress) {
		t.Errorf("Begin() error = %v, want ErrImportInProgress", err)
	}

	s.Finish(Summary{Total: 3, Succeeded: 1, Failed: 2})
	if s.State() != StatePartiallyFailed {
		t.Errorf("state = %q, want partially_failed", s.State())
	}
}

func TestSession_FinishStates(t *testing.T) {
	tests := []struct {
		sum  Summary
		want State
	}{
		{Summary{Succeeded: 3}, StateCompleted},
		{Summary{Succeeded: 1, Failed: 2}, StatePartiallyFailed},
		{Summary{Failed: 3}, StateFailed},
	}
	for _, tt := range tests {
		s := NewSession(Options{})
		s.Finish(tt.sum)
		if s.State() != tt.want {
			t.Errorf("Finish(%+v) state = %q, want %q", tt.sum, s.State(), tt.want)
		}
		if !s.State().Terminal() {
			t.Errorf("%q should be terminal", s.State())
		}
	}
}

func TestSession_NewFlowAfterTerminal(t *testing.T) {
	s := NewSession(Options{})
	s.Finish(Summary{Succeeded: 1})

	if err := s.SelectSet(uuid.New()); err != nil {
		t.Fatalf("SelectSet() error = %v", err)
	}
	if s.State() != StateIdle {
		t.Errorf("state = %q, want idle", s.State())
	}
	if s.Snapshot().Summary != nil {
		t.Error("summary should be cleared for a new flow")
	}

	if err := s.SelectFile("cards.csv", strings.NewReader(validCSV)); err != nil {
		t.Fatalf("SelectFile() error = %v", err)
	}
	if s.State() != StatePreviewed {
		t.Errorf("state = %q, want previewed", s.State())
	}
}

func TestSession_Abort(t *testing.T) {
	s := NewSession(Options{})
	_ = s.SelectFile("cards.csv", strings.NewReader(validCSV))
	_ = s.SelectSet(uuid.New())
	if _, _, err := s.Begin(); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	s.Abort()
	snap := s.Snapshot()
	if snap.State != StateFailed {
		t.Errorf("state = %q, want failed", snap.State)
	}
	if snap.Message != "An error occurred during import. Please try again." {
		t.Errorf("Message = %q", snap.Message)
	}
}
