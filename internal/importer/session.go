package importer

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/JonMunkholm/cardadmin/internal/cardcsv"
	"github.com/JonMunkholm/cardadmin/internal/catalog"
)

// State is a step of the import flow.
type State string

const (
	StateIdle            State = "idle"
	StateFileSelected    State = "file_selected"
	StatePreviewed       State = "previewed"
	StateImporting       State = "importing"
	StateCompleted       State = "completed"
	StatePartiallyFailed State = "partially_failed"
	StateFailed          State = "failed"
)

// Terminal reports whether the import has finished.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StatePartiallyFailed || s == StateFailed
}

var (
	ErrImportInProgress = errors.New("import in progress")
	ErrNoFile           = errors.New("no file selected")
	ErrNoSet            = errors.New("no set selected")
	ErrMissingHeaders   = errors.New("missing required headers")
	ErrNoRows           = errors.New("no valid data rows")

	ErrNotCSV    = cardcsv.ErrNotCSV
	ErrEmptyFile = cardcsv.ErrEmptyFile
)

// Options configures a Session.
type Options struct {
	PreviewRows int   // default cardcsv.DefaultPreviewRows
	MaxFileSize int64 // 0 disables the limit
}

// Snapshot is a read-only copy of the session for rendering.
type Snapshot struct {
	State     State                `json:"state"`
	FileName  string               `json:"file_name,omitempty"`
	SetID     uuid.UUID            `json:"set_id"`
	Headers   []string             `json:"headers,omitempty"`
	Missing   []string             `json:"missing_headers,omitempty"`
	Preview   []cardcsv.Row        `json:"preview,omitempty"`
	Rows      int                  `json:"rows"`
	DataLines int                  `json:"data_lines"`
	Dropped   []cardcsv.DroppedRow `json:"dropped,omitempty"`
	Summary   *Summary             `json:"summary,omitempty"`
	Message   string               `json:"message,omitempty"`
}

// Session is one import, from file selection to a terminal outcome.
// Its methods are safe for concurrent use.
type Session struct {
	opts Options

	mu       sync.Mutex
	state    State
	fileName string
	doc      cardcsv.ParseResult
	hasFile  bool
	setID    uuid.UUID
	summary  *Summary
	message  string
}

// NewSession returns an idle session.
func NewSession(opts Options) *Session {
	if opts.PreviewRows <= 0 {
		opts.PreviewRows = cardcsv.DefaultPreviewRows
	}
	return &Session{opts: opts, state: StateIdle}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SelectFile reads and parses an uploaded file. The session moves to
// Previewed when the file has at least one data row and to FileSelected
// otherwise. A rejected file leaves the session unchanged.
func (s *Session) SelectFile(name string, r io.Reader) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateImporting {
		return ErrImportInProgress
	}
	if err := cardcsv.CheckFileName(name); err != nil {
		s.message = "Please select a CSV file"
		return err
	}

	text, err := cardcsv.ReadDocument(r, s.opts.MaxFileSize)
	if err != nil {
		s.message = fileErrorMessage(err)
		return err
	}

	s.fileName = name
	s.doc = cardcsv.Parse(text)
	s.hasFile = true
	s.summary = nil
	s.state = StateFileSelected
	s.message = "No valid data found in CSV file"

	if n := len(cardcsv.Preview(s.doc.Rows, s.opts.PreviewRows)); n > 0 {
		s.state = StatePreviewed
		s.message = fmt.Sprintf("Found %d preview rows. Ready to import.", n)
	}
	return nil
}

// SelectSet chooses the target set. Choosing a set after a finished import
// starts a new flow.
func (s *Session) SelectSet(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateImporting {
		return ErrImportInProgress
	}
	if s.state.Terminal() {
		s.reset()
	}
	s.setID = id
	return nil
}

// Begin validates the session and moves it to Importing. It returns the
// mapped records to submit and any field warnings from mapping.
func (s *Session) Begin() ([]catalog.NewCard, []cardcsv.FieldWarning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.state == StateImporting:
		return nil, nil, ErrImportInProgress
	case !s.hasFile:
		s.message = "Please select a set and upload a CSV file"
		return nil, nil, ErrNoFile
	case s.setID == uuid.Nil:
		s.message = "Please select a set and upload a CSV file"
		return nil, nil, ErrNoSet
	}

	if missing := cardcsv.MissingHeaders(s.doc.Headers); len(missing) > 0 {
		s.message = "Missing required columns: " + strings.Join(missing, ", ")
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingHeaders, strings.Join(missing, ", "))
	}
	if len(s.doc.Rows) == 0 {
		s.message = "No valid data found in CSV file"
		return nil, nil, ErrNoRows
	}

	records, warnings := cardcsv.MapRows(s.doc.Rows, s.setID)
	s.state = StateImporting
	s.message = fmt.Sprintf("Importing %d cards...", len(records))
	return records, warnings, nil
}

// Finish records the summary and moves to the matching terminal state.
// The selected file and set are cleared so the next import starts fresh.
func (s *Session) Finish(sum Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch sum.Outcome() {
	case Completed:
		s.state = StateCompleted
	case PartiallyFailed:
		s.state = StatePartiallyFailed
	default:
		s.state = StateFailed
	}
	s.summary = &sum
	s.message = sum.Message()
	s.hasFile = false
	s.fileName = ""
	s.doc = cardcsv.ParseResult{}
	s.setID = uuid.Nil
}

// Abort ends an import that could not run at all. The user sees the
// generic retry message.
func (s *Session) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateFailed
	s.message = "An error occurred during import. Please try again."
}

// Snapshot returns a copy of the session for display.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:     s.state,
		FileName:  s.fileName,
		SetID:     s.setID,
		Rows:      len(s.doc.Rows),
		DataLines: s.doc.DataLines,
		Message:   s.message,
	}
	if s.hasFile {
		snap.Headers = append([]string(nil), s.doc.Headers...)
		snap.Missing = cardcsv.MissingHeaders(s.doc.Headers)
		snap.Preview = cardcsv.Preview(s.doc.Rows, s.opts.PreviewRows)
		snap.Dropped = append([]cardcsv.DroppedRow(nil), s.doc.Dropped...)
	}
	if s.summary != nil {
		sum := *s.summary
		snap.Summary = &sum
	}
	return snap
}

func (s *Session) reset() {
	s.state = StateIdle
	s.fileName = ""
	s.doc = cardcsv.ParseResult{}
	s.hasFile = false
	s.setID = uuid.Nil
	s.summary = nil
	s.message = ""
}

func fileErrorMessage(err error) string {
	switch {
	case errors.Is(err, cardcsv.ErrEmptyFile):
		return "No valid data found in CSV file"
	case errors.Is(err, cardcsv.ErrFileTooLarge):
		return "File is too large"
	default:
		return "Error parsing CSV file. Please check the format."
	}
}
