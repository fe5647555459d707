package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/JonMunkholm/cardadmin/internal/catalog"
	"github.com/JonMunkholm/cardadmin/internal/importer"
	"github.com/JonMunkholm/cardadmin/internal/logging"
)

// ErrImportNotFound is returned for unknown or expired import sessions.
var ErrImportNotFound = errors.New("import not found")

// Phase is the progress stage of an import session.
type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseStarting  Phase = "starting"
	PhaseInserting Phase = "inserting"
	PhaseComplete  Phase = "complete"
	PhaseFailed    Phase = "failed"
)

// ImportProgress is published to subscribers after every chunk.
type ImportProgress struct {
	ImportID  string         `json:"import_id"`
	Phase     Phase          `json:"phase"`
	State     importer.State `json:"state"`
	Chunk     int            `json:"chunk"` // chunks finished
	Chunks    int            `json:"chunks"`
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Message   string         `json:"message,omitempty"`
}

// Percent is the share of chunks finished, 0-100.
func (p ImportProgress) Percent() int {
	if p.Chunks == 0 {
		if p.Phase == PhaseComplete {
			return 100
		}
		return 0
	}
	return p.Chunk * 100 / p.Chunks
}

// Done reports whether the run has ended.
func (p ImportProgress) Done() bool {
	return p.Phase == PhaseComplete || p.Phase == PhaseFailed
}

// ImportView is an import session as shown to clients.
type ImportView struct {
	ID string `json:"id"`
	importer.Snapshot
	Progress ImportProgress `json:"progress"`
}

type activeImport struct {
	ID      string
	Session *importer.Session

	mu        sync.Mutex
	touched   time.Time
	running   bool
	progress  ImportProgress
	listeners []chan ImportProgress
	done      chan struct{} // closed when the current run ends
}

// NewImport opens an idle import session and returns its ID.
func (s *Service) NewImport(ctx context.Context) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate import id: %w", err)
	}

	imp := &activeImport{
		ID: id,
		Session: importer.NewSession(importer.Options{
			PreviewRows: s.opts.PreviewRows,
			MaxFileSize: s.opts.MaxFileSize,
		}),
		touched: time.Now(),
	}
	imp.progress = ImportProgress{ImportID: id, Phase: PhaseWaiting, State: importer.StateIdle}

	s.mu.Lock()
	s.imports[id] = imp
	s.mu.Unlock()

	s.scheduleExpiry(id, s.opts.SessionTTL)
	logging.FromContext(ctx).Debug("import session opened", "import_id", id)
	return id, nil
}

// Import returns the current view of a session.
func (s *Service) Import(id string) (ImportView, error) {
	imp, err := s.lookup(id)
	if err != nil {
		return ImportView{}, err
	}
	return imp.view(), nil
}

// SelectImportFile reads an uploaded file into the session and parses it.
func (s *Service) SelectImportFile(ctx context.Context, id, name string, r io.Reader) (ImportView, error) {
	imp, err := s.lookup(id)
	if err != nil {
		return ImportView{}, err
	}

	if err := imp.Session.SelectFile(name, r); err != nil {
		logging.FromContext(ctx).Info("import file rejected",
			"import_id", id,
			"file", name,
			"error", err,
		)
		imp.resetProgress()
		return imp.view(), err
	}

	snap := imp.Session.Snapshot()
	if len(snap.Dropped) > 0 {
		logging.FromContext(ctx).Info("rows dropped on parse",
			"import_id", id,
			"file", name,
			"data_lines", snap.DataLines,
			"rows", snap.Rows,
			"dropped", len(snap.Dropped),
		)
	}
	imp.resetProgress()
	return imp.view(), nil
}

// SelectImportSet sets the target set after checking that it exists.
func (s *Service) SelectImportSet(ctx context.Context, id string, setID uuid.UUID) (ImportView, error) {
	imp, err := s.lookup(id)
	if err != nil {
		return ImportView{}, err
	}
	if setID == uuid.Nil {
		return imp.view(), importer.ErrNoSet
	}
	if _, err := s.store.GetSet(ctx, setID); err != nil {
		return imp.view(), fmt.Errorf("import set: %w", err)
	}

	if err := imp.Session.SelectSet(setID); err != nil {
		return imp.view(), err
	}
	imp.resetProgress()
	return imp.view(), nil
}

// StartImport validates the session and submits its cards in the
// background. It returns as soon as the run has started; follow it with
// SubscribeImport or WaitImport. Once started, a run cannot be cancelled.
func (s *Service) StartImport(ctx context.Context, id string) (ImportView, error) {
	imp, err := s.lookup(id)
	if err != nil {
		return ImportView{}, err
	}
	if imp.isRunning() {
		return imp.view(), importer.ErrImportInProgress
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return imp.view(), err
	}

	records, warnings, err := imp.Session.Begin()
	if err != nil {
		s.limiter.Release()
		return imp.view(), err
	}

	logger := logging.WithFields(ctx, "import_id", id)
	for _, w := range warnings {
		logger.Debug("card field skipped", "warning", w.String())
	}
	if len(warnings) > 0 {
		logger.Warn("optional card fields could not be parsed", "count", len(warnings))
	}

	chunks := (len(records) + s.opts.BatchSize - 1) / s.opts.BatchSize
	imp.begin(len(records), chunks, imp.Session.State())

	logger.Info("import started", "cards", len(records), "chunks", chunks)
	go s.runImport(context.WithoutCancel(ctx), imp, records)

	return imp.view(), nil
}

func (s *Service) runImport(ctx context.Context, imp *activeImport, records []catalog.NewCard) {
	defer s.limiter.Release()

	logger := logging.WithFields(ctx, "import_id", imp.ID)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in import", "panic", r)
			imp.Session.Abort()
			imp.finish(PhaseFailed, imp.Session.Snapshot())
		}
	}()

	sub := &importer.Submitter{
		Inserter:     s.store,
		BatchSize:    s.opts.BatchSize,
		ChunkTimeout: s.opts.ChunkTimeout,
		OnChunk:      imp.chunkDone,
	}

	start := time.Now()
	sum := sub.Submit(ctx, records)
	imp.Session.Finish(sum)

	logger.Info("import finished",
		"outcome", sum.Outcome(),
		"succeeded", sum.Succeeded,
		"failed", sum.Failed,
		"failed_chunks", sum.FailedChunks,
		"duration", time.Since(start),
	)
	imp.finish(PhaseComplete, imp.Session.Snapshot())
}

// SubscribeImport returns a channel that receives the current progress
// immediately and every update after it. The channel is closed when the
// run ends, or right after the first value when nothing is running.
// Call the returned func to stop listening early.
func (s *Service) SubscribeImport(id string) (<-chan ImportProgress, func(), error) {
	imp, err := s.lookup(id)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan ImportProgress, 10)

	imp.mu.Lock()
	defer imp.mu.Unlock()

	ch <- imp.progress
	if !imp.running {
		close(ch)
		return ch, func() {}, nil
	}
	imp.listeners = append(imp.listeners, ch)

	unsubscribe := func() {
		imp.mu.Lock()
		defer imp.mu.Unlock()
		for i, l := range imp.listeners {
			if l == ch {
				imp.listeners = append(imp.listeners[:i], imp.listeners[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, unsubscribe, nil
}

// WaitImport blocks until the session's current run ends or ctx is done.
// It returns immediately when nothing is running.
func (s *Service) WaitImport(ctx context.Context, id string) (ImportView, error) {
	imp, err := s.lookup(id)
	if err != nil {
		return ImportView{}, err
	}

	imp.mu.Lock()
	done := imp.done
	imp.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return imp.view(), ctx.Err()
		}
	}
	return imp.view(), nil
}

// ImportStatus reports how many import slots are in use.
func (s *Service) ImportStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until every running import has finished or ctx
// is done. It is called on shutdown.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func (s *Service) lookup(id string) (*activeImport, error) {
	s.mu.RLock()
	imp, ok := s.imports[id]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrImportNotFound, id)
	}

	imp.mu.Lock()
	imp.touched = time.Now()
	imp.mu.Unlock()
	return imp, nil
}

// scheduleExpiry drops the session once it has been idle for SessionTTL.
// Running sessions are never dropped.
func (s *Service) scheduleExpiry(id string, after time.Duration) {
	time.AfterFunc(after, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		imp, ok := s.imports[id]
		if !ok {
			return
		}

		imp.mu.Lock()
		idle := time.Since(imp.touched)
		running := imp.running
		imp.mu.Unlock()

		switch {
		case running:
			s.scheduleExpiry(id, s.opts.SessionTTL)
		case idle < s.opts.SessionTTL:
			s.scheduleExpiry(id, s.opts.SessionTTL-idle)
		default:
			delete(s.imports, id)
		}
	})
}

func (imp *activeImport) isRunning() bool {
	imp.mu.Lock()
	defer imp.mu.Unlock()
	return imp.running
}

func (imp *activeImport) view() ImportView {
	snap := imp.Session.Snapshot()

	imp.mu.Lock()
	progress := imp.progress
	imp.mu.Unlock()

	return ImportView{ID: imp.ID, Snapshot: snap, Progress: progress}
}

// resetProgress makes the progress follow the session again after a new
// file or set was chosen.
func (imp *activeImport) resetProgress() {
	snap := imp.Session.Snapshot()

	imp.mu.Lock()
	defer imp.mu.Unlock()
	if imp.running {
		return
	}
	imp.progress = ImportProgress{
		ImportID: imp.ID,
		Phase:    PhaseWaiting,
		State:    snap.State,
		Message:  snap.Message,
	}
}

func (imp *activeImport) begin(total, chunks int, state importer.State) {
	imp.mu.Lock()
	defer imp.mu.Unlock()

	imp.running = true
	imp.done = make(chan struct{})
	imp.progress = ImportProgress{
		ImportID: imp.ID,
		Phase:    PhaseStarting,
		State:    state,
		Chunks:   chunks,
		Total:    total,
		Message:  fmt.Sprintf("Importing %d cards...", total),
	}
}

func (imp *activeImport) chunkDone(r importer.ChunkResult) {
	imp.mu.Lock()
	defer imp.mu.Unlock()

	imp.progress.Phase = PhaseInserting
	imp.progress.Chunk = r.Index + 1
	imp.progress.Chunks = r.Chunks
	imp.progress.Succeeded = r.Succeeded
	imp.progress.Failed = r.Failed
	imp.notifyLocked()
}

// finish publishes the final progress and releases every waiter.
func (imp *activeImport) finish(phase Phase, snap importer.Snapshot) {
	imp.mu.Lock()
	defer imp.mu.Unlock()

	if !imp.running {
		return
	}

	imp.progress.Phase = phase
	imp.progress.State = snap.State
	imp.progress.Message = snap.Message
	if snap.Summary != nil {
		imp.progress.Chunk = snap.Summary.Chunks
		imp.progress.Chunks = snap.Summary.Chunks
		imp.progress.Succeeded = snap.Summary.Succeeded
		imp.progress.Failed = snap.Summary.Failed
	}
	imp.notifyLocked()

	for _, ch := range imp.listeners {
		close(ch)
	}
	imp.listeners = nil
	imp.running = false
	imp.touched = time.Now()
	close(imp.done)
}

// notifyLocked sends the progress to every listener, skipping slow ones.
func (imp *activeImport) notifyLocked() {
	for _, ch := range imp.listeners {
		select {
		case ch <- imp.progress:
		default:
		}
	}
}
