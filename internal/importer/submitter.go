// Package importer submits mapped card records to the store in fixed-size
// batches and tracks the state of one import from file selection to its
// final outcome.
package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/cardadmin/internal/catalog"
	"github.com/JonMunkholm/cardadmin/internal/logging"
)

// DefaultBatchSize is the number of records sent per insert call.
const DefaultBatchSize = 50

// Outcome is the final result of an import.
type Outcome string

const (
	Completed       Outcome = "completed"
	PartiallyFailed Outcome = "partially_failed"
	Failed          Outcome = "failed"
)

// Summary accumulates chunk results.
type Summary struct {
	Total        int `json:"total"`
	Succeeded    int `json:"succeeded"`
	Failed       int `json:"failed"`
	Chunks       int `json:"chunks"`
	FailedChunks int `json:"failed_chunks"`
}

// Outcome classifies the summary. An empty import counts as completed.
func (s Summary) Outcome() Outcome {
	switch {
	case s.Failed == 0:
		return Completed
	case s.Succeeded == 0:
		return Failed
	default:
		return PartiallyFailed
	}
}

// Message renders the user-facing result line.
func (s Summary) Message() string {
	if s.Failed > 0 {
		return fmt.Sprintf("Imported %d cards successfully. %d cards failed to import.", s.Succeeded, s.Failed)
	}
	return fmt.Sprintf("Successfully imported %d cards!", s.Succeeded)
}

// ChunkResult reports one finished insert call.
type ChunkResult struct {
	Index  int // 0-based chunk index
	Chunks int // total chunk count
	Offset int // index of the first record of the chunk
	Size   int
	Err    error

	// Running totals after this chunk.
	Succeeded int
	Failed    int
}

// Submitter sends records through Inserter in contiguous chunks.
type Submitter struct {
	Inserter  catalog.CardInserter
	BatchSize int

	// ChunkTimeout bounds each insert call. Zero means no limit.
	ChunkTimeout time.Duration

	// OnChunk, if set, is called after every chunk in order.
	OnChunk func(ChunkResult)
}

// Submit inserts records chunk by chunk, strictly one call at a time and in
// source order. A failed chunk adds its size to Failed and the next chunk
// is still sent. Nothing is retried and committed chunks are never rolled
// back.
//
// Cancelling ctx does not stop a running import; ctx only carries request
// values such as the logger fields.
func (s *Submitter) Submit(ctx context.Context, records []catalog.NewCard) Summary {
	size := s.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	ctx = context.WithoutCancel(ctx)
	logger := logging.FromContext(ctx)

	chunks := (len(records) + size - 1) / size
	sum := Summary{Total: len(records), Chunks: chunks}

	for i := 0; i < chunks; i++ {
		start := i * size
		end := min(start+size, len(records))
		batch := records[start:end]

		err := s.insert(ctx, batch)
		if err != nil {
			sum.Failed += len(batch)
			sum.FailedChunks++
			logger.Error("card batch insert failed",
				"chunk", i+1,
				"chunks", chunks,
				"size", len(batch),
				"error", err,
			)
		} else {
			sum.Succeeded += len(batch)
		}

		if s.OnChunk != nil {
			s.OnChunk(ChunkResult{
				Index:     i,
				Chunks:    chunks,
				Offset:    start,
				Size:      len(batch),
				Err:       err,
				Succeeded: sum.Succeeded,
				Failed:    sum.Failed,
			})
		}
	}

	return sum
}

func (s *Submitter) insert(ctx context.Context, batch []catalog.NewCard) error {
	if s.ChunkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.ChunkTimeout)
		defer cancel()
	}
	return s.Inserter.InsertCards(ctx, batch)
}
