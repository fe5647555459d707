package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/cardadmin/internal/catalog"
)

// recordingInserter records each call and fails the calls listed in failOn
// (1-based).
type recordingInserter struct {
	mu     sync.Mutex
	calls  [][]string
	failOn map[int]bool
	delay  time.Duration
}

func (r *recordingInserter) InsertCards(ctx context.Context, cards []catalog.NewCard) error {
	r.mu.Lock()
	names := make([]string, len(cards))
	for i, c := range cards {
		names[i] = c.Name
	}
	r.calls = append(r.calls, names)
	n := len(r.calls)
	r.mu.Unlock()

	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if r.failOn[n] {
		return fmt.Errorf("insert chunk %d: boom", n)
	}
	return nil
}

func (r *recordingInserter) sizes() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.calls))
	for i, c := range r.calls {
		out[i] = len(c)
	}
	return out
}

func makeRecords(n int) []catalog.NewCard {
	out := make([]catalog.NewCard, n)
	for i := range out {
		out[i] = catalog.NewCard{Name: fmt.Sprintf("card-%03d", i)}
	}
	return out
}

func TestSubmit_ChunksInOrder(t *testing.T) {
	ins := &recordingInserter{}
	sub := &Submitter{Inserter: ins, BatchSize: 50}

	sum := sub.Submit(context.Background(), makeRecords(120))

	if diff := cmp.Diff([]int{50, 50, 20}, ins.sizes()); diff != "" {
		t.Errorf("chunk sizes mismatch (-want +got):\n%s", diff)
	}

	var got []string
	for _, c := range ins.calls {
		got = append(got, c...)
	}
	for i, name := range got {
		if want := fmt.Sprintf("card-%03d", i); name != want {
			t.Fatalf("record %d = %q, want %q", i, name, want)
		}
	}

	want := Summary{Total: 120, Succeeded: 120, Chunks: 3}
	if diff := cmp.Diff(want, sum); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
	if sum.Outcome() != Completed {
		t.Errorf("Outcome() = %q, want %q", sum.Outcome(), Completed)
	}
}

func TestSubmit_MiddleChunkFails(t *testing.T) {
	ins := &recordingInserter{failOn: map[int]bool{2: true}}
	sub := &Submitter{Inserter: ins, BatchSize: 50}

	sum := sub.Submit(context.Background(), makeRecords(120))

	if len(ins.calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(ins.calls))
	}
	if sum.Succeeded != 70 {
		t.Errorf("Succeeded = %d, want 70", sum.Succeeded)
	}
	if sum.Failed != 50 {
		t.Errorf("Failed = %d, want 50", sum.Failed)
	}
	if sum.FailedChunks != 1 {
		t.Errorf("FailedChunks = %d, want 1", sum.FailedChunks)
	}
	if sum.Outcome() != PartiallyFailed {
		t.Errorf("Outcome() = %q, want %q", sum.Outcome(), PartiallyFailed)
	}
	if got, want := sum.Message(), "Imported 70 cards successfully. 50 cards failed to import."; got != want {
		t.Errorf("Message() = %q, want %q", got, want)
	}
}

func TestSubmit_AllFail(t *testing.T) {
	ins := &recordingInserter{failOn: map[int]bool{1: true, 2: true}}
	sub := &Submitter{Inserter: ins, BatchSize: 10}

	sum := sub.Submit(context.Background(), makeRecords(15))
	if sum.Outcome() != Failed {
		t.Errorf("Outcome() = %q, want %q", sum.Outcome(), Failed)
	}
	if sum.Failed != 15 || sum.Succeeded != 0 {
		t.Errorf("Succeeded/Failed = %d/%d, want 0/15", sum.Succeeded, sum.Failed)
	}
}

func TestSubmit_DefaultBatchSize(t *testing.T) {
	ins := &recordingInserter{}
	sub := &Submitter{Inserter: ins}

	sub.Submit(context.Background(), makeRecords(DefaultBatchSize+1))
	if diff := cmp.Diff([]int{DefaultBatchSize, 1}, ins.sizes()); diff != "" {
		t.Errorf("chunk sizes mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmit_Empty(t *testing.T) {
	ins := &recordingInserter{}
	sub := &Submitter{Inserter: ins, BatchSize: 50}

	sum := sub.Submit(context.Background(), nil)
	if len(ins.calls) != 0 {
		t.Errorf("calls = %d, want 0", len(ins.calls))
	}
	if sum.Outcome() != Completed || sum.Message() != "Successfully imported 0 cards!" {
		t.Errorf("empty summary = %+v / %q", sum, sum.Message())
	}
}

func TestSubmit_OnChunk(t *testing.T) {
	ins := &recordingInserter{failOn: map[int]bool{1: true}}
	var results []ChunkResult
	sub := &Submitter{
		Inserter:  ins,
		BatchSize: 2,
		OnChunk:   func(r ChunkResult) { results = append(results, r) },
	}

	sub.Submit(context.Background(), makeRecords(5))

	if len(results) != 3 {
		t.Fatalf("callbacks = %d, want 3", len(results))
	}
	if results[0].Err == nil {
		t.Error("first chunk should report its error")
	}
	last := results[2]
	if last.Index != 2 || last.Chunks != 3 || last.Offset != 4 || last.Size != 1 {
		t.Errorf("last chunk = %+v", last)
	}
	if last.Succeeded != 3 || last.Failed != 2 {
		t.Errorf("running totals = %d/%d, want 3/2", last.Succeeded, last.Failed)
	}
}

func TestSubmit_ChunkTimeoutCountsAsFailure(t *testing.T) {
	ins := &recordingInserter{delay: time.Second}
	sub := &Submitter{Inserter: ins, BatchSize: 5, ChunkTimeout: 10 * time.Millisecond}

	sum := sub.Submit(context.Background(), makeRecords(5))
	if sum.Failed != 5 {
		t.Errorf("Failed = %d, want 5", sum.Failed)
	}
}

func TestSubmit_IgnoresCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var errs []error
	ins := &recordingInserter{delay: time.Millisecond}
	sub := &Submitter{
		Inserter:  ins,
		BatchSize: 1,
		OnChunk:   func(r ChunkResult) { errs = append(errs, r.Err) },
	}

	sum := sub.Submit(ctx, makeRecords(3))
	if sum.Succeeded != 3 {
		t.Errorf("Succeeded = %d, want 3", sum.Succeeded)
	}
	for _, err := range errs {
		if errors.Is(err, context.Canceled) {
			t.Error("chunk saw caller cancellation")
		}
	}
}
