package storage

import (
	"context"
	"errors"
	"testing"

	"movieload/internal/logger"
)

// TestRunBatches_Basic verifies records are split into batches and the total
// equals the sum of all successful returns.
func TestRunBatches_Basic(t *testing.T) {
	t.Parallel()

	type span struct{ b, lo, hi int }
	var got []span
	fn := func(_ context.Context, b, lo, hi int) (int64, error) {
		got = append(got, span{b, lo, hi})
		return int64(hi - lo), nil
	}

	total, err := RunBatches(context.Background(), logger.Nop(), "t", 7, 3, fn)
	if err != nil {
		t.Fatalf("RunBatches error: %v", err)
	}
	if total != 7 {
		t.Fatalf("total %d, want 7", total)
	}
	want := []span{{1, 0, 3}, {2, 3, 6}, {3, 6, 7}}
	if len(got) != len(want) {
		t.Fatalf("batches %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("batch %d = %v, want %v", i, got[i], want[i])
		}
	}
}

// TestRunBatches_ErrorStops ensures the first error is propagated and no
// further batches run.
func TestRunBatches_ErrorStops(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("insert failed")
	var calls int
	fn := func(_ context.Context, b, lo, hi int) (int64, error) {
		calls++
		if b == 2 {
			return 1, wantErr
		}
		return int64(hi - lo), nil
	}

	total, err := RunBatches(context.Background(), logger.Nop(), "t", 10, 2, fn)
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
}

func TestRunBatches_Empty(t *testing.T) {
	t.Parallel()

	fn := func(context.Context, int, int, int) (int64, error) {
		t.Fatal("fn called for empty input")
		return 0, nil
	}
	total, err := RunBatches(context.Background(), logger.Nop(), "t", 0, 5, fn)
	if err != nil || total != 0 {
		t.Fatalf("RunBatches(0) = %d, %v", total, err)
	}
}

func TestRunBatches_InvalidArgs(t *testing.T) {
	t.Parallel()

	if _, err := RunBatches(context.Background(), logger.Nop(), "t", 1, 0, func(context.Context, int, int, int) (int64, error) { return 0, nil }); err == nil {
		t.Fatal("expected error for batchSize 0")
	}
	if _, err := RunBatches(context.Background(), logger.Nop(), "t", 1, 1, nil); err == nil {
		t.Fatal("expected error for nil fn")
	}
}

func TestRunBatches_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	fn := func(_ context.Context, b, lo, hi int) (int64, error) {
		if b == 1 {
			cancel()
		}
		return int64(hi - lo), nil
	}
	total, err := RunBatches(ctx, logger.Nop(), "t", 10, 5, fn)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if total != 5 {
		t.Fatalf("total = %d, want 5", total)
	}
}
