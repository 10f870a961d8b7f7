package storage

import (
	"context"
	"fmt"
	"time"

	"movieload/internal/logger"
)

// BatchFn writes records [lo, hi) as batch number batch (1-based) and returns
// the number of records reported as written.
type BatchFn func(ctx context.Context, batch, lo, hi int) (int64, error)

// RunBatches splits n records into batches of batchSize and calls fn for
// each, in order. It returns the total reported by fn and the first error.
// Cancellation is checked between batches and returns (total, ctx.Err()).
// Progress is logged on each successful batch.
func RunBatches(
	ctx context.Context,
	log *logger.Logger,
	target string,
	n, batchSize int,
	fn BatchFn,
) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if fn == nil {
		return 0, fmt.Errorf("batch function must not be nil")
	}

	var (
		total       int64
		start       = time.Now()
		lastFlushTS = start
		lastTotal   int64
		batches     = (n + batchSize - 1) / batchSize
	)

	for b := 1; b <= batches; b++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		lo := (b - 1) * batchSize
		hi := lo + batchSize
		if hi > n {
			hi = n
		}

		inserted, err := fn(ctx, b, lo, hi)
		total += inserted
		if err != nil {
			log.Error("batch failed", "target", target, "batch", b, "of", batches, "inserted", inserted, "total", total, "err", err)
			return total, err
		}

		now := time.Now()
		sinceLast := now.Sub(lastFlushTS)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(total-lastTotal) / sinceLast.Seconds()
		}
		log.Debug("batch written",
			"target", target,
			"batch", b,
			"of", batches,
			"rps", int64(rps),
			"inserted", inserted,
			"total_inserted", total,
			"elapsed", now.Sub(start).Truncate(time.Millisecond).String(),
		)
		lastFlushTS = now
		lastTotal = total
	}
	return total, nil
}
