// Package load writes a prepared dataset.Set into the two sinks. Relational
// loads the structured tables one transaction per dataset; Document loads
// the free-text collections in unordered best-effort batches. Both finish by
// building indexes once every row is in place.
package load

import (
	"context"
	"errors"
	"fmt"

	"movieload/internal/dataset"
	"movieload/internal/ddl"
	"movieload/internal/logger"
	"movieload/internal/storage"
)

var (
	// ErrNothingLoaded is returned by LoadAll when every planned dataset
	// together contributed zero rows.
	ErrNothingLoaded = errors.New("load: no rows inserted")

	// ErrNoRowsInserted is wrapped in a *storage.LoadError when a non-empty
	// dataset inserted nothing.
	ErrNoRowsInserted = errors.New("no rows inserted for a non-empty dataset")
)

// Sink names used in logs and metrics.
const (
	SinkRelational = "relational"
	SinkDocument   = "document"
)

// Result holds per-target insert counts in plan order.
type Result struct {
	Targets []TargetCount
	Total   int64
}

// TargetCount is the number of rows one dataset contributed to one target.
type TargetCount struct {
	Dataset  string
	Target   string
	Inserted int64
}

type insertFn func(ctx context.Context, t *dataset.Table, target string) (int64, error)

// loadPlan inserts every planned dataset in order. Datasets absent from set
// or empty are skipped with an error log; a non-empty dataset that inserts
// nothing aborts the plan, as does a zero total.
func loadPlan(ctx context.Context, log *logger.Logger, sink string, set dataset.Set, plan []ddl.Target, insert insertFn) (Result, error) {
	var res Result
	for _, tg := range plan {
		t, ok := set.Get(tg.Dataset)
		if !ok || t.Empty() {
			log.Error("dataset missing or empty; skipped", "sink", sink, "dataset", tg.Dataset, "target", tg.Table)
			continue
		}
		n, err := insert(ctx, t, tg.Table)
		if err != nil {
			return res, err
		}
		if n == 0 {
			log.Error("no rows inserted", "sink", sink, "target", tg.Table, "rows", t.Len())
			return res, &storage.LoadError{Target: tg.Table, Err: ErrNoRowsInserted}
		}
		res.Targets = append(res.Targets, TargetCount{Dataset: tg.Dataset, Target: tg.Table, Inserted: n})
		res.Total += n
		log.Info("dataset loaded", "sink", sink, "dataset", tg.Dataset, "target", tg.Table, "inserted", n)
	}
	if res.Total == 0 {
		return res, fmt.Errorf("%s: %w", sink, ErrNothingLoaded)
	}
	return res, nil
}

// asLoadError makes sure err names the target.
func asLoadError(target string, batch int, err error) error {
	var le *storage.LoadError
	if errors.As(err, &le) {
		return err
	}
	return &storage.LoadError{Target: target, Batch: batch, Err: err}
}
