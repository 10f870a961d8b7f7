// Package pipeline sequences a run: the cleaned set is prepared once, then
// handed read-only to the relational and document phases. Each phase owns
// one sink session from connect to close. The two stores cannot be made
// atomic with each other, so a run that fails after one sink finished
// reports which one did.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"movieload/internal/cleaning"
	"movieload/internal/dataset"
	"movieload/internal/ddl"
	"movieload/internal/load"
	"movieload/internal/logger"
	"movieload/internal/metrics"
	"movieload/internal/prepare"
	"movieload/internal/reconcile"
	"movieload/internal/storage"
)

// ErrPartialLoad is wrapped when exactly one sink completed before the run
// failed.
var ErrPartialLoad = errors.New("pipeline: partial load")

// State tells which sinks hold a complete load.
type State int

const (
	StateNone State = iota
	StateRelationalOnly
	StateDocumentOnly
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateRelationalOnly:
		return "relational_only"
	case StateDocumentOnly:
		return "document_only"
	case StateComplete:
		return "complete"
	default:
		return "none"
	}
}

func stateOf(relational, document bool) State {
	switch {
	case relational && document:
		return StateComplete
	case relational:
		return StateRelationalOnly
	case document:
		return StateDocumentOnly
	}
	return StateNone
}

// RelationalOpener connects to the structured sink.
type RelationalOpener func(ctx context.Context) (storage.Relational, error)

// DocumentOpener connects to the document sink.
type DocumentOpener func(ctx context.Context) (storage.Document, error)

// Options configure a Pipeline.
type Options struct {
	Catalog             ddl.Catalog
	Collections         load.Collections
	RelationalBatchSize int
	DocumentBatchSize   int
	// Parallel runs the two sink phases concurrently.
	Parallel bool
}

// Pipeline runs prepare and both sink phases.
type Pipeline struct {
	opts    Options
	openRel RelationalOpener
	openDoc DocumentOpener
	log     *logger.Logger
}

// New returns a Pipeline. Sessions are opened lazily by Run.
func New(opts Options, openRel RelationalOpener, openDoc DocumentOpener, log *logger.Logger) *Pipeline {
	return &Pipeline{opts: opts, openRel: openRel, openDoc: openDoc, log: log}
}

// Report is the outcome of Run.
type Report struct {
	Prepared   prepare.Summary
	Relational load.Result
	Document   load.Result
	// Indexes lists relational indexes that could not be built.
	Indexes  []*storage.IndexError
	State    State
	Duration time.Duration
}

// Run prepares set and loads both sinks. set must already be cleaned and
// reconciled; it is mutated by preparation and read-only afterwards.
//
// Sequentially, a relational failure stops the run before the document
// sink is touched. In parallel mode the first failure cancels the other
// phase. Success requires both sinks to report a non-zero total.
func (p *Pipeline) Run(ctx context.Context, set dataset.Set) (rep Report, err error) {
	start := time.Now()
	defer func() { rep.Duration = time.Since(start) }()

	t0 := time.Now()
	rep.Prepared, err = prepare.Prepare(set, p.opts.Catalog, p.log.Named("prepare"))
	metrics.RecordStep("prepare", err, time.Since(t0))
	if err != nil {
		p.log.Error("prepare failed", "err", err)
		return rep, err
	}
	p.log.Info("datasets prepared", "datasets", len(rep.Prepared.Datasets), "rows", rep.Prepared.Rows)

	var relDone, docDone bool
	relational := func(ctx context.Context) error {
		t0 := time.Now()
		res, idx, err := p.runRelational(ctx, set)
		metrics.RecordStep(load.SinkRelational, err, time.Since(t0))
		if err != nil {
			return fmt.Errorf("relational: %w", err)
		}
		rep.Relational, rep.Indexes, relDone = res, idx, true
		return nil
	}
	document := func(ctx context.Context) error {
		t0 := time.Now()
		res, err := p.runDocument(ctx, set)
		metrics.RecordStep(load.SinkDocument, err, time.Since(t0))
		if err != nil {
			return fmt.Errorf("document: %w", err)
		}
		rep.Document, docDone = res, true
		return nil
	}

	if p.opts.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return relational(gctx) })
		g.Go(func() error { return document(gctx) })
		err = g.Wait()
	} else {
		err = relational(ctx)
		if err == nil {
			err = document(ctx)
		}
	}

	rep.State = stateOf(relDone, docDone)
	if err == nil && (rep.Relational.Total == 0 || rep.Document.Total == 0) {
		err = load.ErrNothingLoaded
	}
	if err != nil {
		switch rep.State {
		case StateRelationalOnly:
			err = fmt.Errorf("%w (relational sink complete, document sink not loaded): %w", ErrPartialLoad, err)
		case StateDocumentOnly:
			err = fmt.Errorf("%w (document sink complete, relational sink not loaded): %w", ErrPartialLoad, err)
		}
		p.log.Error("run failed", "state", rep.State.String(), "err", err)
		return rep, err
	}

	p.log.Info("run complete",
		"relational_rows", rep.Relational.Total,
		"document_rows", rep.Document.Total,
		"indexes_skipped", len(rep.Indexes),
	)
	return rep, nil
}

func (p *Pipeline) runRelational(ctx context.Context, set dataset.Set) (res load.Result, degraded []*storage.IndexError, err error) {
	sess, err := p.openRel(ctx)
	if err != nil {
		return res, nil, err
	}
	l := load.NewRelational(sess, p.opts.Catalog, p.opts.RelationalBatchSize, p.log)
	defer func() { _ = l.Close() }()
	p.log.Info("relational sink connected", "kind", sess.Kind(), "version", sess.Version())

	if err := l.CreateSchema(ctx); err != nil {
		return res, nil, err
	}
	if res, err = l.LoadAll(ctx, set); err != nil {
		return res, nil, err
	}
	idx, err := l.CreateIndexes(ctx)
	if err != nil {
		return res, idx.Degraded, err
	}
	return res, idx.Degraded, nil
}

func (p *Pipeline) runDocument(ctx context.Context, set dataset.Set) (res load.Result, err error) {
	store, err := p.openDoc(ctx)
	if err != nil {
		return res, err
	}
	l := load.NewDocument(store, p.opts.Collections, p.opts.DocumentBatchSize, p.log)
	defer func() { _ = l.Close(context.WithoutCancel(ctx)) }()
	p.log.Info("document sink connected", "version", store.Version())

	if err := l.CreateCollections(ctx); err != nil {
		return res, err
	}
	if res, err = l.LoadAll(ctx, set); err != nil {
		return res, err
	}
	if err := l.CreateIndexes(ctx); err != nil {
		return res, err
	}
	return res, nil
}

// CleanReport summarizes Clean.
type CleanReport struct {
	Cleaning  cleaning.Report
	Reconcile reconcile.Result
}

// Clean runs value cleanup and title reconciliation on a raw set.
func Clean(set dataset.Set, log *logger.Logger) (CleanReport, error) {
	t0 := time.Now()
	rep := CleanReport{Cleaning: cleaning.Clean(set, log.Named("clean"))}
	res, err := reconcile.Reconcile(set, reconcile.DefaultLinks())
	metrics.RecordStep("clean", err, time.Since(t0))
	if err != nil {
		log.Error("reconcile failed", "err", err)
		return rep, err
	}
	rep.Reconcile = res
	for _, l := range res.Links {
		log.Info("dataset reconciled", "dataset", l.Dataset,
			"matched", l.Matched, "unmatched", l.Unmatched, "dropped", l.Dropped)
	}
	if res.Collapsed > 0 || res.NullIDs > 0 || res.Untitled > 0 {
		log.Warn("movies skipped as join targets",
			"duplicate_titles", res.Collapsed, "null_ids", res.NullIDs, "untitled", res.Untitled)
	}
	return rep, nil
}
