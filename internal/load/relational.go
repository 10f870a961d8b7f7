package load

import (
	"context"
	"errors"
	"fmt"

	"movieload/internal/dataset"
	"movieload/internal/ddl"
	"movieload/internal/logger"
	"movieload/internal/metrics"
	"movieload/internal/storage"
)

// Relational loads the structured sink through one storage.Relational
// session. It is not safe for concurrent use.
type Relational struct {
	sess      storage.Relational
	cat       ddl.Catalog
	batchSize int
	log       *logger.Logger
}

// NewRelational returns a loader that owns sess until Close.
func NewRelational(sess storage.Relational, cat ddl.Catalog, batchSize int, log *logger.Logger) *Relational {
	return &Relational{
		sess:      sess,
		cat:       cat,
		batchSize: batchSize,
		log:       log.Named("relational").With("backend", sess.Kind()),
	}
}

// CreateSchema drops every catalog table and recreates them in a single
// transaction. Any failure rolls back and is returned.
func (r *Relational) CreateSchema(ctx context.Context) (err error) {
	d := r.sess.Dialect()
	stmts := d.ResetSchema(r.cat.Tables)
	for _, t := range r.cat.Tables {
		s, err := d.CreateTable(t)
		if err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		stmts = append(stmts, s)
	}

	tx, err := r.sess.Begin(ctx)
	if err != nil {
		return fmt.Errorf("create schema: begin: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				r.log.Warn("rollback failed", "err", rbErr)
			}
		}
	}()

	for _, s := range stmts {
		if err = tx.Exec(ctx, s); err != nil {
			r.log.Error("schema statement failed", "sql", s, "err", err)
			return fmt.Errorf("create schema: %w", err)
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("create schema: commit: %w", err)
	}
	r.log.Info("schema created", "tables", len(r.cat.Tables))
	return nil
}

// InsertDataset writes t into target in batches inside one transaction and
// returns the number of rows inserted. An empty table returns (0, nil)
// without touching the store. Any failure rolls the whole call back and is
// returned as a *storage.LoadError.
//
// Records are projected onto the target's insert columns; source columns
// the table does not declare are ignored.
func (r *Relational) InsertDataset(ctx context.Context, t *dataset.Table, target string) (n int64, err error) {
	if t.Empty() {
		return 0, nil
	}
	def, ok := r.cat.Table(target)
	if !ok {
		return 0, &storage.LoadError{Target: target, Err: fmt.Errorf("table %q is not in the catalog", target)}
	}
	cols := def.InsertColumns()
	if extra := ignoredColumns(t.Columns, def); len(extra) > 0 {
		r.log.Warn("source columns not in target table are ignored", "dataset", t.Name, "target", target, "columns", extra)
	}

	tx, err := r.sess.Begin(ctx)
	if err != nil {
		return 0, asLoadError(target, 0, err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				r.log.Warn("rollback failed", "target", target, "err", rbErr)
			}
		}
	}()

	total, err := storage.RunBatches(ctx, r.log, target, t.Len(), r.batchSize,
		func(ctx context.Context, batch, lo, hi int) (int64, error) {
			rows := make([][]any, 0, hi-lo)
			for _, rec := range t.Records[lo:hi] {
				rows = append(rows, dataset.Project(rec, cols))
			}
			inserted, err := tx.InsertRows(ctx, target, cols, rows)
			if err != nil {
				return 0, &storage.LoadError{Target: target, Batch: batch, Err: err}
			}
			metrics.RecordBatches(SinkRelational, 1)
			return inserted, nil
		})
	if err != nil {
		return 0, asLoadError(target, 0, err)
	}
	if err = tx.Commit(ctx); err != nil {
		return 0, asLoadError(target, 0, fmt.Errorf("commit: %w", err))
	}
	metrics.RecordRows(SinkRelational, target, "inserted", total)
	return total, nil
}

func ignoredColumns(cols []string, def ddl.TableDef) []string {
	var out []string
	for _, c := range cols {
		if cd, ok := def.Column(c); !ok || cd.Serial {
			out = append(out, c)
		}
	}
	return out
}

// LoadAll inserts the catalog plan in order, movies first.
func (r *Relational) LoadAll(ctx context.Context, set dataset.Set) (Result, error) {
	return loadPlan(ctx, r.log, SinkRelational, set, r.cat.Plan, r.InsertDataset)
}

// IndexReport summarizes an index pass.
type IndexReport struct {
	Created  int
	Degraded []*storage.IndexError
}

// CreateIndexes builds the catalog indexes after the data is loaded.
// Required extensions are installed first. Each statement runs isolated, so
// one failure only skips that index (or, for an extension, the indexes that
// need it); those are returned as degraded IndexErrors. Failing to begin or
// commit the transaction is fatal.
func (r *Relational) CreateIndexes(ctx context.Context) (rep IndexReport, err error) {
	d := r.sess.Dialect()
	tx, err := r.sess.Begin(ctx)
	if err != nil {
		return rep, fmt.Errorf("create indexes: begin: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				r.log.Warn("rollback failed", "err", rbErr)
			}
		}
	}()

	degrade := func(ix ddl.IndexDef, cause error) {
		ie := &storage.IndexError{Index: ix.Name, Table: ix.Table, Severity: storage.SeverityDegraded, Err: cause}
		rep.Degraded = append(rep.Degraded, ie)
		status := "failed"
		if errors.Is(cause, storage.ErrUnsupported) {
			status = "skipped"
		}
		metrics.RecordIndex(SinkRelational, status)
		r.log.Warn("index skipped", "index", ix.Name, "table", ix.Table, "err", cause)
	}

	missing := map[string]error{}
	for _, ext := range r.cat.Extensions() {
		s, err := d.CreateExtension(ext)
		if err == nil {
			err = tx.ExecIsolated(ctx, s)
		}
		if err != nil {
			missing[ext] = err
			r.log.Warn("extension unavailable", "extension", ext, "err", err)
		}
	}

	for _, ix := range r.cat.Indexes {
		if err = ctx.Err(); err != nil {
			return rep, err
		}
		if cause, ok := missing[ix.Extension]; ok {
			degrade(ix, fmt.Errorf("extension %s: %w", ix.Extension, cause))
			continue
		}
		s, buildErr := d.CreateIndex(ix)
		if buildErr == nil {
			buildErr = tx.ExecIsolated(ctx, s)
		}
		if buildErr != nil {
			degrade(ix, buildErr)
			continue
		}
		rep.Created++
		metrics.RecordIndex(SinkRelational, "created")
	}

	if err = tx.Commit(ctx); err != nil {
		return rep, fmt.Errorf("create indexes: commit: %w", err)
	}
	r.log.Info("indexes created", "created", rep.Created, "skipped", len(rep.Degraded))
	return rep, nil
}

// Close releases the session. Errors are logged and returned.
func (r *Relational) Close() error {
	if err := r.sess.Close(); err != nil {
		r.log.Warn("close session", "err", err)
		return err
	}
	return nil
}
