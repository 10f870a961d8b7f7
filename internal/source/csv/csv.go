// Package csv reads the movie catalog extracts from a directory of CSV files
// into dataset tables. Each file becomes one dataset named after its stem
// (movies.csv -> "movies").
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"movieload/internal/dataset"
	"movieload/internal/logger"
)

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// ErrMissingInput is wrapped by *InputError when required files are absent
// or empty.
var ErrMissingInput = errors.New("missing input files")

// InputError lists every required file that is absent or zero bytes long.
type InputError struct {
	Dir     string
	Missing []string
	Empty   []string
}

func (e *InputError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Empty) > 0 {
		parts = append(parts, "empty: "+strings.Join(e.Empty, ", "))
	}
	return fmt.Sprintf("%s in %s (%s)", ErrMissingInput, e.Dir, strings.Join(parts, "; "))
}

func (e *InputError) Unwrap() error { return ErrMissingInput }

// Options configures parsing. Zero values give the defaults used for the
// catalog extracts.
type Options struct {
	// Comma is the field delimiter; ',' when zero.
	Comma rune
	// TrimSpace trims leading/trailing spaces from every cell.
	TrimSpace bool
	// SkipLogLimit caps how many skipped rows are logged individually.
	SkipLogLimit int
	// Workers bounds how many files are parsed concurrently; 4 when zero.
	Workers int
}

// Reader loads CSV files into dataset tables.
type Reader struct {
	opt Options
	log *logger.Logger
}

// NewReader returns a Reader using log for skip and progress messages.
func NewReader(opt Options, log *logger.Logger) *Reader {
	if opt.SkipLogLimit <= 0 {
		opt.SkipLogLimit = 50
	}
	if opt.Workers <= 0 {
		opt.Workers = 4
	}
	return &Reader{opt: opt, log: log}
}

// CheckInputs verifies that every required dataset has a non-empty
// <name>.csv file in dir. All offenders are reported in one *InputError.
func CheckInputs(dir string, required []string) error {
	st, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("data directory %s: %w", dir, err)
	}
	if !st.IsDir() {
		return fmt.Errorf("data directory %s: not a directory", dir)
	}

	ie := &InputError{Dir: dir}
	for _, name := range required {
		fi, err := os.Stat(filepath.Join(dir, name+".csv"))
		switch {
		case errors.Is(err, os.ErrNotExist):
			ie.Missing = append(ie.Missing, name+".csv")
		case err != nil:
			return fmt.Errorf("stat %s.csv: %w", name, err)
		case fi.Size() == 0:
			ie.Empty = append(ie.Empty, name+".csv")
		}
	}
	if len(ie.Missing) > 0 || len(ie.Empty) > 0 {
		return ie
	}
	return nil
}

// ReadDir checks the required inputs and then parses every *.csv file in dir.
// Files are parsed concurrently; the first failure cancels the rest.
func (r *Reader) ReadDir(ctx context.Context, dir string, required []string) (dataset.Set, error) {
	if err := CheckInputs(dir, required); err != nil {
		return nil, err
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("list csv files: %w", err)
	}
	sort.Strings(paths)

	tables := make([]*dataset.Table, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opt.Workers)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t, err := r.ReadFile(p)
			if err != nil {
				return err
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	set := make(dataset.Set, len(tables))
	for _, t := range tables {
		set[t.Name] = t
		r.log.Info("csv loaded", "dataset", t.Name, "rows", t.Len(), "columns", len(t.Columns))
	}
	return set, nil
}

// ReadFile parses a single CSV file into a table named after the file stem.
func (r *Reader) ReadFile(path string) (*dataset.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	t, skipped, err := r.Parse(f, name)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if skipped > 0 {
		r.log.Warn("csv rows skipped", "dataset", name, "skipped", skipped)
	}
	return t, nil
}

// Parse consumes CSV records from rd and returns the table plus the number of
// rows skipped because they could not be read or had the wrong width. Empty
// cells become nil. The header row is required.
func (r *Reader) Parse(rd io.Reader, name string) (*dataset.Table, int, error) {
	cr := csv.NewReader(rd)
	if r.opt.Comma != 0 {
		cr.Comma = r.opt.Comma
	}
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	h, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read csv header: %w", err)
	}
	headers := normalizeHeaders(h)
	t := dataset.NewTable(name, headers...)

	var skipped int
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if skipped < r.opt.SkipLogLimit {
				r.log.Debug("skipping row", "dataset", name, "line", line, "err", err)
			}
			skipped++
			continue
		}
		if len(row) != len(headers) {
			if skipped < r.opt.SkipLogLimit {
				r.log.Debug("skipping row: incorrect number of fields",
					"dataset", name, "line", line, "expected", len(headers), "got", len(row))
			}
			skipped++
			continue
		}

		rec := make(dataset.Record, len(row))
		for i, val := range row {
			if r.opt.TrimSpace {
				val = strings.TrimSpace(val)
			}
			rec[headers[i]] = emptyToNil(val)
		}
		t.Records = append(t.Records, rec)
	}
	return t, skipped, nil
}

// emptyToNil converts an empty string to nil; all other values are returned as-is.
func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// normalizeHeaders lowercases headers, maps spaces to underscores and strips
// a BOM from the first cell. Blank headers become "unnamed_N" and duplicates
// get a ".N" suffix so every column key is unique.
func normalizeHeaders(h []string) []string {
	res := make([]string, len(h))
	seen := make(map[string]int, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		c = strings.ReplaceAll(strings.ToLower(c), " ", "_")
		if c == "" {
			c = "unnamed_" + strconv.Itoa(i)
		}
		if n, dup := seen[c]; dup {
			seen[c] = n + 1
			c = c + "." + strconv.Itoa(n+1)
		} else {
			seen[c] = 0
		}
		res[i] = c
	}
	return res
}
