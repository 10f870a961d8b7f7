package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movieload/internal/config"
	"movieload/internal/dataset"
	csvsource "movieload/internal/source/csv"
	"movieload/internal/storage/sqlite"
)

// Tests in this file use t.Setenv and therefore cannot run in parallel.

func setSinkEnv(t *testing.T) {
	t.Helper()
	t.Setenv("POSTGRES_HOST", "db.local")
	t.Setenv("POSTGRES_DB", "films")
	t.Setenv("POSTGRES_USER", "loader")
	t.Setenv("POSTGRES_PASSWORD", "s3cret")
	t.Setenv("MONGO_HOST", "mongo.local")
	t.Setenv("MONGO_DB", "films")
	t.Setenv("METRICS_BACKEND", "none")
	t.Setenv("LOG_MODE", "production")
}

// writeInputs writes one small CSV per required dataset into a temp dir.
func writeInputs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		dataset.Movies:  "id,name,date,description\n1,The Matrix,1999.0,Neo wakes up.\n2,Alpha,soon,\n",
		dataset.Reviews: "movie_title,review_score\nMatrix (1999),B\nNowhere (2001),7/10\n,A\n",
		dataset.Awards:  "film,category,winner\nAlpha,Best Picture,True\n",
	}
	for _, name := range dataset.Required {
		body, ok := files[name]
		if !ok {
			body = "id,name\n1,x\n"
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".csv"), []byte(body), 0o600))
	}
	return dir
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--env", filepath.Join(t.TempDir(), "none.env")}, args...))
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestValidate_OK(t *testing.T) {
	setSinkEnv(t)
	dir := writeInputs(t)

	out, _, err := execute(t, "validate", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "are valid")
}

func TestValidate_MissingInputs(t *testing.T) {
	setSinkEnv(t)
	dir := writeInputs(t)
	require.NoError(t, os.Remove(filepath.Join(dir, dataset.Posters+".csv")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, dataset.Themes+".csv"), nil, 0o600))

	_, errOut, err := execute(t, "validate", dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, csvsource.ErrMissingInput), "err = %v", err)
	assert.Contains(t, errOut, "missing: posters.csv")
	assert.Contains(t, errOut, "empty: themes.csv")
}

func TestValidate_ConfigIssuesPrinted(t *testing.T) {
	setSinkEnv(t)
	t.Setenv("POSTGRES_PASSWORD", "")
	t.Setenv("MONGO_USER", "only-user")
	dir := writeInputs(t)

	_, errOut, err := execute(t, "validate", dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrInvalid), "err = %v", err)
	assert.Contains(t, errOut, "error: POSTGRES_PASSWORD: must be set")
	assert.Contains(t, errOut, "warning: MONGO_USER:")
}

func TestClean_PrintsSummaryWithoutSinks(t *testing.T) {
	// Unreachable sinks prove clean never dials them.
	setSinkEnv(t)
	t.Setenv("POSTGRES_HOST", "127.0.0.1")
	t.Setenv("POSTGRES_PORT", "1")
	dir := writeInputs(t)

	out, _, err := execute(t, "clean", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "DATASET")
	assert.Contains(t, out, dataset.Movies)
	assert.Contains(t, out, "review scores missing: 0, descriptions cleared: 0, invalid dates: 1")
	assert.Contains(t, out, dataset.Reviews+": matched 1, unmatched 1, dropped 1")
	assert.Contains(t, out, dataset.Awards+": matched 1, unmatched 0, dropped 0")
}

func TestClean_MissingDataDir(t *testing.T) {
	setSinkEnv(t)

	_, _, err := execute(t, "clean", filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data directory")
}

func TestLoad_InvalidConfigStopsBeforeReading(t *testing.T) {
	setSinkEnv(t)
	t.Setenv("RELATIONAL_KIND", "oracle")

	_, errOut, err := execute(t, "load", filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrInvalid), "err = %v", err)
	assert.Contains(t, errOut, "RELATIONAL_KIND")
}

func TestUnknownCommand(t *testing.T) {
	_, _, err := execute(t, "frobnicate")
	require.Error(t, err)
}

func TestRelationalConfig(t *testing.T) {
	base := config.Config{
		SQLitePath: "films.db",
		Postgres:   config.Postgres{Host: "h", Port: 5432, Database: "d", User: "u", Password: "p"},
	}

	tests := []struct {
		name    string
		kind    string
		wantDSN string
		wantErr bool
	}{
		{name: "postgres", kind: "postgres", wantDSN: "postgres://u:p@h:5432/d"},
		{name: "sqlite", kind: sqlite.Kind, wantDSN: "films.db"},
		{name: "unknown", kind: "oracle", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			cfg.RelationalKind = tt.kind
			sc, err := relationalConfig(cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, sc.Kind)
			assert.True(t, strings.HasPrefix(sc.DSN, tt.wantDSN), "DSN = %q", sc.DSN)
		})
	}
}
