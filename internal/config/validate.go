package config

import (
	"errors"
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding that should be surfaced but does not
	// block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path names the environment variable at fault (e.g. "POSTGRES_HOST").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ErrInvalid is wrapped by Issues.Err when at least one error is present.
var ErrInvalid = errors.New("invalid configuration")

// Issues is the result of Validate.
type Issues []Issue

// HasErrors reports whether any issue has SeverityError.
func (is Issues) HasErrors() bool {
	for _, i := range is {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Err folds every SeverityError into one error, or returns nil.
func (is Issues) Err() error {
	var paths []string
	for _, i := range is {
		if i.Severity == SeverityError {
			paths = append(paths, i.Path)
		}
	}
	if len(paths) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(paths, ", "))
}

// Validate performs static checks over c. It does not mutate c and reports
// every finding at once, so a user fixing a .env file sees all missing values
// in one go.
func (c Config) Validate() Issues {
	var issues Issues

	if strings.TrimSpace(c.DataDir) == "" {
		issues = append(issues, Issue{SeverityError, "MOVIELOAD_DATA_DIR", "data directory must not be empty"})
	}

	switch c.RelationalKind {
	case "postgres":
		issues = append(issues, validatePostgres(c.Postgres)...)
	case "sqlite":
		if strings.TrimSpace(c.SQLitePath) == "" {
			issues = append(issues, Issue{SeverityError, "SQLITE_PATH", "sqlite sink requires a database path"})
		}
		issues = append(issues, Issue{SeverityWarning, "RELATIONAL_KIND", "sqlite sink has no trigram support; title suggestion index will be skipped"})
	default:
		issues = append(issues, Issue{SeverityError, "RELATIONAL_KIND", fmt.Sprintf("unknown relational kind %q (want postgres or sqlite)", c.RelationalKind)})
	}
	if c.Postgres.BatchSize <= 0 {
		issues = append(issues, Issue{SeverityError, "POSTGRES_BATCH_SIZE", "batch size must be > 0"})
	}

	issues = append(issues, validateMongo(c.Mongo)...)

	switch c.Metrics.Backend {
	case "", "none":
	case "pushgateway":
		if c.Metrics.PushgatewayURL == "" {
			issues = append(issues, Issue{SeverityError, "PUSHGATEWAY_URL", "pushgateway backend requires a URL"})
		}
	case "datadog":
		if c.Metrics.DatadogAddr == "" {
			issues = append(issues, Issue{SeverityError, "DATADOG_ADDR", "datadog backend requires an agent address"})
		}
	default:
		issues = append(issues, Issue{SeverityWarning, "METRICS_BACKEND", fmt.Sprintf("unknown metrics backend %q; metrics disabled", c.Metrics.Backend)})
	}

	return issues
}

func validatePostgres(p Postgres) []Issue {
	var issues []Issue
	required := []struct{ path, val string }{
		{"POSTGRES_HOST", p.Host},
		{"POSTGRES_DB", p.Database},
		{"POSTGRES_USER", p.User},
		{"POSTGRES_PASSWORD", p.Password},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			issues = append(issues, Issue{SeverityError, r.path, "must be set"})
		}
	}
	if p.Port <= 0 || p.Port > 65535 {
		issues = append(issues, Issue{SeverityError, "POSTGRES_PORT", fmt.Sprintf("invalid port %d", p.Port)})
	}
	if p.ConnectTimeout <= 0 {
		issues = append(issues, Issue{SeverityWarning, "POSTGRES_CONNECT_TIMEOUT", "no connect timeout; a dead host will hang the run"})
	}
	return issues
}

func validateMongo(m Mongo) []Issue {
	var issues []Issue
	if strings.TrimSpace(m.Host) == "" {
		issues = append(issues, Issue{SeverityError, "MONGO_HOST", "must be set"})
	}
	if strings.TrimSpace(m.Database) == "" {
		issues = append(issues, Issue{SeverityError, "MONGO_DB", "must be set"})
	}
	if m.Port <= 0 || m.Port > 65535 {
		issues = append(issues, Issue{SeverityError, "MONGO_PORT", fmt.Sprintf("invalid port %d", m.Port)})
	}
	if m.BatchSize <= 0 {
		issues = append(issues, Issue{SeverityError, "MONGO_BATCH_SIZE", "batch size must be > 0"})
	}
	if (m.User == "") != (m.Password == "") {
		issues = append(issues, Issue{SeverityWarning, "MONGO_USER", "only one of MONGO_USER / MONGO_PASSWORD is set"})
	}

	names := map[string]string{
		"MONGO_REVIEWS_COLLECTION":  m.ReviewsCollection,
		"MONGO_AWARDS_COLLECTION":   m.AwardsCollection,
		"MONGO_MESSAGES_COLLECTION": m.MessagesCollection,
	}
	seen := map[string]string{}
	for _, path := range []string{"MONGO_REVIEWS_COLLECTION", "MONGO_AWARDS_COLLECTION", "MONGO_MESSAGES_COLLECTION"} {
		name := names[path]
		if strings.TrimSpace(name) == "" {
			issues = append(issues, Issue{SeverityError, path, "collection name must not be empty"})
			continue
		}
		if other, dup := seen[name]; dup {
			issues = append(issues, Issue{SeverityError, path, fmt.Sprintf("collection %q already used by %s", name, other)})
		}
		seen[name] = path
	}
	return issues
}
