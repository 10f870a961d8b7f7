// Package config defines the configuration value object consumed by the
// movie load. A Config is built once at startup (from the process
// environment, optionally seeded from a .env file) and then passed
// explicitly to every loader constructor; nothing below cmd/ reads the
// environment on its own.
//
// Recognized options:
//
//	POSTGRES_HOST, POSTGRES_PORT, POSTGRES_DB, POSTGRES_USER, POSTGRES_PASSWORD
//	POSTGRES_BATCH_SIZE, POSTGRES_CONNECT_TIMEOUT, POSTGRES_SSLMODE
//	MONGO_HOST, MONGO_PORT, MONGO_DB, MONGO_USER, MONGO_PASSWORD
//	MONGO_BATCH_SIZE, MONGO_SERVER_SELECTION_TIMEOUT
//	MONGO_REVIEWS_COLLECTION, MONGO_AWARDS_COLLECTION, MONGO_MESSAGES_COLLECTION
//	RELATIONAL_KIND (postgres|sqlite), SQLITE_PATH
//	MOVIELOAD_DATA_DIR, LOAD_PARALLEL, LOG_MODE
//	METRICS_BACKEND (none|pushgateway|datadog), PUSHGATEWAY_URL, DATADOG_ADDR
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultBatchSize is shared by both sinks.
const DefaultBatchSize = 1000

// Config is the complete set of options for one run.
type Config struct {
	// DataDir is the directory holding the CSV extracts.
	DataDir string `env:"MOVIELOAD_DATA_DIR" envDefault:"./data"`

	// RelationalKind selects the structured sink backend.
	RelationalKind string `env:"RELATIONAL_KIND" envDefault:"postgres"`

	// SQLitePath is used when RelationalKind is "sqlite".
	SQLitePath string `env:"SQLITE_PATH" envDefault:"movieload.db"`

	// Parallel loads both sinks concurrently once the data is prepared.
	Parallel bool `env:"LOAD_PARALLEL" envDefault:"false"`

	// LogMode is "development" or "production".
	LogMode string `env:"LOG_MODE" envDefault:"development"`

	Postgres Postgres `envPrefix:"POSTGRES_"`
	Mongo    Mongo    `envPrefix:"MONGO_"`
	Metrics  Metrics
}

// Postgres configures the structured sink.
type Postgres struct {
	Host           string        `env:"HOST"`
	Port           int           `env:"PORT" envDefault:"5432"`
	Database       string        `env:"DB"`
	User           string        `env:"USER"`
	Password       string        `env:"PASSWORD"`
	SSLMode        string        `env:"SSLMODE" envDefault:"disable"`
	BatchSize      int           `env:"BATCH_SIZE" envDefault:"1000"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
}

// DSN renders a postgres:// URL suitable for pgxpool.
func (p Postgres) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(p.User, p.Password),
		Host:   net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:   "/" + p.Database,
	}
	q := url.Values{}
	if p.SSLMode != "" {
		q.Set("sslmode", p.SSLMode)
	}
	if p.ConnectTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(p.ConnectTimeout.Seconds())))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Mongo configures the document sink.
type Mongo struct {
	Host                   string        `env:"HOST"`
	Port                   int           `env:"PORT" envDefault:"27017"`
	Database               string        `env:"DB"`
	User                   string        `env:"USER"`
	Password               string        `env:"PASSWORD"`
	BatchSize              int           `env:"BATCH_SIZE" envDefault:"1000"`
	ServerSelectionTimeout time.Duration `env:"SERVER_SELECTION_TIMEOUT" envDefault:"5s"`

	ReviewsCollection  string `env:"REVIEWS_COLLECTION" envDefault:"reviews"`
	AwardsCollection   string `env:"AWARDS_COLLECTION" envDefault:"oscar_awards"`
	MessagesCollection string `env:"MESSAGES_COLLECTION" envDefault:"messages"`
}

// URI renders a mongodb:// connection string.
func (m Mongo) URI() string {
	u := url.URL{
		Scheme: "mongodb",
		Host:   net.JoinHostPort(m.Host, strconv.Itoa(m.Port)),
		Path:   "/",
	}
	if m.User != "" {
		u.User = url.UserPassword(m.User, m.Password)
	}
	return u.String()
}

// Metrics selects the metrics backend.
type Metrics struct {
	Backend        string `env:"METRICS_BACKEND" envDefault:"none"`
	PushgatewayURL string `env:"PUSHGATEWAY_URL" envDefault:"http://localhost:9091"`
	DatadogAddr    string `env:"DATADOG_ADDR" envDefault:"127.0.0.1:8125"`
	Job            string `env:"METRICS_JOB" envDefault:"movieload"`
}

// Load reads an optional dotenv file and parses the environment into a
// Config. A missing dotenv file is not an error; a malformed one is.
// Load does not validate; call Validate on the result.
func Load(dotenv string) (Config, error) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", dotenv, err)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	return cfg, nil
}
