package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/calm-violet-crane/aiops-analyzer/internal/models"
)

// maxWindowEvents caps the number of events fetched per run.
const maxWindowEvents = 1000

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	// Addresses are the ClickHouse server addresses (host:port).
	Addresses []string

	// Database is the ClickHouse database name.
	Database string

	// Username for authentication.
	Username string

	// Password for authentication.
	Password string

	// Environment filters events to one deployment environment.
	Environment string

	// MaxOpenConns is the maximum number of open connections.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	MaxIdleConns int

	// DialTimeout is the connection timeout.
	DialTimeout time.Duration

	// Compression enables LZ4 compression.
	Compression bool
}

// ClickHouseSource implements LogSource against a ClickHouse table of
// shipped log events.
type ClickHouseSource struct {
	config *ClickHouseConfig
	db     *sql.DB
}

// NewClickHouseSource creates a new ClickHouse log source.
func NewClickHouseSource(config *ClickHouseConfig) *ClickHouseSource {
	// Apply defaults
	if config.MaxOpenConns == 0 {
		config.MaxOpenConns = 5
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 5
	}
	if config.DialTimeout == 0 {
		config.DialTimeout = 5 * time.Second
	}
	if config.Environment == "" {
		config.Environment = "staging"
	}

	return &ClickHouseSource{config: config}
}

// Open initializes the ClickHouse connection.
func (s *ClickHouseSource) Open() error {
	opts := &clickhouse.Options{
		Addr: s.config.Addresses,
		Auth: clickhouse.Auth{
			Database: s.config.Database,
			Username: s.config.Username,
			Password: s.config.Password,
		},
		DialTimeout:  s.config.DialTimeout,
		MaxOpenConns: s.config.MaxOpenConns,
		MaxIdleConns: s.config.MaxIdleConns,
	}

	if s.config.Compression {
		opts.Compression = &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		}
	}

	// The connection is lazy; keep the handle even when the initial
	// ping fails so the store can come up after us.
	s.db = clickhouse.OpenDB(opts)

	ctx, cancel := context.WithTimeout(context.Background(), s.config.DialTimeout)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping clickhouse: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *ClickHouseSource) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks the connection health.
func (s *ClickHouseSource) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the log_events table if it doesn't exist. The shipper
// side owns the schema in production; this keeps dev setups working.
func (s *ClickHouseSource) Migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	createTable := `
		CREATE TABLE IF NOT EXISTS log_events (
			timestamp DateTime64(3, 'UTC'),
			service LowCardinality(String),
			level LowCardinality(String),
			message String,
			tags Array(String),
			fields String,
			environment LowCardinality(String),
			_date Date DEFAULT toDate(timestamp)
		)
		ENGINE = MergeTree()
		PARTITION BY toYYYYMM(_date)
		ORDER BY (environment, service, timestamp)
		SETTINGS index_granularity = 8192
	`

	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("create log_events table: %w", err)
	}

	return nil
}

// FetchWindow returns the environment's events of the last window
// duration, newest first, capped at 1000 rows.
func (s *ClickHouseSource) FetchWindow(ctx context.Context, window time.Duration) ([]models.LogEvent, error) {
	query := `
		SELECT timestamp, service, level, message, tags, fields
		FROM log_events
		WHERE environment = ?
		  AND timestamp >= now64(3) - INTERVAL ? SECOND
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, s.config.Environment, int64(window.Seconds()), maxWindowEvents)
	if err != nil {
		return nil, fmt.Errorf("%w: query log_events: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var events []models.LogEvent
	for rows.Next() {
		var ev models.LogEvent
		var level, fieldsJSON string

		if err := rows.Scan(&ev.Timestamp, &ev.Service, &level, &ev.Message, &ev.Tags, &fieldsJSON); err != nil {
			return nil, fmt.Errorf("%w: scan log event: %v", ErrUnavailable, err)
		}

		ev.Level = models.ParseLogLevel(level)
		if fieldsJSON != "" {
			// Malformed field blobs degrade to an event without
			// structured fields; detectors skip what they can't parse.
			json.Unmarshal([]byte(fieldsJSON), &ev.Fields)
		}

		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %v", ErrUnavailable, err)
	}

	return events, nil
}
