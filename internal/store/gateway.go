// Package store is the Store Gateway: two independent *sql.DB handles
// over the same analytical store, one exclusively for HTTP reads and
// one exclusively for the Flush Scheduler's writer tick, per spec.md
// §4.4/§9. Grounded on internal/common/db/connection.go's wrapper shape
// and tidbyt-gtfs/storage/storage.go's reader/writer split.
package store

import (
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/transitfusion/gtfsrealtime/internal/logging"
)

// Gateway owns the reader and writer connections and the SQL builder
// configured for the active backend's placeholder style.
type Gateway struct {
	Reader *sql.DB
	Writer *sql.DB
	sb     sq.StatementBuilderType
	log    logging.Logger
}

// Open establishes the reader and writer connections. dsn and writerDSN
// may be identical (the common embedded-file case) or distinct (e.g. a
// shared Postgres instance with separate connection-pool tuning).
func Open(dsn, writerDSN string, log logging.Logger) (*Gateway, error) {
	if writerDSN == "" {
		writerDSN = dsn
	}

	driver, readDSN := driverFor(dsn)
	_, writeDSN := driverFor(writerDSN)

	reader, err := sql.Open(driver, readDSN)
	if err != nil {
		return nil, fmt.Errorf("open reader connection: %w", err)
	}
	writer, err := sql.Open(driver, writeDSN)
	if err != nil {
		reader.Close()
		return nil, fmt.Errorf("open writer connection: %w", err)
	}

	if _, err := writer.Exec(bootstrapDDL); err != nil {
		reader.Close()
		writer.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}

	sb := sq.StatementBuilder.PlaceholderFormat(sq.Question)
	if driver == "postgres" {
		sb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}

	return &Gateway{Reader: reader, Writer: writer, sb: sb, log: log}, nil
}

// Close releases both connections. Order does not matter; neither is
// shared with an in-flight actor by the time Close is called.
func (g *Gateway) Close() error {
	readErr := g.Reader.Close()
	writeErr := g.Writer.Close()
	if readErr != nil {
		return readErr
	}
	return writeErr
}

func driverFor(dsn string) (driver, cleanedDSN string) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn
	case strings.HasPrefix(dsn, "sqlite:"):
		return "sqlite", strings.TrimPrefix(dsn, "sqlite:")
	default:
		return "sqlite", dsn
	}
}
