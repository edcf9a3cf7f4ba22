package blocklist

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLFeed is an operator-maintained blocklist stored in SQLite or MySQL
type SQLFeed struct {
	db     *sql.DB
	driver string
	logger *zap.Logger
}

// NewSQLFeed opens the blocklist database and creates its table if needed.
// driver is "sqlite3" or "mysql".
func NewSQLFeed(driver, dsn string, logger *zap.Logger) (*SQLFeed, error) {
	var schema string
	switch driver {
	case "sqlite3":
		schema = `
			CREATE TABLE IF NOT EXISTS phishing_blocklist (
				entry TEXT PRIMARY KEY,
				source TEXT NOT NULL,
				added_at TIMESTAMP NOT NULL
			)
		`
	case "mysql":
		schema = `
			CREATE TABLE IF NOT EXISTS phishing_blocklist (
				entry VARCHAR(512) PRIMARY KEY,
				source VARCHAR(128) NOT NULL,
				added_at TIMESTAMP NOT NULL
			)
		`
	default:
		return nil, fmt.Errorf("unsupported blocklist driver: %s", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == "sqlite3" {
		// SQLite allows a single writer; in-memory databases are per connection
		db.SetMaxOpenConns(1)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}

	// Create table if it doesn't exist
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLFeed{db: db, driver: driver, logger: logger}, nil
}

// Name identifies the feed in logs
func (f *SQLFeed) Name() string { return "sql" }

// Contains reports whether any stored entry occurs in url
func (f *SQLFeed) Contains(ctx context.Context, url string) (bool, error) {
	var one int
	err := f.db.QueryRowContext(ctx, `
		SELECT 1 FROM phishing_blocklist
		WHERE INSTR(?, entry) > 0
		LIMIT 1
	`, url).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query blocklist: %w", err)
	}
	return true, nil
}

// Add stores an entry; adding an existing entry is a no-op
func (f *SQLFeed) Add(ctx context.Context, entry, source string) error {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return fmt.Errorf("blocklist entry must not be empty")
	}
	if _, err := f.db.ExecContext(ctx, f.insertStatement(), entry, source, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to insert blocklist entry: %w", err)
	}
	return nil
}

// Import loads a feed with one entry per line and returns the number of lines read
func (f *SQLFeed) Import(ctx context.Context, r io.Reader, source string) (int, error) {
	entries, err := parseFeed(r)
	if err != nil {
		return 0, err
	}

	tx, err := f.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, f.insertStatement())
	if err != nil {
		return 0, fmt.Errorf("failed to prepare import: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, entry := range entries {
		if _, err := stmt.ExecContext(ctx, entry, source, now); err != nil {
			return 0, fmt.Errorf("failed to import entry %q: %w", entry, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}

	f.logger.Info("Blocklist imported", zap.String("source", source), zap.Int("entries", len(entries)))
	return len(entries), nil
}

// Count returns the number of stored entries
func (f *SQLFeed) Count(ctx context.Context) (int, error) {
	var n int
	if err := f.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM phishing_blocklist`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count blocklist: %w", err)
	}
	return n, nil
}

func (f *SQLFeed) insertStatement() string {
	if f.driver == "mysql" {
		return `INSERT IGNORE INTO phishing_blocklist (entry, source, added_at) VALUES (?, ?, ?)`
	}
	return `INSERT OR IGNORE INTO phishing_blocklist (entry, source, added_at) VALUES (?, ?, ?)`
}

// Stop closes the database connection
func (f *SQLFeed) Stop() {
	if err := f.db.Close(); err != nil {
		f.logger.Error("Failed to close blocklist database", zap.Error(err))
	}
}
