package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/creditline/internal/model"
)

// FileName is the catalog database file name inside the catalog directory.
const FileName = "creditline.db"

// Catalog provides SQLite-based storage for copyright records.
type Catalog struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Catalog behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a Catalog in the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*Catalog, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("catalog not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check catalog path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	c := &Catalog{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := c.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return c, nil
}

// Path returns the database file path.
func (c *Catalog) Path() string {
	return c.dbPath
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (c *Catalog) createTables() error {
	schema := `
	-- Records hold one copyright record per image identifier
	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL DEFAULT '',
		copyright TEXT NOT NULL DEFAULT '',
		license TEXT NOT NULL DEFAULT '',
		year TEXT NOT NULL DEFAULT '',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Imports log every table written into the catalog
	CREATE TABLE IF NOT EXISTS imports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		origin TEXT NOT NULL,
		count INTEGER NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_imports_timestamp ON imports(timestamp);
	`

	_, err := c.db.ExecContext(context.Background(), schema)
	return err
}

// Entry is a stored record with its identifier and modification time.
type Entry struct {
	ID        string
	Record    model.CopyrightRecord
	UpdatedAt time.Time
}

// ImportRecord is one row of the import log.
type ImportRecord struct {
	ID        int64
	Origin    string
	Count     int
	Timestamp time.Time
}

// execer is the part of *sql.DB and *sql.Tx used by upsert.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// upsertQuery inserts a record or replaces every field of an existing one.
const upsertQuery = `
	INSERT INTO records (id, source, copyright, license, year)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		source = excluded.source,
		copyright = excluded.copyright,
		license = excluded.license,
		year = excluded.year,
		updated_at = CURRENT_TIMESTAMP
	`

// upsert writes rec under id using e.
func upsert(ctx context.Context, e execer, id string, rec model.CopyrightRecord) error {
	_, err := e.ExecContext(ctx, upsertQuery, id, rec.Source, rec.Copyright, rec.License, rec.Year)
	return err
}

// UpsertRecord inserts or replaces the record for id.
func (c *Catalog) UpsertRecord(ctx context.Context, id string, rec model.CopyrightRecord) error {
	if err := upsert(ctx, c.db, id, rec); err != nil {
		return fmt.Errorf("failed to upsert record %s: %w", id, err)
	}
	return nil
}

// GetRecord retrieves the record for id. It returns nil and no error when
// the catalog has no such record.
func (c *Catalog) GetRecord(ctx context.Context, id string) (*Entry, error) {
	query := `
	SELECT id, source, copyright, license, year, updated_at
	FROM records
	WHERE id = ?
	`

	var e Entry
	var updatedAt string
	err := c.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID,
		&e.Record.Source,
		&e.Record.Copyright,
		&e.Record.License,
		&e.Record.Year,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s: %w", id, err)
	}
	e.UpdatedAt = parseTimestamp(updatedAt)

	return &e, nil
}

// DeleteRecord removes the record for id and reports whether it existed.
func (c *Catalog) DeleteRecord(ctx context.Context, id string) (bool, error) {
	result, err := c.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete record %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete record %s: %w", id, err)
	}
	return n > 0, nil
}

// ListRecords returns every record ordered by identifier.
func (c *Catalog) ListRecords(ctx context.Context) ([]Entry, error) {
	query := `
	SELECT id, source, copyright, license, year, updated_at
	FROM records
	ORDER BY id
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var updatedAt string
		if err := rows.Scan(
			&e.ID,
			&e.Record.Source,
			&e.Record.Copyright,
			&e.Record.License,
			&e.Record.Year,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		e.UpdatedAt = parseTimestamp(updatedAt)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Table returns the whole catalog as a metadata table.
func (c *Catalog) Table(ctx context.Context) (model.Table, error) {
	entries, err := c.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	t := make(model.Table, len(entries))
	for _, e := range entries {
		t[e.ID] = e.Record
	}
	return t, nil
}

// ImportTable writes every record of t and logs the import under origin, in
// one transaction. It returns the number of records written.
func (c *Catalog) ImportTable(ctx context.Context, t model.Table, origin string) (int, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range t.IDs() {
		if err := upsert(ctx, tx, id, t[id]); err != nil {
			return 0, fmt.Errorf("failed to import record %s: %w", id, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO imports (origin, count) VALUES (?, ?)`, origin, len(t),
	); err != nil {
		return 0, fmt.Errorf("failed to log import: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	return len(t), nil
}

// ListImports returns the import log, newest first.
func (c *Catalog) ListImports(ctx context.Context) ([]ImportRecord, error) {
	query := `
	SELECT id, origin, count, timestamp
	FROM imports
	ORDER BY id DESC
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list imports: %w", err)
	}
	defer rows.Close()

	var imports []ImportRecord
	for rows.Next() {
		var r ImportRecord
		var timestamp string
		if err := rows.Scan(&r.ID, &r.Origin, &r.Count, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan import: %w", err)
		}
		r.Timestamp = parseTimestamp(timestamp)
		imports = append(imports, r)
	}

	return imports, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses a timestamp in any of timestampFormats.
// It returns the zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
