package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"github.com/eshaffer321/settlement-recon/internal/domain/table"
)

// Storage provides SQLite database access for reconciliation runs.
// It implements the Repository interface.
type Storage struct {
	db     *sql.DB
	logger *slog.Logger
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// SQLite allows one writer; a single connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Run all pending migrations
	if err := runMigrations(db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Storage{db: db, logger: logger}, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveRun saves a run and its result table
func (s *Storage) SaveRun(run *Run) error {
	rows := run.Rows
	if rows == nil {
		rows = []table.Row{}
	}
	resultJSON, err := encodeRows(rows)
	if err != nil {
		return fmt.Errorf("failed to encode result table: %w", err)
	}

	query := `
	INSERT OR REPLACE INTO reconciliation_runs
	(id, created_at, hub_name, sales_name, hub_rows, sales_rows,
	 confirmed_count, discrepancy_count, sales_orphan_count, category_count,
	 sales_matching_disabled, hub_total, sales_total, difference, result_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query,
		run.ID,
		run.CreatedAt.UTC(),
		run.HubName,
		run.SalesName,
		run.HubRows,
		run.SalesRows,
		run.ConfirmedCount,
		run.DiscrepancyCount,
		run.SalesOrphanCount,
		run.CategoryCount,
		run.SalesMatchingDisabled,
		run.HubTotal.StringFixed(2),
		run.SalesTotal.StringFixed(2),
		run.Difference.StringFixed(2),
		string(resultJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}

	s.logger.Debug("Saved run", "id", run.ID, "discrepancies", run.DiscrepancyCount)
	return nil
}

const runColumns = `id, created_at, hub_name, sales_name, hub_rows, sales_rows,
	       confirmed_count, discrepancy_count, sales_orphan_count, category_count,
	       sales_matching_disabled, hub_total, sales_total, difference`

// GetRun retrieves a run by ID
func (s *Storage) GetRun(id string) (*Run, error) {
	query := `SELECT ` + runColumns + `, result_json FROM reconciliation_runs WHERE id = ?`

	var resultJSON string
	run, err := scanRun(s.db.QueryRow(query, id), &resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if run.Rows, err = decodeRows([]byte(resultJSON)); err != nil {
		return nil, fmt.Errorf("failed to decode result table for run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns recent runs, newest first
func (s *Storage) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `SELECT ` + runColumns + ` FROM reconciliation_runs ORDER BY created_at DESC, id LIMIT ?`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	runs := make([]*Run, 0)
	for rows.Next() {
		run, err := scanRun(rows, nil)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRun reads runColumns, plus result_json when resultJSON is non-nil.
func scanRun(row rowScanner, resultJSON *string) (*Run, error) {
	run := &Run{}
	dest := []any{
		&run.ID,
		&run.CreatedAt,
		&run.HubName,
		&run.SalesName,
		&run.HubRows,
		&run.SalesRows,
		&run.ConfirmedCount,
		&run.DiscrepancyCount,
		&run.SalesOrphanCount,
		&run.CategoryCount,
		&run.SalesMatchingDisabled,
		&run.HubTotal,
		&run.SalesTotal,
		&run.Difference,
	}
	if resultJSON != nil {
		dest = append(dest, resultJSON)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return run, nil
}
