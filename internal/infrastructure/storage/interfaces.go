package storage

import "errors"

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// DefaultListLimit applies when ListRuns is called with a non-positive limit.
const DefaultListLimit = 50

// Repository defines the run history storage interface.
// This interface allows swapping implementations and makes testing with
// mocks straightforward.
type Repository interface {
	// SaveRun inserts or replaces a run
	SaveRun(run *Run) error

	// GetRun retrieves a run, including its result table, by ID
	GetRun(id string) (*Run, error)

	// ListRuns returns the most recent runs first, without result tables
	ListRuns(limit int) ([]*Run, error)

	Close() error
}
