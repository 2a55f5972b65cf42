package reconcile

import (
	"errors"
	"fmt"

	"github.com/eshaffer321/settlement-recon/internal/domain/aggregator"
	"github.com/eshaffer321/settlement-recon/internal/domain/matcher"
	"github.com/eshaffer321/settlement-recon/internal/domain/normalizer"
	"github.com/eshaffer321/settlement-recon/internal/domain/reconciler"
	"github.com/eshaffer321/settlement-recon/internal/domain/table"
)

// DefaultMaxRows bounds each dataset; matching cost grows with H×S.
const DefaultMaxRows = 5000

// Config holds engine configuration
type Config struct {
	// MaxRows is the per-dataset row limit (0 = unlimited)
	MaxRows    int
	Normalizer normalizer.Config
	Matcher    matcher.Config
	Categories aggregator.Config
}

// DefaultConfig returns the reference configuration
func DefaultConfig() Config {
	return Config{
		MaxRows:    DefaultMaxRows,
		Normalizer: normalizer.DefaultConfig(),
		Matcher:    matcher.DefaultConfig(),
		Categories: aggregator.DefaultConfig(),
	}
}

// ErrTooManyRows is returned when a dataset exceeds the configured row limit.
var ErrTooManyRows = errors.New("dataset exceeds maximum row count")

// SizeError describes a dataset rejected for size before matching started.
type SizeError struct {
	Dataset normalizer.Origin
	Rows    int
	Limit   int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("%s dataset has %d rows, limit is %d", e.Dataset, e.Rows, e.Limit)
}

// Is makes errors.Is(err, ErrTooManyRows) true for a *SizeError.
func (e *SizeError) Is(target error) bool {
	return target == ErrTooManyRows
}

// Result holds the outcome of one reconciliation run
type Result struct {
	// Rows is the composed output table
	Rows []table.Row

	// Discrepancies are hub records without a confirmed counterpart, in hub order
	Discrepancies []reconciler.Discrepancy
	// SalesOrphans are sales records without a confirmed counterpart
	SalesOrphans []reconciler.Discrepancy

	Totals []aggregator.CategoryTotal
	Total  aggregator.CategoryTotal

	HubRecords     int
	SalesRecords   int
	ConfirmedCount int

	// SalesMatchingDisabled is set when required sales columns are missing
	SalesMatchingDisabled bool
	MissingSalesColumns   []normalizer.Field
}
