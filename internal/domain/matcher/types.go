package matcher

import (
	"github.com/shopspring/decimal"
)

// Config holds matcher configuration
type Config struct {
	// AmountTolerance is an exclusive bound: amounts match when
	// |a - b| < AmountTolerance. Default: 0.01
	AmountTolerance decimal.Decimal
	// Parallel runs the two directional passes concurrently
	Parallel bool
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		AmountTolerance: decimal.New(1, -2),
		Parallel:        true,
	}
}

// Result holds the directional match counts for one reconciliation run.
// HubCounts[i] is the number of sales records matching hub record i;
// SalesCounts[j] is the number of hub records matching sales record j.
type Result struct {
	HubCounts   []int
	SalesCounts []int
	HubIndex    *Index
	SalesIndex  *Index
}
