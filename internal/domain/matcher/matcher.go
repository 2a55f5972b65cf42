// Package matcher counts plausible counterparts between the hub and sales
// datasets.
//
// Two records match when all of the following hold:
//   - Their calendar days are equal (YYYY-MM-DD string equality)
//   - One label contains the other, case-insensitively
//   - Their net amounts differ by less than the tolerance (default 0.01)
//
// Matching is run in both directions so each record carries the number of
// candidates it found on the other side.
//
// Example usage:
//
//	m := matcher.NewMatcher(matcher.DefaultConfig())
//	result := m.Count(hub.Transactions, sales.Transactions)
//	candidates := result.HubCounts[0]
package matcher

import (
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/eshaffer321/settlement-recon/internal/domain/normalizer"
)

// Matcher applies the match predicate between datasets
type Matcher struct {
	config Config
}

// NewMatcher creates a new matcher with the given config
func NewMatcher(config Config) *Matcher {
	if config.AmountTolerance.IsZero() {
		config.AmountTolerance = DefaultConfig().AmountTolerance
	}
	return &Matcher{
		config: config,
	}
}

// Matches reports whether a and b satisfy the match predicate. The predicate
// is symmetric.
func (m *Matcher) Matches(a, b normalizer.Transaction) bool {
	if !a.HasDate() || !b.HasDate() || a.DateKey() != b.DateKey() {
		return false
	}
	if !labelsOverlap(strings.ToUpper(a.Label), strings.ToUpper(b.Label)) {
		return false
	}
	return m.amountsMatch(a, b)
}

// Count runs both directional passes. The passes are independent and run
// concurrently when Parallel is set; results are identical either way.
func (m *Matcher) Count(hub, sales []normalizer.Transaction) *Result {
	result := &Result{
		HubCounts:   make([]int, len(hub)),
		SalesCounts: make([]int, len(sales)),
	}

	hubPass := func() error {
		result.SalesIndex = m.NewIndex(sales)
		for i, tx := range hub {
			result.HubCounts[i] = result.SalesIndex.Count(tx)
		}
		return nil
	}
	salesPass := func() error {
		result.HubIndex = m.NewIndex(hub)
		for j, tx := range sales {
			result.SalesCounts[j] = result.HubIndex.Count(tx)
		}
		return nil
	}

	if !m.config.Parallel {
		_ = hubPass()
		_ = salesPass()
		return result
	}

	var g errgroup.Group
	g.Go(hubPass)
	g.Go(salesPass)
	_ = g.Wait()

	return result
}

// amountsMatch compares net amounts against the exclusive tolerance.
func (m *Matcher) amountsMatch(a, b normalizer.Transaction) bool {
	diff := a.Net.Sub(b.Net).Abs()
	return diff.LessThan(m.config.AmountTolerance)
}

// labelsOverlap reports bidirectional substring containment of folded labels.
// An empty label is contained in every label.
func labelsOverlap(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}
