// Package reconciler decides which records are confirmed matches and which
// are discrepancies.
//
// A record is confirmed only when at least one counterpart satisfies the
// match predicate against it and that counterpart's own candidate count equals
// the record's candidate count. Everything else is a discrepancy, reported in
// the record's original dataset order.
package reconciler

import (
	"github.com/eshaffer321/settlement-recon/internal/domain/normalizer"
)

// MatchIndex enumerates the counterparts matching a transaction.
type MatchIndex interface {
	EachMatch(tx normalizer.Transaction, fn func(pos int) bool)
}

// Discrepancy is a record without a mutually confirmed counterpart.
type Discrepancy struct {
	Transaction normalizer.Transaction
	MatchCount  int
	// Category is the display category; filled by the caller.
	Category string
}

// Outcome is the result of filtering one dataset.
type Outcome struct {
	Discrepancies []Discrepancy
	Confirmed     int
}

// Filter keeps the records of one dataset that fail confirmation against the
// other. counts[i] is the candidate count of records[i]; otherCounts[pos] is
// the candidate count of the counterpart at pos in the indexed dataset.
func Filter(records []normalizer.Transaction, counts []int, other MatchIndex, otherCounts []int) Outcome {
	out := Outcome{Discrepancies: make([]Discrepancy, 0)}

	for i, tx := range records {
		count := countAt(counts, i)
		if confirmed(tx, count, other, otherCounts) {
			out.Confirmed++
			continue
		}
		out.Discrepancies = append(out.Discrepancies, Discrepancy{
			Transaction: tx,
			MatchCount:  count,
		})
	}
	return out
}

// Unmatched marks every record as a discrepancy. Used when the other dataset
// could not be matched at all.
func Unmatched(records []normalizer.Transaction) Outcome {
	out := Outcome{Discrepancies: make([]Discrepancy, 0, len(records))}
	for _, tx := range records {
		out.Discrepancies = append(out.Discrepancies, Discrepancy{Transaction: tx})
	}
	return out
}

func confirmed(tx normalizer.Transaction, count int, other MatchIndex, otherCounts []int) bool {
	if count == 0 || other == nil {
		return false
	}

	found := false
	other.EachMatch(tx, func(pos int) bool {
		if countAt(otherCounts, pos) == count {
			found = true
			return false
		}
		return true
	})
	return found
}

func countAt(counts []int, i int) int {
	if i < 0 || i >= len(counts) {
		return 0
	}
	return counts[i]
}
