package matcher

import (
	"strings"

	"github.com/eshaffer321/settlement-recon/internal/domain/normalizer"
)

// entry is an indexed record with its label pre-folded for containment checks.
type entry struct {
	pos   int
	tx    normalizer.Transaction
	label string
}

// Index buckets one dataset by calendar day. Records without a date are never
// indexed because they can never satisfy the date condition.
type Index struct {
	matcher *Matcher
	byDate  map[string][]entry
	size    int
}

// NewIndex indexes records for repeated predicate scans.
func (m *Matcher) NewIndex(records []normalizer.Transaction) *Index {
	idx := &Index{
		matcher: m,
		byDate:  make(map[string][]entry),
		size:    len(records),
	}
	for i, tx := range records {
		key := tx.DateKey()
		if key == "" {
			continue
		}
		idx.byDate[key] = append(idx.byDate[key], entry{
			pos:   i,
			tx:    tx,
			label: strings.ToUpper(tx.Label),
		})
	}
	return idx
}

// Len returns the number of records the index was built from.
func (idx *Index) Len() int {
	return idx.size
}

// EachMatch calls fn with the position of every indexed record that matches
// tx, in dataset order. Iteration stops when fn returns false.
func (idx *Index) EachMatch(tx normalizer.Transaction, fn func(pos int) bool) {
	key := tx.DateKey()
	if key == "" {
		return
	}
	label := strings.ToUpper(tx.Label)
	for _, e := range idx.byDate[key] {
		if !labelsOverlap(label, e.label) {
			continue
		}
		if !idx.matcher.amountsMatch(tx, e.tx) {
			continue
		}
		if !fn(e.pos) {
			return
		}
	}
}

// Count returns the number of indexed records matching tx.
func (idx *Index) Count(tx normalizer.Transaction) int {
	n := 0
	idx.EachMatch(tx, func(int) bool {
		n++
		return true
	})
	return n
}
