// Package aggregator sums net amounts per payment category across the full hub
// and sales datasets, independently of match status.
package aggregator

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/settlement-recon/internal/domain/normalizer"
)

// Rule maps any source containing Contains (case-insensitive) to Category.
type Rule struct {
	Contains string
	Category string
}

// Config holds category canonicalization settings.
type Config struct {
	// Defaults are always emitted, in this order, even when zero.
	Defaults []string
	// Rules are tried in order; the first match wins.
	Rules []Rule
	// Exclude drops any record whose label or category contains a token.
	Exclude []string
	// Fallback names the bucket for records with no category source.
	Fallback string
}

// DefaultConfig returns the four card-brand buckets and the cash exclusion.
func DefaultConfig() Config {
	return Config{
		Defaults: []string{"Visa", "Mastercard", "American Express", "Discover"},
		Rules: []Rule{
			{Contains: "visa", Category: "Visa"},
			{Contains: "master", Category: "Mastercard"},
			{Contains: "american", Category: "American Express"},
			{Contains: "amex", Category: "American Express"},
			{Contains: "discover", Category: "Discover"},
		},
		Exclude:  []string{"cash"},
		Fallback: "Uncategorized",
	}
}

// TotalLabel names the grand total row.
const TotalLabel = "Total"

// CategoryTotal is one row of the totals comparison. Difference always equals
// HubTotal - SalesTotal; all values are rounded to 2 places.
type CategoryTotal struct {
	Category   string
	HubTotal   decimal.Decimal
	SalesTotal decimal.Decimal
	Difference decimal.Decimal
}

// Categorizer resolves the category bucket for a transaction.
type Categorizer struct {
	config Config
}

// NewCategorizer creates a categorizer with the given config.
func NewCategorizer(config Config) *Categorizer {
	if config.Fallback == "" {
		config.Fallback = DefaultConfig().Fallback
	}
	return &Categorizer{config: config}
}

// Source returns the text a transaction is categorized by: the category cell
// when present, else the normalized label.
func (c *Categorizer) Source(tx normalizer.Transaction) string {
	if s := strings.TrimSpace(tx.Category); s != "" {
		return s
	}
	return strings.TrimSpace(tx.Label)
}

// Canonical maps a category source to its bucket name.
func (c *Categorizer) Canonical(source string) string {
	source = strings.TrimSpace(source)
	if source == "" {
		return c.config.Fallback
	}

	lower := strings.ToLower(source)
	for _, r := range c.config.Rules {
		if r.Contains != "" && strings.Contains(lower, strings.ToLower(r.Contains)) {
			return r.Category
		}
	}
	for _, d := range c.config.Defaults {
		if strings.EqualFold(d, source) {
			return d
		}
	}
	return source
}

// Category returns the bucket for tx.
func (c *Categorizer) Category(tx normalizer.Transaction) string {
	return c.Canonical(c.Source(tx))
}

// Excluded reports whether tx is left out of every total.
func (c *Categorizer) Excluded(tx normalizer.Transaction) bool {
	label := strings.ToLower(tx.Label)
	category := strings.ToLower(tx.Category)
	for _, token := range c.config.Exclude {
		token = strings.ToLower(token)
		if token == "" {
			continue
		}
		if strings.Contains(label, token) || strings.Contains(category, token) {
			return true
		}
	}
	return false
}

// Aggregator builds per-category totals. It holds no state between calls.
type Aggregator struct {
	categorizer *Categorizer
}

// New creates an aggregator over categorizer.
func New(categorizer *Categorizer) *Aggregator {
	return &Aggregator{categorizer: categorizer}
}

// Aggregate sums net amounts per category. Default categories come first in
// configured order, then any other category alphabetically.
func (a *Aggregator) Aggregate(hub, sales []normalizer.Transaction) []CategoryTotal {
	hubSums := a.sum(hub)
	salesSums := a.sum(sales)

	seen := make(map[string]bool)
	order := make([]string, 0, len(a.categorizer.config.Defaults))
	for _, d := range a.categorizer.config.Defaults {
		if !seen[d] {
			seen[d] = true
			order = append(order, d)
		}
	}

	var extra []string
	for _, sums := range []map[string]decimal.Decimal{hubSums, salesSums} {
		for name := range sums {
			if !seen[name] {
				seen[name] = true
				extra = append(extra, name)
			}
		}
	}
	sort.Strings(extra)
	order = append(order, extra...)

	totals := make([]CategoryTotal, 0, len(order))
	for _, name := range order {
		hubTotal := RoundHalfUp(hubSums[name])
		salesTotal := RoundHalfUp(salesSums[name])
		totals = append(totals, CategoryTotal{
			Category:   name,
			HubTotal:   hubTotal,
			SalesTotal: salesTotal,
			Difference: hubTotal.Sub(salesTotal),
		})
	}
	return totals
}

func (a *Aggregator) sum(records []normalizer.Transaction) map[string]decimal.Decimal {
	sums := make(map[string]decimal.Decimal)
	for _, tx := range records {
		if a.categorizer.Excluded(tx) {
			continue
		}
		name := a.categorizer.Category(tx)
		sums[name] = sums[name].Add(tx.Net)
	}
	return sums
}

// halfCent is added before flooring so ties round toward positive infinity.
var halfCent = decimal.New(5, -3)

// RoundHalfUp rounds d to two places with ties toward positive infinity:
// 0.125 -> 0.13, -0.125 -> -0.12, -0.005 -> 0.00.
func RoundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Add(halfCent).RoundFloor(2)
}

// Sum returns the grand total row over totals.
func Sum(totals []CategoryTotal) CategoryTotal {
	row := CategoryTotal{
		Category:   TotalLabel,
		HubTotal:   decimal.Zero,
		SalesTotal: decimal.Zero,
		Difference: decimal.Zero,
	}
	for _, t := range totals {
		row.HubTotal = row.HubTotal.Add(t.HubTotal)
		row.SalesTotal = row.SalesTotal.Add(t.SalesTotal)
		row.Difference = row.Difference.Add(t.Difference)
	}
	return row
}
