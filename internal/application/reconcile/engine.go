// Package reconcile runs the reconciliation engine end to end.
//
// Run is a pure function of (hub, sales, config): it normalizes both tables,
// counts candidates in both directions, keeps hub records that fail mutual
// confirmation, totals every record per category and composes the result
// table. Identical inputs always produce identical output.
//
// Example usage:
//
//	engine := reconcile.NewEngine(reconcile.DefaultConfig(), logger)
//	result, err := engine.Run(hubTable, salesTable)
//	if errors.Is(err, reconcile.ErrTooManyRows) {
//		// reject the upload
//	}
package reconcile

import (
	"log/slog"
	"time"

	"github.com/eshaffer321/settlement-recon/internal/domain/aggregator"
	"github.com/eshaffer321/settlement-recon/internal/domain/composer"
	"github.com/eshaffer321/settlement-recon/internal/domain/matcher"
	"github.com/eshaffer321/settlement-recon/internal/domain/normalizer"
	"github.com/eshaffer321/settlement-recon/internal/domain/reconciler"
	"github.com/eshaffer321/settlement-recon/internal/domain/table"
)

// Engine wires the normalizer, matcher, filter, aggregator and composer.
type Engine struct {
	config      Config
	normalizer  *normalizer.Normalizer
	matcher     *matcher.Matcher
	categorizer *aggregator.Categorizer
	aggregator  *aggregator.Aggregator
	logger      *slog.Logger
}

// NewEngine creates a new engine. The engine holds no per-run state and is
// safe for concurrent use.
func NewEngine(config Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	categorizer := aggregator.NewCategorizer(config.Categories)

	return &Engine{
		config:      config,
		normalizer:  normalizer.New(config.Normalizer),
		matcher:     matcher.NewMatcher(config.Matcher),
		categorizer: categorizer,
		aggregator:  aggregator.New(categorizer),
		logger:      logger,
	}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Run reconciles hub against sales. The only error is a *SizeError, returned
// before any matching work begins.
func (e *Engine) Run(hub, sales table.Table) (*Result, error) {
	if err := e.checkSize(normalizer.OriginHub, hub); err != nil {
		return nil, err
	}
	if err := e.checkSize(normalizer.OriginSales, sales); err != nil {
		return nil, err
	}

	start := time.Now()

	hubSet := e.normalizer.Normalize(hub, normalizer.OriginHub)
	salesSet := e.normalizer.Normalize(sales, normalizer.OriginSales)

	result := &Result{
		HubRecords:   len(hubSet.Transactions),
		SalesRecords: len(salesSet.Transactions),
	}

	salesRecords := salesSet.Transactions
	var hubOut, salesOut reconciler.Outcome

	if !salesSet.Matchable() {
		e.logger.Warn("Sales columns missing, matching disabled",
			"missing", salesSet.Missing,
			"header", sales.Header,
		)
		result.SalesMatchingDisabled = true
		result.MissingSalesColumns = salesSet.Missing
		salesRecords = nil
		hubOut = reconciler.Unmatched(hubSet.Transactions)
		salesOut = reconciler.Outcome{Discrepancies: []reconciler.Discrepancy{}}
	} else {
		counts := e.matcher.Count(hubSet.Transactions, salesRecords)
		e.logger.Debug("Counted candidates",
			"hub_records", len(counts.HubCounts),
			"sales_records", len(counts.SalesCounts),
		)
		hubOut = reconciler.Filter(hubSet.Transactions, counts.HubCounts, counts.SalesIndex, counts.SalesCounts)
		salesOut = reconciler.Filter(salesRecords, counts.SalesCounts, counts.HubIndex, counts.HubCounts)
	}

	result.Discrepancies = e.withCategories(hubOut.Discrepancies)
	result.SalesOrphans = e.withCategories(salesOut.Discrepancies)
	result.ConfirmedCount = hubOut.Confirmed

	result.Totals = e.aggregator.Aggregate(hubSet.Transactions, salesRecords)
	result.Total = aggregator.Sum(result.Totals)
	result.Rows = composer.Compose(result.Discrepancies, result.Totals)

	e.logger.Info("Reconciliation complete",
		"hub_records", result.HubRecords,
		"sales_records", result.SalesRecords,
		"confirmed", result.ConfirmedCount,
		"discrepancies", len(result.Discrepancies),
		"sales_orphans", len(result.SalesOrphans),
		"categories", len(result.Totals),
		"duration", time.Since(start).String(),
	)

	return result, nil
}

func (e *Engine) checkSize(origin normalizer.Origin, t table.Table) error {
	limit := e.config.MaxRows
	if limit > 0 && t.Len() > limit {
		e.logger.Error("Dataset too large", "dataset", origin, "rows", t.Len(), "limit", limit)
		return &SizeError{Dataset: origin, Rows: t.Len(), Limit: limit}
	}
	return nil
}

func (e *Engine) withCategories(ds []reconciler.Discrepancy) []reconciler.Discrepancy {
	for i := range ds {
		ds[i].Category = e.categorizer.Category(ds[i].Transaction)
	}
	return ds
}
