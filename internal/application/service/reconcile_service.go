package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/eshaffer321/settlement-recon/internal/adapters/spreadsheet"
	"github.com/eshaffer321/settlement-recon/internal/application/reconcile"
	"github.com/eshaffer321/settlement-recon/internal/domain/table"
	"github.com/eshaffer321/settlement-recon/internal/infrastructure/storage"
)

// Request holds the two datasets of one reconciliation.
type Request struct {
	HubName   string // file or source name, recorded with the run
	SalesName string
	Hub       table.Table
	Sales     table.Table
	DryRun    bool // run without recording history
}

// Outcome is a completed reconciliation and its run record.
type Outcome struct {
	Run    *storage.Run
	Result *reconcile.Result
	Saved  bool
}

// ReconcileService runs the engine and records run history.
type ReconcileService struct {
	engine  *reconcile.Engine
	storage storage.Repository
	logger  *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewReconcileService creates a new reconcile service. store may be nil, in
// which case every run behaves as a dry run.
func NewReconcileService(engine *reconcile.Engine, store storage.Repository, logger *slog.Logger) *ReconcileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileService{
		engine:  engine,
		storage: store,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Reconcile runs the engine over req and records the run unless req.DryRun.
// Sizing errors from the engine are returned unchanged.
func (s *ReconcileService) Reconcile(ctx context.Context, req Request) (*Outcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type runResult struct {
		result *reconcile.Result
		err    error
	}
	done := make(chan runResult, 1)
	go func() {
		result, err := s.engine.Run(req.Hub, req.Sales)
		done <- runResult{result: result, err: err}
	}()

	var rr runResult
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case rr = <-done:
	}

	if rr.err != nil {
		var sizeErr *reconcile.SizeError
		if errors.As(rr.err, &sizeErr) {
			s.logger.Warn("Rejected oversized dataset",
				"dataset", sizeErr.Dataset,
				"rows", sizeErr.Rows,
				"limit", sizeErr.Limit,
			)
		}
		return nil, rr.err
	}

	run := s.newRun(req, rr.result)
	outcome := &Outcome{Run: run, Result: rr.result}

	if req.DryRun || s.storage == nil {
		s.logger.Info("Dry run, not recording", "id", run.ID, "discrepancies", run.DiscrepancyCount)
		return outcome, nil
	}

	if err := s.storage.SaveRun(run); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	outcome.Saved = true

	s.logger.Info("Recorded run",
		"id", run.ID,
		"hub", run.HubName,
		"sales", run.SalesName,
		"discrepancies", run.DiscrepancyCount,
	)
	return outcome, nil
}

func (s *ReconcileService) newRun(req Request, result *reconcile.Result) *storage.Run {
	return &storage.Run{
		ID:                    s.newID(),
		CreatedAt:             s.now().UTC(),
		HubName:               req.HubName,
		SalesName:             req.SalesName,
		HubRows:               result.HubRecords,
		SalesRows:             result.SalesRecords,
		ConfirmedCount:        result.ConfirmedCount,
		DiscrepancyCount:      len(result.Discrepancies),
		SalesOrphanCount:      len(result.SalesOrphans),
		CategoryCount:         len(result.Totals),
		SalesMatchingDisabled: result.SalesMatchingDisabled,
		HubTotal:              result.Total.HubTotal,
		SalesTotal:            result.Total.SalesTotal,
		Difference:            result.Total.Difference,
		Rows:                  result.Rows,
	}
}

// Recording reports whether runs are written to history.
func (s *ReconcileService) Recording() bool {
	return s.storage != nil
}

// MaxRows returns the per-dataset row limit; 0 means unlimited.
func (s *ReconcileService) MaxRows() int {
	return s.engine.Config().MaxRows
}

// ListRuns returns recent runs, newest first.
func (s *ReconcileService) ListRuns(limit int) ([]*storage.Run, error) {
	if s.storage == nil {
		return []*storage.Run{}, nil
	}
	return s.storage.ListRuns(limit)
}

// GetRun returns a recorded run with its result table.
func (s *ReconcileService) GetRun(id string) (*storage.Run, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrRunNotFound, id)
	}
	return s.storage.GetRun(id)
}

// ExportRun writes a recorded run's result table to w.
func (s *ReconcileService) ExportRun(id string, format spreadsheet.Format, w io.Writer) error {
	run, err := s.GetRun(id)
	if err != nil {
		return err
	}
	return spreadsheet.Write(w, format, run.Rows)
}
