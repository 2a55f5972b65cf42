package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/eshaffer321/settlement-recon/internal/adapters/spreadsheet"
	"github.com/eshaffer321/settlement-recon/internal/application/reconcile"
	"github.com/eshaffer321/settlement-recon/internal/application/service"
	"github.com/eshaffer321/settlement-recon/internal/domain/table"
	"github.com/eshaffer321/settlement-recon/internal/infrastructure/config"
	"github.com/eshaffer321/settlement-recon/internal/infrastructure/logging"
	"github.com/eshaffer321/settlement-recon/internal/infrastructure/storage"
)

// LoadConfig loads path when set, otherwise config.yaml with an environment
// fallback.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadOrEnv(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}

// RunReconcile reads both reports, reconciles them and writes the result
// table. Logs and the summary go to stderr; the table goes to -out or stdout.
func RunReconcile(ctx context.Context, cfg *config.Config, flags ReconcileFlags, stdout, stderr io.Writer) error {
	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerTo(stderr, loggingCfg).With("system", "cli")

	engineCfg, err := cfg.Reconcile()
	if err != nil {
		return fmt.Errorf("invalid engine config: %w", err)
	}
	if flags.MaxRows >= 0 {
		engineCfg.MaxRows = flags.MaxRows
	}

	var outFormat spreadsheet.Format
	if flags.Out != "" {
		if outFormat, err = spreadsheet.FormatFromName(flags.Out); err != nil {
			return err
		}
	}

	hub, err := readFile(flags.Hub, flags.HubSheet)
	if err != nil {
		return err
	}
	sales, err := readFile(flags.Sales, flags.SalesSheet)
	if err != nil {
		return err
	}

	var repo storage.Repository
	if !flags.DryRun {
		store, err := storage.NewStorage(cfg.Storage.DatabasePath, logger.With("system", "storage"))
		if err != nil {
			return fmt.Errorf("failed to open run history: %w", err)
		}
		defer func() { _ = store.Close() }()
		repo = store
	}

	engine := reconcile.NewEngine(engineCfg, logger.With("system", "engine"))
	svc := service.NewReconcileService(engine, repo, logger)

	PrintHeader(stderr, flags.Hub, flags.Sales, flags.DryRun)

	outcome, err := svc.Reconcile(ctx, service.Request{
		HubName:   flags.Hub,
		SalesName: flags.Sales,
		Hub:       hub,
		Sales:     sales,
		DryRun:    flags.DryRun,
	})
	if err != nil {
		return err
	}

	if err := writeResult(logger, flags.Out, outFormat, outcome.Result.Rows, stdout); err != nil {
		return err
	}

	PrintSummary(stderr, outcome)
	return nil
}

func readFile(path, sheet string) (table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return table.Table{}, err
	}
	defer func() { _ = f.Close() }()
	return spreadsheet.Read(f, path, sheet)
}

func writeResult(logger *slog.Logger, path string, format spreadsheet.Format, rows []table.Row, stdout io.Writer) error {
	if path == "" {
		return spreadsheet.WriteCSV(stdout, rows)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := spreadsheet.Write(f, format, rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	logger.Debug("Wrote result", "path", path, "rows", len(rows))
	return nil
}
