package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/settlement-recon/internal/adapters/spreadsheet"
	"github.com/eshaffer321/settlement-recon/internal/application/reconcile"
	"github.com/eshaffer321/settlement-recon/internal/infrastructure/config"
)

const (
	hubCSV = "Date,Card Type,Amount,Discount\n" +
		"2024-05-01,Visa,125.99,3.15\n" +
		"2024-05-01,Mastercard,45.75,1.14\n"
	salesCSV = "Date Closed,Name,Amount\n" +
		"2024-05-01,Visa,122.84\n"
)

func writeInputs(t *testing.T) (dir, hub, sales string) {
	t.Helper()
	dir = t.TempDir()
	hub = filepath.Join(dir, "hub.csv")
	sales = filepath.Join(dir, "sales.csv")
	require.NoError(t, os.WriteFile(hub, []byte(hubCSV), 0644))
	require.NoError(t, os.WriteFile(sales, []byte(salesCSV), 0644))
	return dir, hub, sales
}

func TestParseReconcileFlags(t *testing.T) {
	flags, err := ParseReconcileFlags([]string{
		"-hub", "hub.xlsx", "-sales", "sales.csv", "-hub-sheet", "May", "-dry-run", "-max-rows", "10",
	}, io.Discard)

	require.NoError(t, err)
	assert.Equal(t, "hub.xlsx", flags.Hub)
	assert.Equal(t, "sales.csv", flags.Sales)
	assert.Equal(t, "May", flags.HubSheet)
	assert.True(t, flags.DryRun)
	assert.Equal(t, 10, flags.MaxRows)
}

func TestParseReconcileFlags_Defaults(t *testing.T) {
	flags, err := ParseReconcileFlags([]string{"-hub", "a.csv", "-sales", "b.csv"}, io.Discard)

	require.NoError(t, err)
	assert.Equal(t, -1, flags.MaxRows)
	assert.False(t, flags.DryRun)
	assert.Empty(t, flags.Out)
}

func TestParseReconcileFlags_MissingInputs(t *testing.T) {
	_, err := ParseReconcileFlags([]string{"-hub", "a.csv"}, io.Discard)
	assert.Error(t, err)

	_, err = ParseReconcileFlags([]string{"-unknown"}, io.Discard)
	assert.Error(t, err)
}

func TestParseServeFlags(t *testing.T) {
	flags, err := ParseServeFlags([]string{"-port", "9090", "-verbose"}, io.Discard)

	require.NoError(t, err)
	assert.Equal(t, 9090, flags.Port)
	assert.True(t, flags.Verbose)
}

func TestRunReconcile_DryRunToStdout(t *testing.T) {
	dir, hub, sales := writeInputs(t)
	cfg := config.Default()
	cfg.Storage.DatabasePath = filepath.Join(dir, "runs.db")

	var stdout, stderr bytes.Buffer
	err := RunReconcile(context.Background(), cfg, ReconcileFlags{
		Hub: hub, Sales: sales, MaxRows: -1, DryRun: true,
	}, &stdout, &stderr)

	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Date,Counterparty,Gross,Discount,Category,Net\n")
	assert.Contains(t, stdout.String(), "2024-05-01,Mastercard,45.75,1.14,")
	assert.Contains(t, stderr.String(), "DRY-RUN")
	assert.Contains(t, stderr.String(), "Confirmed=1")
	assert.NotContains(t, stderr.String(), "Recorded run")

	_, err = os.Stat(cfg.Storage.DatabasePath)
	assert.True(t, os.IsNotExist(err), "dry run must not create the database")
}

func TestRunReconcile_RecordsRunAndWritesXLSX(t *testing.T) {
	dir, hub, sales := writeInputs(t)
	cfg := config.Default()
	cfg.Storage.DatabasePath = filepath.Join(dir, "runs.db")
	out := filepath.Join(dir, "result.xlsx")

	var stdout, stderr bytes.Buffer
	err := RunReconcile(context.Background(), cfg, ReconcileFlags{
		Hub: hub, Sales: sales, Out: out, MaxRows: -1,
	}, &stdout, &stderr)

	require.NoError(t, err)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "Recorded run")

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	result, err := spreadsheet.Read(f, out, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Counterparty", "Gross", "Discount", "Category", "Net"}, result.Header)
}

func TestRunReconcile_SizeLimit(t *testing.T) {
	_, hub, sales := writeInputs(t)

	var stdout, stderr bytes.Buffer
	err := RunReconcile(context.Background(), config.Default(), ReconcileFlags{
		Hub: hub, Sales: sales, MaxRows: 1, DryRun: true,
	}, &stdout, &stderr)

	require.Error(t, err)
	assert.ErrorIs(t, err, reconcile.ErrTooManyRows)
	assert.Empty(t, stdout.String())
}

func TestRunReconcile_UnsupportedOutput(t *testing.T) {
	dir, hub, sales := writeInputs(t)

	err := RunReconcile(context.Background(), config.Default(), ReconcileFlags{
		Hub: hub, Sales: sales, Out: filepath.Join(dir, "result.pdf"), MaxRows: -1, DryRun: true,
	}, io.Discard, io.Discard)

	assert.ErrorIs(t, err, spreadsheet.ErrUnsupportedFormat)
}

func TestRunReconcile_MissingInput(t *testing.T) {
	dir, hub, _ := writeInputs(t)

	err := RunReconcile(context.Background(), config.Default(), ReconcileFlags{
		Hub: hub, Sales: filepath.Join(dir, "nope.csv"), MaxRows: -1, DryRun: true,
	}, io.Discard, io.Discard)

	assert.Error(t, err)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  port: 7000\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.API.Port)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
