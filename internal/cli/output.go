package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/eshaffer321/settlement-recon/internal/application/service"
	"github.com/eshaffer321/settlement-recon/internal/domain/aggregator"
)

// PrintHeader prints the application header
func PrintHeader(w io.Writer, hub, sales string, dryRun bool) {
	mode := "RECORDED"
	if dryRun {
		mode = "DRY-RUN"
	}
	fmt.Fprintf(w, "settlement-recon: %s vs %s (%s mode)\n", hub, sales, mode)
}

// PrintSummary prints the reconciliation result summary
func PrintSummary(w io.Writer, outcome *service.Outcome) {
	result := outcome.Result

	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Summary: Hub=%d Sales=%d Confirmed=%d Discrepancies=%d Sales-only=%d\n",
		result.HubRecords,
		result.SalesRecords,
		result.ConfirmedCount,
		len(result.Discrepancies),
		len(result.SalesOrphans))

	if result.SalesMatchingDisabled {
		missing := make([]string, 0, len(result.MissingSalesColumns))
		for _, f := range result.MissingSalesColumns {
			missing = append(missing, string(f))
		}
		fmt.Fprintf(w, "\nWarning: sales report is missing %s; every hub record is reported.\n",
			strings.Join(missing, ", "))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-20s %14s %14s %14s\n", "Category", "Hub", "Sales", "Difference")
	for _, t := range result.Totals {
		printTotal(w, t)
	}
	printTotal(w, result.Total)

	if outcome.Saved {
		fmt.Fprintf(w, "\nRecorded run %s\n", outcome.Run.ID)
	}
}

func printTotal(w io.Writer, t aggregator.CategoryTotal) {
	fmt.Fprintf(w, "%-20s %14s %14s %14s\n",
		t.Category,
		t.HubTotal.StringFixed(2),
		t.SalesTotal.StringFixed(2),
		t.Difference.StringFixed(2))
}
