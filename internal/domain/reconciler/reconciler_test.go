package reconciler_test

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/settlement-recon/internal/domain/matcher"
	"github.com/eshaffer321/settlement-recon/internal/domain/normalizer"
	"github.com/eshaffer321/settlement-recon/internal/domain/reconciler"
)

func tx(date, label, net string) normalizer.Transaction {
	d, _ := civil.ParseDate(date)
	amount := decimal.RequireFromString(net)
	return normalizer.Transaction{Date: d, Label: label, Gross: amount, Net: amount}
}

func run(hub, sales []normalizer.Transaction) (reconciler.Outcome, reconciler.Outcome) {
	m := matcher.NewMatcher(matcher.DefaultConfig())
	res := m.Count(hub, sales)
	return reconciler.Filter(hub, res.HubCounts, res.SalesIndex, res.SalesCounts),
		reconciler.Filter(sales, res.SalesCounts, res.HubIndex, res.HubCounts)
}

func TestFilter_OneToOneConfirmed(t *testing.T) {
	hub := []normalizer.Transaction{tx("2024-05-01", "Visa", "122.84")}
	sales := []normalizer.Transaction{tx("2024-05-01", "Visa", "122.84")}

	hubOut, salesOut := run(hub, sales)

	assert.Empty(t, hubOut.Discrepancies)
	assert.Equal(t, 1, hubOut.Confirmed)
	assert.Empty(t, salesOut.Discrepancies)
}

func TestFilter_NoCandidateIsDiscrepancy(t *testing.T) {
	hub := []normalizer.Transaction{
		tx("2024-05-01", "Visa", "122.84"),
		tx("2024-05-01", "Mastercard", "44.61"),
	}
	sales := []normalizer.Transaction{tx("2024-05-01", "Visa", "122.84")}

	hubOut, _ := run(hub, sales)

	require.Len(t, hubOut.Discrepancies, 1)
	assert.Equal(t, "Mastercard", hubOut.Discrepancies[0].Transaction.Label)
	assert.Equal(t, 0, hubOut.Discrepancies[0].MatchCount)
}

func TestFilter_CountParityRejectsManyToOne(t *testing.T) {
	// Two hub records compete for one sales record: each hub record sees one
	// candidate, but the sales record sees two.
	hub := []normalizer.Transaction{
		tx("2024-05-01", "Visa", "10.00"),
		tx("2024-05-01", "Visa", "10.00"),
	}
	sales := []normalizer.Transaction{tx("2024-05-01", "Visa", "10.00")}

	hubOut, salesOut := run(hub, sales)

	assert.Len(t, hubOut.Discrepancies, 2)
	assert.Len(t, salesOut.Discrepancies, 1)
}

func TestFilter_CountParityAcceptsBalancedDuplicates(t *testing.T) {
	hub := []normalizer.Transaction{
		tx("2024-05-01", "Visa", "10.00"),
		tx("2024-05-01", "Visa", "10.00"),
	}
	sales := []normalizer.Transaction{
		tx("2024-05-01", "VISA", "10.00"),
		tx("2024-05-01", "Visa", "10.00"),
	}

	hubOut, salesOut := run(hub, sales)

	assert.Empty(t, hubOut.Discrepancies)
	assert.Equal(t, 2, hubOut.Confirmed)
	assert.Empty(t, salesOut.Discrepancies)
}

func TestFilter_ConfirmedWhenAnyCounterpartHasParity(t *testing.T) {
	// Sales "VISA" sees one hub record, sales "VISA DEBIT" sees both.
	hub := []normalizer.Transaction{
		tx("2024-05-01", "VISA", "50.00"),
		tx("2024-05-01", "DEBIT", "50.00"),
	}
	sales := []normalizer.Transaction{
		tx("2024-05-01", "VISA", "50.00"),
		tx("2024-05-01", "VISA DEBIT", "50.00"),
	}

	hubOut, salesOut := run(hub, sales)

	// hub[0]: count 2; sales[0] has 1, sales[1] has 2 -> confirmed
	// hub[1]: count 1; its only counterpart sales[1] has 2 -> discrepancy
	require.Len(t, hubOut.Discrepancies, 1)
	assert.Equal(t, "DEBIT", hubOut.Discrepancies[0].Transaction.Label)
	assert.Equal(t, 1, hubOut.Discrepancies[0].MatchCount)
	assert.Equal(t, 1, hubOut.Confirmed)

	// sales[0]: count 1; hub[0] has 2 -> discrepancy
	// sales[1]: count 2; hub[0] has 2 -> confirmed
	require.Len(t, salesOut.Discrepancies, 1)
	assert.Equal(t, "VISA", salesOut.Discrepancies[0].Transaction.Label)
}

func TestFilter_PreservesOrder(t *testing.T) {
	hub := []normalizer.Transaction{
		tx("2024-05-03", "C", "3.00"),
		tx("2024-05-01", "A", "1.00"),
		tx("2024-05-02", "B", "2.00"),
	}

	hubOut, _ := run(hub, nil)

	require.Len(t, hubOut.Discrepancies, 3)
	assert.Equal(t, "C", hubOut.Discrepancies[0].Transaction.Label)
	assert.Equal(t, "A", hubOut.Discrepancies[1].Transaction.Label)
	assert.Equal(t, "B", hubOut.Discrepancies[2].Transaction.Label)
}

func TestUnmatched(t *testing.T) {
	out := reconciler.Unmatched([]normalizer.Transaction{tx("2024-05-01", "Visa", "1.00")})

	require.Len(t, out.Discrepancies, 1)
	assert.Equal(t, 0, out.Confirmed)
}
