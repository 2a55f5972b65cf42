package composer

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/settlement-recon/internal/domain/aggregator"
	"github.com/eshaffer321/settlement-recon/internal/domain/normalizer"
	"github.com/eshaffer321/settlement-recon/internal/domain/reconciler"
	"github.com/eshaffer321/settlement-recon/internal/domain/table"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCompose_Layout(t *testing.T) {
	discrepancies := []reconciler.Discrepancy{
		{
			Transaction: normalizer.Transaction{
				Date:     civil.Date{Year: 2024, Month: 5, Day: 1},
				Label:    "Mastercard",
				Gross:    dec("45.75"),
				Discount: dec("1.14"),
				Net:      dec("44.61"),
			},
			Category: "Mastercard",
		},
	}
	totals := []aggregator.CategoryTotal{
		{Category: "Visa", HubTotal: dec("122.84"), SalesTotal: dec("122.84"), Difference: dec("0")},
		{Category: "Mastercard", HubTotal: dec("44.61"), SalesTotal: dec("0"), Difference: dec("44.61")},
	}

	rows := Compose(discrepancies, totals)

	// header + 1 discrepancy + separator + summary header + 2 totals + grand total
	require.Len(t, rows, 7)
	assert.Equal(t, DetailHeader, rows[0])

	detail := rows[1]
	assert.Equal(t, "2024-05-01", detail[0])
	assert.Equal(t, "Mastercard", detail[1])
	assert.True(t, detail[2].(decimal.Decimal).Equal(dec("45.75")))
	assert.True(t, detail[3].(decimal.Decimal).Equal(dec("1.14")))
	assert.Equal(t, "Mastercard", detail[4])
	assert.True(t, detail[5].(decimal.Decimal).Equal(dec("44.61")))

	assert.Empty(t, rows[2])
	assert.Equal(t, SummaryHeader, rows[3])
	assert.Equal(t, "Visa", rows[4][0])
	assert.Equal(t, "Mastercard", rows[5][0])

	total := rows[6]
	assert.Equal(t, aggregator.TotalLabel, total[0])
	assert.True(t, total[1].(decimal.Decimal).Equal(dec("167.45")))
	assert.True(t, total[2].(decimal.Decimal).Equal(dec("122.84")))
	assert.True(t, total[3].(decimal.Decimal).Equal(dec("44.61")))
}

func TestCompose_RowCountLaw(t *testing.T) {
	totals := aggregator.New(aggregator.NewCategorizer(aggregator.DefaultConfig())).Aggregate(nil, nil)

	for _, n := range []int{0, 1, 5} {
		discrepancies := make([]reconciler.Discrepancy, n)
		rows := Compose(discrepancies, totals)
		assert.Equal(t, n+len(totals)+2, len(rows)-HeaderRows)
	}
}

func TestCompose_HeadersAreCopies(t *testing.T) {
	rows := Compose(nil, nil)
	rows[0][0] = "changed"

	assert.Equal(t, table.Row{"Date", "Counterparty", "Gross", "Discount", "Category", "Net"}, DetailHeader)
}
