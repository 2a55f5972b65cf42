package matcher

import (
	"fmt"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/settlement-recon/internal/domain/normalizer"
)

// Helper to create test transaction
func makeTransaction(date, label, net string) normalizer.Transaction {
	tx := normalizer.Transaction{
		Label: label,
		Net:   decimal.RequireFromString(net),
	}
	if date != "" {
		d, err := civil.ParseDate(date)
		if err != nil {
			panic(err)
		}
		tx.Date = d
	}
	tx.Gross = tx.Net
	return tx
}

func TestMatcher_ExactMatch(t *testing.T) {
	// Arrange
	m := NewMatcher(DefaultConfig())
	hub := makeTransaction("2024-05-01", "Visa", "122.84")
	sale := makeTransaction("2024-05-01", "Visa", "122.84")

	// Act & Assert
	assert.True(t, m.Matches(hub, sale))
	assert.True(t, m.Matches(sale, hub))
}

func TestMatcher_AmountToleranceIsExclusive(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	hub := makeTransaction("2024-05-01", "Visa", "100.00")

	assert.True(t, m.Matches(hub, makeTransaction("2024-05-01", "Visa", "100.009")))
	assert.False(t, m.Matches(hub, makeTransaction("2024-05-01", "Visa", "100.01")))
	assert.False(t, m.Matches(hub, makeTransaction("2024-05-01", "Visa", "99.98")))
}

func TestMatcher_DateMustBeEqual(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	hub := makeTransaction("2024-05-01", "Visa", "10.00")

	assert.False(t, m.Matches(hub, makeTransaction("2024-05-02", "Visa", "10.00")))
	assert.False(t, m.Matches(hub, makeTransaction("", "Visa", "10.00")))
	assert.False(t, m.Matches(makeTransaction("", "Visa", "10.00"), makeTransaction("", "Visa", "10.00")))
}

func TestMatcher_LabelContainment(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	tests := []struct {
		a, b string
		want bool
	}{
		{"Visa", "VISA", true},
		{"American Express", "AMERICAN", true},
		{"AMERICAN", "American Express", true},
		{"Visa", "Mastercard", false},
		{"", "Visa", true},
		{"JANE DOE", "JOHN DOE", false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.a, tt.b), func(t *testing.T) {
			a := makeTransaction("2024-05-01", tt.a, "5.00")
			b := makeTransaction("2024-05-01", tt.b, "5.00")
			assert.Equal(t, tt.want, m.Matches(a, b))
		})
	}
}

func TestMatcher_CountBothDirections(t *testing.T) {
	// Arrange
	hub := []normalizer.Transaction{
		makeTransaction("2024-05-01", "Visa", "20.00"),
		makeTransaction("2024-05-01", "Visa", "20.00"),
		makeTransaction("2024-05-02", "Discover", "5.00"),
	}
	sales := []normalizer.Transaction{
		makeTransaction("2024-05-01", "Visa", "20.00"),
		makeTransaction("2024-05-03", "Discover", "5.00"),
	}

	for _, parallel := range []bool{true, false} {
		t.Run(fmt.Sprintf("parallel=%v", parallel), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Parallel = parallel
			m := NewMatcher(cfg)

			// Act
			result := m.Count(hub, sales)

			// Assert
			require.NotNil(t, result)
			assert.Equal(t, []int{1, 1, 0}, result.HubCounts)
			assert.Equal(t, []int{2, 0}, result.SalesCounts)
			assert.Equal(t, 3, result.HubIndex.Len())
			assert.Equal(t, 2, result.SalesIndex.Len())
		})
	}
}

func TestMatcher_IndexAgreesWithPredicate(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	labels := []string{"Visa", "VISA", "Mastercard", "", "JANE"}
	amounts := []string{"1.00", "1.005", "2.00"}
	dates := []string{"2024-05-01", "2024-05-02", ""}

	var pool []normalizer.Transaction
	for _, d := range dates {
		for _, l := range labels {
			for _, a := range amounts {
				pool = append(pool, makeTransaction(d, l, a))
			}
		}
	}

	idx := m.NewIndex(pool)
	for _, tx := range pool {
		want := 0
		var wantPos []int
		for j, other := range pool {
			if m.Matches(tx, other) {
				want++
				wantPos = append(wantPos, j)
			}
		}
		var gotPos []int
		idx.EachMatch(tx, func(pos int) bool {
			gotPos = append(gotPos, pos)
			return true
		})
		assert.Equal(t, want, idx.Count(tx))
		assert.Equal(t, wantPos, gotPos)
	}
}

func TestMatcher_EachMatchStopsEarly(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	pool := []normalizer.Transaction{
		makeTransaction("2024-05-01", "Visa", "1.00"),
		makeTransaction("2024-05-01", "Visa", "1.00"),
	}

	calls := 0
	m.NewIndex(pool).EachMatch(pool[0], func(int) bool {
		calls++
		return false
	})
	assert.Equal(t, 1, calls)
}

func TestNewMatcher_ZeroToleranceUsesDefault(t *testing.T) {
	m := NewMatcher(Config{})
	assert.True(t, m.Matches(
		makeTransaction("2024-05-01", "Visa", "1.00"),
		makeTransaction("2024-05-01", "Visa", "1.00"),
	))
}
