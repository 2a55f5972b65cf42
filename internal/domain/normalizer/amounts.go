package normalizer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/settlement-recon/internal/domain/table"
)

// parseAmount converts a cell into a decimal. Strings are stripped of every
// character except digits, '.' and '-'. Unparseable input yields zero.
func parseAmount(v table.Cell) decimal.Decimal {
	switch val := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return val
	case float64:
		return decimal.NewFromFloat(val)
	case float32:
		return decimal.NewFromFloat32(val)
	case int:
		return decimal.NewFromInt(int64(val))
	case int32:
		return decimal.NewFromInt32(val)
	case int64:
		return decimal.NewFromInt(val)
	case json.Number:
		return parseAmountString(val.String())
	case string:
		return parseAmountString(val)
	case bool:
		return decimal.Zero
	default:
		return parseAmountString(fmt.Sprint(val))
	}
}

func parseAmountString(s string) decimal.Decimal {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}
