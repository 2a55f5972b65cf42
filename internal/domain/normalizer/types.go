package normalizer

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Field is a canonical transaction field resolved from a dataset header.
type Field string

const (
	FieldDate           Field = "date"
	FieldCounterparty   Field = "counterparty"
	FieldGrossAmount    Field = "gross_amount"
	FieldDiscountAmount Field = "discount_amount"
	FieldCategory       Field = "category"
)

// Fields lists every canonical field in display order.
var Fields = []Field{FieldDate, FieldCounterparty, FieldGrossAmount, FieldDiscountAmount, FieldCategory}

// Origin identifies which dataset a transaction came from.
type Origin string

const (
	OriginHub   Origin = "hub"
	OriginSales Origin = "sales"
)

// HeaderMatch selects how header cells are compared with configured aliases.
type HeaderMatch string

const (
	// HeaderMatchExact requires byte-for-byte equality with an alias.
	HeaderMatchExact HeaderMatch = "exact"
	// HeaderMatchFold trims, NFKC-normalizes and compares case-insensitively.
	HeaderMatchFold HeaderMatch = "fold"
)

// DatasetConfig describes how to find canonical columns in one dataset.
type DatasetConfig struct {
	HeaderMatch HeaderMatch
	// Aliases lists acceptable header names per field, in priority order.
	Aliases map[Field][]string
	// Required fields disable matching for the dataset when unresolved.
	Required []Field
}

// LabelRules control counterparty label normalization.
type LabelRules struct {
	StripPrefixes []string
	// Aliases maps a whole label (case-insensitive) to its canonical form.
	Aliases map[string]string
	// Known labels keep their canonical spelling instead of being uppercased.
	Known []string
	// GenericHolder replaces any of GenericVariants.
	GenericHolder   string
	GenericVariants []string
}

// Config holds normalizer configuration.
type Config struct {
	Hub      DatasetConfig
	Sales    DatasetConfig
	Labels   LabelRules
	Location *time.Location
}

// DefaultConfig returns the reference alias and label configuration.
func DefaultConfig() Config {
	return Config{
		Hub: DatasetConfig{
			HeaderMatch: HeaderMatchExact,
			Aliases: map[Field][]string{
				FieldDate:           {"Date", "Transaction Date"},
				FieldCounterparty:   {"Card Type", "Card Brand", "Tender"},
				FieldGrossAmount:    {"Amount", "Gross Amount", "Total"},
				FieldDiscountAmount: {"Discount", "Discount Amount", "Fee"},
				FieldCategory:       {"Category", "Card Type"},
			},
		},
		Sales: DatasetConfig{
			HeaderMatch: HeaderMatchFold,
			Aliases: map[Field][]string{
				FieldDate:         {"Date Closed", "Date", "Close Date"},
				FieldCounterparty: {"Name", "Customer", "Payment Method"},
				FieldGrossAmount:  {"Amount", "Total", "Net Amount"},
				FieldCategory:     {"Category", "Payment Type"},
			},
			Required: []Field{FieldDate, FieldGrossAmount},
		},
		Labels: LabelRules{
			StripPrefixes: []string{"Credit "},
			Aliases: map[string]string{
				"American": "American Express",
				"Amex":     "American Express",
				"MC":       "Mastercard",
			},
			Known:         []string{"Visa", "Mastercard", "American Express", "Discover"},
			GenericHolder: "CARDHOLDER",
			GenericVariants: []string{
				"CARD HOLDER",
				"CARDHOLDER",
				"CARDMEMBER",
				"CARD MEMBER",
				"VALUED CUSTOMER",
			},
		},
		Location: time.UTC,
	}
}

// Transaction is one canonical record from either dataset.
//
// Net equals Gross minus Discount when the dataset has a discount column,
// otherwise Net equals Gross.
type Transaction struct {
	// Index is the position of the source row in its dataset.
	Index    int
	Date     civil.Date
	Label    string
	Category string // category cell after alias mapping, empty when absent
	Gross    decimal.Decimal
	Discount decimal.Decimal
	Net      decimal.Decimal
	Origin   Origin
}

// HasDate reports whether the date cell parsed.
func (t Transaction) HasDate() bool {
	return t.Date.IsValid()
}

// DateKey returns the YYYY-MM-DD form used for comparison, or "" when the
// date is null.
func (t Transaction) DateKey() string {
	if !t.HasDate() {
		return ""
	}
	return t.Date.String()
}

// Dataset is the normalized form of one input table.
type Dataset struct {
	Origin       Origin
	Columns      ColumnMap
	Missing      []Field // required fields that could not be located
	Transactions []Transaction
}

// Matchable reports whether every required column was located.
func (d Dataset) Matchable() bool {
	return len(d.Missing) == 0
}
