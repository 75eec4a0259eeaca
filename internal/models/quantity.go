package models

import "github.com/shopspring/decimal"

// Stock quantities and costs are decimal.Decimal and are served as JSON numbers.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}
