package format

import (
	"github.com/leekchan/accounting"
	"github.com/shopspring/decimal"
)

var priceAccounting = accounting.Accounting{Symbol: "$", Precision: 2, Thousand: ",", Decimal: "."}

// Price renders a decimal, numeric or string amount for display.
// Values it cannot interpret render as zero.
func Price(amount any) string {
	var dec decimal.Decimal
	switch v := amount.(type) {
	case decimal.Decimal:
		dec = v
	case *decimal.Decimal:
		if v != nil {
			dec = *v
		}
	case float64:
		dec = decimal.NewFromFloat(v)
	case int:
		dec = decimal.NewFromInt(int64(v))
	case int64:
		dec = decimal.NewFromInt(v)
	case string:
		parsed, err := decimal.NewFromString(v)
		if err == nil {
			dec = parsed
		}
	}
	return priceAccounting.FormatMoneyDecimal(dec)
}
