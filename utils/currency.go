// utils/currency.go
package utils

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Single fixed currency: Indian rupee with lakh/crore digit grouping.
var inr = message.NewPrinter(language.MustParse("en-IN"))

// FormatINR renders an amount with the rupee symbol. Whole amounts drop the
// fraction, anything else keeps two decimal places.
func FormatINR(amount float64) string {
	if amount == math.Trunc(amount) {
		return inr.Sprintf("₹%v", number.Decimal(int64(amount)))
	}
	return inr.Sprintf("₹%v", number.Decimal(amount,
		number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}
