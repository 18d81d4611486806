package currency

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
	"math"
)

var (
	localTag   = language.MustParse("en-PK")
	foreignTag = language.AmericanEnglish
)

// FormatLocal renders a PKR amount with grouping and no decimals, e.g.
// "PKR 15,750".
func FormatLocal(amount float64) string {
	p := message.NewPrinter(localTag)
	return "PKR " + p.Sprintf("%v", number.Decimal(roundHalfAway(amount, 0), number.MaxFractionDigits(0)))
}

// FormatForeign renders a USD amount with exactly two decimals, e.g. "$56.57".
func FormatForeign(amount float64) string {
	p := message.NewPrinter(foreignTag)
	return "$" + p.Sprintf("%v", number.Decimal(roundHalfAway(amount, 2), number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// FormatGrouped renders amount with en-US grouping and up to three
// decimals, e.g. "15,750" or "56.5".
func FormatGrouped(amount float64) string {
	p := message.NewPrinter(foreignTag)
	return p.Sprintf("%v", number.Decimal(roundHalfAway(amount, 3), number.MaxFractionDigits(3)))
}

// roundHalfAway rounds ties away from zero before x/text, which would
// otherwise round them to even.
func roundHalfAway(amount float64, digits int) float64 {
	scale := math.Pow10(digits)
	return math.Round(amount*scale) / scale
}
