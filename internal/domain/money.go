package domain

import "github.com/shopspring/decimal"

// Tolerance is the largest difference at which two amounts are treated as equal (one minor unit).
var Tolerance = decimal.New(1, -2)

func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}

// RoundDisplay rounds to whole FCFA for display; computation never rounds.
func RoundDisplay(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
