// Package money accumulates currency amounts without binary floating-point drift.
package money

import "github.com/shopspring/decimal"

// Sum adds amounts in decimal arithmetic and returns the result as float64.
func Sum(amounts ...float64) float64 {
	acc := decimal.Zero
	for _, a := range amounts {
		acc = acc.Add(decimal.NewFromFloat(a))
	}
	return acc.InexactFloat64()
}

// Accumulator is a running decimal total. The zero value is ready to use.
type Accumulator struct {
	total decimal.Decimal
	count int
}

// Add adds one amount to the total.
func (a *Accumulator) Add(amount float64) {
	a.total = a.total.Add(decimal.NewFromFloat(amount))
	a.count++
}

// Total returns the running total.
func (a *Accumulator) Total() float64 {
	return a.total.InexactFloat64()
}

// Count returns how many amounts were added.
func (a *Accumulator) Count() int {
	return a.count
}

// Average returns Total/Count, or 0 when nothing was added.
func (a *Accumulator) Average() float64 {
	if a.count == 0 {
		return 0
	}
	return a.total.Div(decimal.NewFromInt(int64(a.count))).InexactFloat64()
}

// Round2 rounds to cents, half away from zero.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Ratio returns num/den, or 0 when den is zero.
func Ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Percent returns part/whole*100, or 0 when whole is zero.
func Percent(part, whole float64) float64 {
	return Ratio(part, whole) * 100
}

// Mul multiplies an amount by a factor in decimal arithmetic.
func Mul(amount, factor float64) float64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(factor)).InexactFloat64()
}
