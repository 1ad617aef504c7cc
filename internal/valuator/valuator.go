// Package valuator turns a set of investment positions into aggregate
// portfolio metrics. Pure computation, no I/O, never fails.
package valuator

import (
	"github.com/shopspring/decimal"

	"finboard/internal/models"
)

var hundred = decimal.NewFromInt(100)

// ComputeMetrics runs a single pass over positions accumulating patrimony,
// invested capital, trailing dividends, and the daily-variation fraction.
// An empty input yields all-zero metrics. Monetary outputs are rounded to
// 2 decimal places (half away from zero); percentages stay unrounded.
func ComputeMetrics(positions []models.InvestmentPosition) models.PortfolioMetrics {
	var (
		patrimony decimal.Decimal
		invested  decimal.Decimal
		dividends decimal.Decimal
		varNum    decimal.Decimal
		varDen    decimal.Decimal
	)

	for _, p := range positions {
		// The signed quantity is derived once, here at the boundary.
		qty := p.Operation.SignedQuantity(p.Quantity)

		patrimony = patrimony.Add(qty.Mul(p.CurrentPrice))
		invested = invested.Add(qty.Mul(p.AveragePrice))
		dividends = dividends.Add(p.DividendsReceived)

		last, prev, ok := lastTwoPrices(p.PriceHistory)
		if !ok {
			continue
		}
		varNum = varNum.Add(qty.Mul(last.Sub(prev)))
		varDen = varDen.Add(qty.Mul(prev))
	}

	patrimony = patrimony.Round(2)
	invested = invested.Round(2)
	dividends = dividends.Round(2)

	capitalGain := patrimony.Sub(invested)
	totalProfit := capitalGain.Add(dividends)

	profitability := decimal.Zero
	if invested.IsPositive() {
		profitability = totalProfit.Div(invested).Mul(hundred)
	}

	variationPct := decimal.Zero
	if !varDen.IsZero() {
		variationPct = varNum.Div(varDen).Mul(hundred)
	}

	return models.PortfolioMetrics{
		TotalPatrimony:        patrimony,
		TotalInvested:         invested,
		CapitalGain:           capitalGain,
		Dividends12m:          dividends,
		TotalProfit:           totalProfit,
		ProfitabilityPercent:  profitability,
		DailyVariationValue:   varNum.Round(2),
		DailyVariationPercent: variationPct,
	}
}

// lastTwoPrices returns the two most recent history points when both are
// strictly positive. Positions without two positive points contribute
// nothing to the daily variation.
func lastTwoPrices(history []decimal.Decimal) (last, prev decimal.Decimal, ok bool) {
	if len(history) < 2 {
		return decimal.Zero, decimal.Zero, false
	}
	last = history[len(history)-1]
	prev = history[len(history)-2]
	if !last.IsPositive() || !prev.IsPositive() {
		return decimal.Zero, decimal.Zero, false
	}
	return last, prev, true
}
