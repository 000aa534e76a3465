package backtesting

import (
	"math"

	"backtestLab/internal/domain"
)

const (
	antiMartingaleStep = 1.5
	antiMartingaleCap  = 4.0
	martingaleStep     = 2.0
	martingaleCap      = 16.0
	valueAvgMinFactor  = 0.5
	valueAvgMaxFactor  = 2.0
)

// sizingState is what a sizing rule may look at when sizing the next buy.
type sizingState struct {
	Base         float64 // Configured AmountPerBuy
	BuyNumber    int     // Zero-based index of the buy being sized
	Price        float64 // Close at the buy sample
	PrevBuyPrice float64 // Close paid by the previous buy
	LastAmount   float64 // Amount spent by the previous buy
	Units        float64 // Units held before this buy
}

// sizingFunc returns the desired quote amount for the next buy. The simulator
// caps it at the remaining budget.
type sizingFunc func(s sizingState) float64

func sizerFor(kind domain.StrategyKind) sizingFunc {
	switch kind {
	case domain.KindValueAveraging:
		return valueAveragingSize
	case domain.KindAntiMartingale:
		return antiMartingaleSize
	case domain.KindMartingale:
		return martingaleSize
	default:
		return standardSize
	}
}

func standardSize(s sizingState) float64 {
	return s.Base
}

// valueAveragingSize buys whatever brings the holding up to a target value
// that grows by Base per buy, bounded to [0.5, 2] x Base.
func valueAveragingSize(s sizingState) float64 {
	target := float64(s.BuyNumber+1) * s.Base
	need := target - s.Units*s.Price
	return math.Min(math.Max(need, valueAvgMinFactor*s.Base), valueAvgMaxFactor*s.Base)
}

// antiMartingaleSize grows the buy after the price rose since the last buy.
func antiMartingaleSize(s sizingState) float64 {
	if s.BuyNumber == 0 || s.Price <= s.PrevBuyPrice {
		return s.Base
	}
	return math.Min(s.LastAmount*antiMartingaleStep, antiMartingaleCap*s.Base)
}

// martingaleSize doubles the buy after the price fell since the last buy.
func martingaleSize(s sizingState) float64 {
	if s.BuyNumber == 0 || s.Price >= s.PrevBuyPrice {
		return s.Base
	}
	return math.Min(s.LastAmount*martingaleStep, martingaleCap*s.Base)
}
