package risk

import (
	"math"

	"backtestLab/internal/analytics/indicators"
	"backtestLab/internal/domain"
)

// Composite weights. They sum to 1.
const (
	WeightVolatility = 0.25
	WeightLiquidity  = 0.20
	WeightDrawdown   = 0.25
	WeightStrategy   = 0.15
	WeightDuration   = 0.15
)

const (
	maxScore = 100.0
	// volatilityScale maps typical annualized crypto volatility (5-40%) onto 0-100.
	volatilityScale = 5.0
	daysPerYear     = 365.0
)

// RiskScores holds the five 0-100 risk dimensions.
type RiskScores struct {
	Volatility float64
	Liquidity  float64
	Drawdown   float64
	Strategy   float64
	Duration   float64
}

// Overall combines the dimensions with the fixed weights.
func (s RiskScores) Overall() float64 {
	return WeightVolatility*s.Volatility +
		WeightLiquidity*s.Liquidity +
		WeightDrawdown*s.Drawdown +
		WeightStrategy*s.Strategy +
		WeightDuration*s.Duration
}

// AnnualizedVolatility returns the population stddev of percent sample
// returns of closes, scaled to a year by sqrt(365/sampleDays).
func AnnualizedVolatility(closes []float64, sampleDays float64) float64 {
	if sampleDays <= 0 {
		sampleDays = 1
	}
	return indicators.StdDev(indicators.Returns(closes)) * math.Sqrt(daysPerYear/sampleDays)
}

// VolatilityScore is min(100, annualized volatility × 5).
func VolatilityScore(annualizedVol float64) float64 {
	return math.Min(maxScore, annualizedVol*volatilityScale)
}

// LiquidityScore steps down as 24h quote volume grows.
func LiquidityScore(quoteVolume24h float64) float64 {
	switch {
	case quoteVolume24h < 10e6:
		return 80
	case quoteVolume24h < 50e6:
		return 60
	case quoteVolume24h < 100e6:
		return 40
	case quoteVolume24h < 500e6:
		return 30
	case quoteVolume24h < 1e9:
		return 20
	default:
		return 10
	}
}

// DrawdownScore caps a max drawdown percentage at 100.
func DrawdownScore(maxDrawdownPct float64) float64 {
	return math.Min(maxScore, math.Max(0, maxDrawdownPct))
}

// StrategyScore is a fixed lookup per sizing rule. Unknown kinds score as martingale.
func StrategyScore(kind domain.StrategyKind) float64 {
	switch kind {
	case domain.KindStandard:
		return 20
	case domain.KindValueAveraging:
		return 30
	case domain.KindAntiMartingale:
		return 40
	default:
		return 80
	}
}

// DurationScore scores shorter simulated horizons as riskier.
func DurationScore(days float64) float64 {
	switch {
	case days < 90:
		return 60
	case days < 180:
		return 40
	case days < 365:
		return 30
	default:
		return 20
	}
}
