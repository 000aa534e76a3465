package performance

import (
	"math"

	"backtestLab/internal/analytics/indicators"
	"backtestLab/internal/domain"
)

const (
	daysPerYear        = 365.0
	tradingDaysPerYear = 252.0
	// monthChunk is the number of consecutive period returns summed into one "month".
	monthChunk = 30
)

// PerformanceMetrics holds the performance figures of one simulation
type PerformanceMetrics struct {
	// Basic Metrics
	TotalReturn      float64 // %
	AnnualizedReturn float64 // % linear scaling, see AnnualizedReturn
	SharpeRatio      float64
	WinRate          float64 // % of period returns above zero
	BestMonth        float64
	WorstMonth       float64
	TradeCount       int

	// Position
	FinalValue    float64
	TotalInvested float64
	TotalUnits    float64
	AverageCost   float64

	// Advanced Metrics
	MaxDrawdown          float64 // % of portfolio value
	MaxConsecutiveWins   int
	MaxConsecutiveLosses int
	ExitReason           domain.CloseReason
}

// AnalyzePerformance calculates performance metrics from a simulation result.
// A nil or empty result yields zeroed metrics.
func AnalyzePerformance(result *domain.SimulationResult) *PerformanceMetrics {
	metrics := &PerformanceMetrics{}
	if result == nil {
		return metrics
	}

	metrics.TradeCount = len(result.Trades)
	metrics.TotalInvested = result.TotalInvested
	metrics.TotalUnits = result.TotalUnits
	metrics.FinalValue = result.FinalValue()
	if result.TotalUnits > 0 {
		metrics.AverageCost = result.TotalInvested / result.TotalUnits
	}
	if result.Exit != nil {
		metrics.ExitReason = result.Exit.Reason
	}

	metrics.TotalReturn = TotalReturn(metrics.FinalValue, metrics.TotalInvested)
	metrics.AnnualizedReturn = AnnualizedReturn(metrics.TotalReturn, len(result.PortfolioValueSeries), result.SampleDays)
	metrics.SharpeRatio = SharpeRatio(result.PeriodReturns, result.IntervalDays)
	metrics.WinRate = WinRate(result.PeriodReturns)
	metrics.BestMonth, metrics.WorstMonth = MonthExtremes(result.PeriodReturns)
	metrics.MaxDrawdown = indicators.MaxDrawdown(result.PortfolioValueSeries)
	metrics.MaxConsecutiveWins, metrics.MaxConsecutiveLosses = streaks(result.PeriodReturns)

	return metrics
}

// TotalReturn is the percent gain of finalValue over invested. Zero when nothing was invested.
func TotalReturn(finalValue, invested float64) float64 {
	if invested <= 0 {
		return 0
	}
	return (finalValue - invested) / invested * 100
}

// AnnualizedReturn scales totalReturn linearly to a year:
// totalReturn × 365 / days, where days = samples × sampleDays.
//
// This is not compounded. It is only a fair approximation for horizons of
// about a year or less and grows without bound on long runs.
func AnnualizedReturn(totalReturn float64, samples int, sampleDays float64) float64 {
	if sampleDays <= 0 {
		sampleDays = 1
	}
	days := float64(samples) * sampleDays
	if days <= 0 {
		return 0
	}
	return totalReturn * daysPerYear / days
}

// SharpeRatio is mean/stddev of the period returns annualized by
// sqrt(252/intervalDays). A zero stddev is replaced by 1.
func SharpeRatio(periodReturns []float64, intervalDays float64) float64 {
	if len(periodReturns) == 0 || intervalDays <= 0 {
		return 0
	}
	std := indicators.StdDev(periodReturns)
	if std == 0 {
		std = 1
	}
	return indicators.Mean(periodReturns) / std * math.Sqrt(tradingDaysPerYear/intervalDays)
}

// WinRate returns the share of positive period returns in percent, 0 with no periods.
func WinRate(periodReturns []float64) float64 {
	if len(periodReturns) == 0 {
		return 0
	}
	var wins int
	for _, r := range periodReturns {
		if r > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(periodReturns)) * 100
}

// MonthExtremes sums period returns in chunks of 30 and returns the largest
// and smallest chunk sum. Both are 0 when there are no period returns.
func MonthExtremes(periodReturns []float64) (best, worst float64) {
	if len(periodReturns) == 0 {
		return 0, 0
	}
	best, worst = math.Inf(-1), math.Inf(1)
	for start := 0; start < len(periodReturns); start += monthChunk {
		end := min(start+monthChunk, len(periodReturns))
		var sum float64
		for _, r := range periodReturns[start:end] {
			sum += r
		}
		best = math.Max(best, sum)
		worst = math.Min(worst, sum)
	}
	return best, worst
}

func streaks(periodReturns []float64) (maxWins, maxLosses int) {
	var wins, losses int
	for _, r := range periodReturns {
		if r > 0 {
			wins++
			losses = 0
		} else {
			losses++
			wins = 0
		}
		maxWins = max(maxWins, wins)
		maxLosses = max(maxLosses, losses)
	}
	return maxWins, maxLosses
}
