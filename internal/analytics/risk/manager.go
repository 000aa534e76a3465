package risk

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"backtestLab/internal/analytics/indicators"
	"backtestLab/internal/domain"
	"backtestLab/internal/ports"
)

const (
	legacyVaR95Factor = 0.05
	legacyVaR99Factor = 0.10
)

var validate = domain.NewValidator()

// RiskMetrics is the full risk reading of one series and, optionally, one simulation.
type RiskMetrics struct {
	Scores      RiskScores
	OverallRisk float64
	Level       domain.RiskLevel

	AnnualizedVolatility float64 // %
	MaxDrawdown          float64 // % of portfolio value, or of price without a simulation
	SimulatedDays        float64

	// VaR95 and VaR99 are fixed fractions of portfolio value, not percentiles.
	VaR95 float64
	VaR99 float64
	// EmpiricalVaR95 and EmpiricalVaR99 are the 5th/1st percentile period
	// losses applied to portfolio value. Zero without period returns.
	EmpiricalVaR95 float64
	EmpiricalVaR99 float64

	Limits []domain.RiskLimit
}

// Assessment is the input to RiskManager.Assess.
type Assessment struct {
	Series     *domain.PriceSeries
	Simulation *domain.SimulationResult // Optional
	Strategy   domain.StrategyConfig
	Market     domain.MarketContext
}

// RiskManager scores series and simulations against a fixed set of thresholds.
// It holds no mutable state and is safe for concurrent use.
type RiskManager struct {
	thresholds domain.RiskThresholds
}

// NewRiskManager validates the thresholds and creates a risk manager.
func NewRiskManager(thresholds domain.RiskThresholds) (*RiskManager, error) {
	if err := validate.Struct(thresholds); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fmt.Errorf("risk threshold %s must be a positive finite number: %w", verrs[0].Field(), ports.ErrInvalidConfig)
		}
		return nil, fmt.Errorf("risk thresholds: %v: %w", err, ports.ErrInvalidConfig)
	}
	return &RiskManager{thresholds: thresholds}, nil
}

// Thresholds returns the limits this manager compares against.
func (r *RiskManager) Thresholds() domain.RiskThresholds {
	return r.thresholds
}

// Assess computes the five risk dimensions, the composite, VaR and limits.
//
// Drawdown is read from the simulation's portfolio value when a simulation is
// given, and from the closes otherwise.
func (r *RiskManager) Assess(a Assessment) (*RiskMetrics, error) {
	if a.Series.Len() < 2 {
		return nil, fmt.Errorf("risk assessment needs at least 2 samples, got %d: %w", a.Series.Len(), ports.ErrInvalidSeries)
	}

	m := &RiskMetrics{
		AnnualizedVolatility: AnnualizedVolatility(a.Series.Closes, a.Series.SampleDays),
		SimulatedDays:        float64(a.Series.Len()) * sampleDaysOrDaily(a.Series.SampleDays),
	}
	if a.Simulation != nil {
		m.MaxDrawdown = indicators.MaxDrawdown(a.Simulation.PortfolioValueSeries)
	} else {
		m.MaxDrawdown = indicators.MaxDrawdown(a.Series.Closes)
	}

	m.Scores = RiskScores{
		Volatility: VolatilityScore(m.AnnualizedVolatility),
		Liquidity:  LiquidityScore(a.Market.QuoteVolume24h),
		Drawdown:   DrawdownScore(m.MaxDrawdown),
		Strategy:   StrategyScore(a.Strategy.Kind),
		Duration:   DurationScore(m.SimulatedDays),
	}
	m.OverallRisk = m.Scores.Overall()
	m.Level = LevelFor(m.OverallRisk)

	portfolioValue := a.Simulation.FinalValue()
	m.VaR95, m.VaR99 = LegacyVaR(portfolioValue)
	if a.Simulation != nil {
		m.EmpiricalVaR95, m.EmpiricalVaR99 = EmpiricalVaR(a.Simulation.PeriodReturns, portfolioValue)
	}

	limits, err := BuildLimits(readingsFor(a.Simulation, a.Strategy.TotalBudget, m.MaxDrawdown), r.thresholds)
	if err != nil {
		return nil, err
	}
	m.Limits = limits

	return m, nil
}

// LegacyVaR returns the fixed-fraction heuristic: 5% and 10% of portfolio value.
func LegacyVaR(portfolioValue float64) (var95, var99 float64) {
	return portfolioValue * legacyVaR95Factor, portfolioValue * legacyVaR99Factor
}

// EmpiricalVaR returns the loss implied by the 5th and 1st percentile period
// return, applied to portfolio value. Gains at those percentiles give 0.
func EmpiricalVaR(periodReturns []float64, portfolioValue float64) (var95, var99 float64) {
	if len(periodReturns) == 0 || portfolioValue <= 0 {
		return 0, 0
	}
	loss := func(p float64) float64 {
		return math.Max(0, -indicators.Percentile(periodReturns, p)) / 100 * portfolioValue
	}
	return loss(5), loss(1)
}

func sampleDaysOrDaily(sampleDays float64) float64 {
	if sampleDays <= 0 {
		return 1
	}
	return sampleDays
}
