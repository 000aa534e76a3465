// Package engine composes the analytics packages into a single call:
// normalize, simulate, score performance and risk, segment regimes and
// build curves. Run is a pure function of its Request.
package engine

import (
	"fmt"

	"backtestLab/internal/analytics/backtesting"
	"backtestLab/internal/analytics/curves"
	"backtestLab/internal/analytics/indicators"
	"backtestLab/internal/analytics/performance"
	"backtestLab/internal/analytics/regime"
	"backtestLab/internal/analytics/risk"
	"backtestLab/internal/analytics/series"
	"backtestLab/internal/domain"
	"backtestLab/internal/ports"
)

// Request is everything one analysis needs. Exactly one of Candles or Series is used;
// Series wins when both are set.
type Request struct {
	Candles    []*domain.Candle
	Series     *domain.PriceSeries
	Strategy   domain.StrategyConfig
	Market     domain.MarketContext
	Thresholds domain.RiskThresholds
	// RSIPeriod defaults to indicators.DefaultRSIPeriod.
	RSIPeriod int
}

// Report is the read-only outcome of Run.
type Report struct {
	Series      *domain.PriceSeries
	Strategy    domain.StrategyConfig
	Market      domain.MarketContext
	Simulation  *domain.SimulationResult
	Performance *performance.PerformanceMetrics
	Risk        *risk.RiskMetrics
	Regimes     *regime.Result
	Curves      *curves.Curves
}

// Run executes the whole pipeline. Any error aborts it and no partial report
// is returned.
func Run(req Request) (*Report, error) {
	ps := req.Series
	if ps == nil {
		var err error
		ps, err = series.Normalize(req.Candles)
		if err != nil {
			return nil, err
		}
	} else if err := series.Validate(ps); err != nil {
		return nil, err
	}

	rm, err := risk.NewRiskManager(req.Thresholds)
	if err != nil {
		return nil, err
	}

	sim, err := backtesting.Simulate(ps, req.Strategy)
	if err != nil {
		return nil, err
	}

	riskMetrics, err := rm.Assess(risk.Assessment{
		Series:     ps,
		Simulation: sim,
		Strategy:   req.Strategy,
		Market:     req.Market,
	})
	if err != nil {
		return nil, fmt.Errorf("risk: %w", err)
	}

	period := req.RSIPeriod
	if period <= 0 {
		period = indicators.DefaultRSIPeriod
	}
	regimes, err := regime.Segment(ps, period, sim.IntervalSamples)
	if err != nil {
		return nil, fmt.Errorf("regime: %w", err)
	}

	c, err := curves.Generate(ps, sim)
	if err != nil {
		return nil, fmt.Errorf("curves: %w", err)
	}

	return &Report{
		Series:      ps,
		Strategy:    req.Strategy,
		Market:      req.Market,
		Simulation:  sim,
		Performance: performance.AnalyzePerformance(sim),
		Risk:        riskMetrics,
		Regimes:     regimes,
		Curves:      c,
	}, nil
}

// Summary flattens the headline figures of a report for storage.
func (r *Report) Summary(key string, generation uint64) *ports.ReportSummary {
	s := &ports.ReportSummary{
		Key:          key,
		Symbol:       r.Market.Symbol,
		StrategyKind: string(r.Strategy.Kind),
		Interval:     string(r.Strategy.Interval),
		Generation:   generation,
		Samples:      r.Series.Len(),
	}
	if p := r.Performance; p != nil {
		s.TotalInvested = p.TotalInvested
		s.FinalValue = p.FinalValue
		s.TotalReturn = p.TotalReturn
		s.AnnualizedReturn = p.AnnualizedReturn
		s.SharpeRatio = p.SharpeRatio
		s.WinRate = p.WinRate
		s.MaxDrawdown = p.MaxDrawdown
	}
	if rk := r.Risk; rk != nil {
		s.OverallRisk = rk.OverallRisk
		s.RiskLevel = string(rk.Level)
	}
	return s
}
