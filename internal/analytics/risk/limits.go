package risk

import (
	"fmt"

	"backtestLab/internal/domain"
	"backtestLab/internal/ports"
)

// band returns how many of the ascending bounds value has reached.
// Risk levels and limit statuses both go through it.
func band(value float64, bounds ...float64) int {
	for i, b := range bounds {
		if value < b {
			return i
		}
	}
	return len(bounds)
}

// LevelFor bands a 0-100 score: <25 low, <50 medium, <75 high, else very-high.
func LevelFor(score float64) domain.RiskLevel {
	levels := [...]domain.RiskLevel{domain.RiskLow, domain.RiskMedium, domain.RiskHigh, domain.RiskVeryHigh}
	return levels[band(score, 25, 50, 75)]
}

// StatusFor bands current/limit: <0.7 safe, <0.9 warning, else danger.
// A non-positive limit is always danger.
func StatusFor(current, limit float64) domain.LimitStatus {
	if limit <= 0 {
		return domain.StatusDanger
	}
	statuses := [...]domain.LimitStatus{domain.StatusSafe, domain.StatusWarning, domain.StatusDanger}
	return statuses[band(current/limit, 0.7, 0.9)]
}

// NewLimit builds a RiskLimit with its status derived from current and limit.
func NewLimit(kind domain.LimitKind, current, limit float64) (domain.RiskLimit, error) {
	if limit <= 0 {
		return domain.RiskLimit{}, fmt.Errorf("%s limit must be positive, got %f: %w", kind, limit, ports.ErrInvalidConfig)
	}
	return domain.RiskLimit{
		Kind:    kind,
		Current: current,
		Limit:   limit,
		Status:  StatusFor(current, limit),
	}, nil
}

// LimitReadings are the current values compared against RiskThresholds.
type LimitReadings struct {
	PositionPct    float64
	DailyLossPct   float64
	PortfolioValue float64
	DrawdownPct    float64
}

// BuildLimits pairs each reading with its threshold, in the order
// position, daily, portfolio, drawdown.
func BuildLimits(r LimitReadings, t domain.RiskThresholds) ([]domain.RiskLimit, error) {
	pairs := []struct {
		kind           domain.LimitKind
		current, limit float64
	}{
		{domain.LimitPosition, r.PositionPct, t.PositionPct},
		{domain.LimitDaily, r.DailyLossPct, t.DailyLossPct},
		{domain.LimitPortfolio, r.PortfolioValue, t.PortfolioValue},
		{domain.LimitDrawdown, r.DrawdownPct, t.DrawdownPct},
	}

	limits := make([]domain.RiskLimit, 0, len(pairs))
	for _, p := range pairs {
		l, err := NewLimit(p.kind, p.current, p.limit)
		if err != nil {
			return nil, err
		}
		limits = append(limits, l)
	}
	return limits, nil
}

// readingsFor derives limit readings from a simulation. Budget is the
// configured total budget the position reading is measured against.
func readingsFor(sim *domain.SimulationResult, budget, drawdownPct float64) LimitReadings {
	r := LimitReadings{DrawdownPct: drawdownPct}
	if sim == nil {
		return r
	}

	if budget > 0 {
		var largest float64
		for _, tr := range sim.Trades {
			largest = max(largest, tr.AmountInvested)
		}
		r.PositionPct = largest / budget * 100
	}

	pv := sim.PortfolioValueSeries
	for i := 1; i < len(pv); i++ {
		if pv[i-1] <= 0 {
			continue
		}
		// A buy adds capital, so only compare the value of the units held before it.
		heldValue := pv[i]
		if sim.InvestedSeries != nil && i < len(sim.InvestedSeries) {
			heldValue -= sim.InvestedSeries[i] - sim.InvestedSeries[i-1]
		}
		if loss := (pv[i-1] - heldValue) / pv[i-1] * 100; loss > r.DailyLossPct {
			r.DailyLossPct = loss
		}
	}

	r.PortfolioValue = sim.FinalValue()
	return r
}
