package curves

import (
	"fmt"
	"time"

	"backtestLab/internal/analytics/indicators"
	"backtestLab/internal/domain"
	"backtestLab/internal/ports"
)

// Curves are aligned per-sample sequences for charting. Every slice has one
// element per sample of the simulated series.
type Curves struct {
	Timestamps []time.Time
	// Portfolio value relative to capital invested to date, %. Zero before the first buy.
	CumulativeReturn []float64
	// Buy-and-hold of the underlying from the first close, %.
	Benchmark []float64
	// Max drawdown of portfolio value observed up to each sample, %.
	Drawdown []float64
	// Decline from the running peak at each sample, %.
	Underwater []float64
}

// Len returns the number of points on each curve.
func (c *Curves) Len() int {
	return len(c.CumulativeReturn)
}

// Generate builds the curves for a simulation over ps.
func Generate(ps *domain.PriceSeries, sim *domain.SimulationResult) (*Curves, error) {
	if ps.Len() == 0 || sim == nil {
		return nil, fmt.Errorf("curves need a series and a simulation: %w", ports.ErrInvalidSeries)
	}
	n := ps.Len()
	if len(sim.PortfolioValueSeries) != n || len(sim.InvestedSeries) != n {
		return nil, fmt.Errorf("simulation covers %d samples, series has %d: %w",
			len(sim.PortfolioValueSeries), n, ports.ErrInvalidSeries)
	}

	c := &Curves{
		Timestamps:       ps.Timestamps,
		CumulativeReturn: make([]float64, n),
		Benchmark:        make([]float64, n),
		Drawdown:         indicators.RunningMaxDrawdown(sim.PortfolioValueSeries),
		Underwater:       indicators.DrawdownSeries(sim.PortfolioValueSeries),
	}

	base := ps.Closes[0]
	for i := 0; i < n; i++ {
		c.CumulativeReturn[i] = indicators.PercentChange(sim.InvestedSeries[i], sim.PortfolioValueSeries[i])
		c.Benchmark[i] = indicators.PercentChange(base, ps.Closes[i])
	}
	return c, nil
}
