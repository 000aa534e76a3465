package curves

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backtestLab/internal/analytics/backtesting"
	"backtestLab/internal/analytics/series"
	"backtestLab/internal/domain"
	"backtestLab/internal/ports"
)

func run(t *testing.T, closes []float64, cfg domain.StrategyConfig) (*domain.PriceSeries, *domain.SimulationResult) {
	t.Helper()
	ps, err := series.FromCloses(closes, 1)
	require.NoError(t, err)
	sim, err := backtesting.Simulate(ps, cfg)
	require.NoError(t, err)
	return ps, sim
}

func TestGenerate(t *testing.T) {
	ps, sim := run(t, []float64{100, 110, 90, 120}, domain.StrategyConfig{
		Interval:     domain.IntervalDaily,
		AmountPerBuy: 50,
		TotalBudget:  200,
		Kind:         domain.KindStandard,
	})

	c, err := Generate(ps, sim)
	require.NoError(t, err)

	assert.Equal(t, 4, c.Len())
	assert.Len(t, c.Benchmark, 4)
	assert.Len(t, c.Drawdown, 4)
	assert.Len(t, c.Underwater, 4)
	assert.Len(t, c.Timestamps, 4)

	assert.InDeltaSlice(t, []float64{0, 10, -10, 20}, c.Benchmark, 1e-9)
	assert.Equal(t, 0.0, c.CumulativeReturn[0], "first sample buys at its own close")
	assert.InDelta(t, 5.0, c.CumulativeReturn[1], 1e-9)
	assert.InDelta(t, 15.606, c.CumulativeReturn[3], 1e-2)
	assert.InDeltaSlice(t, []float64{0, 0, 0, 0}, c.Drawdown, 1e-9)
}

func TestGenerate_DrawdownToDate(t *testing.T) {
	// Budget runs out after two buys, then the value is marked to market
	ps, sim := run(t, []float64{100, 100, 50, 75, 150, 120}, domain.StrategyConfig{
		Interval:     domain.IntervalDaily,
		AmountPerBuy: 50,
		TotalBudget:  100,
		Kind:         domain.KindStandard,
	})

	c, err := Generate(ps, sim)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{0, 0, 50, 50, 50, 50}, c.Drawdown, 1e-9)
	assert.InDeltaSlice(t, []float64{0, 0, 50, 25, 0, 20}, c.Underwater, 1e-9)
	for i := 1; i < c.Len(); i++ {
		assert.GreaterOrEqual(t, c.Drawdown[i], c.Drawdown[i-1], "drawdown to date never decreases")
	}
	assert.InDelta(t, -50.0, c.CumulativeReturn[2], 1e-9)
	assert.InDelta(t, 20.0, c.CumulativeReturn[5], 1e-9)
}

func TestGenerate_Errors(t *testing.T) {
	ps, sim := run(t, []float64{100, 110, 90}, domain.StrategyConfig{
		Interval:     domain.IntervalDaily,
		AmountPerBuy: 10,
		TotalBudget:  100,
		Kind:         domain.KindStandard,
	})

	_, err := Generate(ps, nil)
	assert.ErrorIs(t, err, ports.ErrInvalidSeries)

	short, err := series.FromCloses([]float64{100, 110}, 1)
	require.NoError(t, err)
	_, err = Generate(short, sim)
	assert.ErrorIs(t, err, ports.ErrInvalidSeries)
}
