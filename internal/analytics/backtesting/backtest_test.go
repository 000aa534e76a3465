package backtesting

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backtestLab/internal/analytics/series"
	"backtestLab/internal/domain"
	"backtestLab/internal/ports"
)

func dailySeries(t *testing.T, closes ...float64) *domain.PriceSeries {
	t.Helper()
	ps, err := series.FromCloses(closes, 1)
	require.NoError(t, err)
	return ps
}

func dailyConfig(amount, budget float64) domain.StrategyConfig {
	return domain.StrategyConfig{
		Interval:     domain.IntervalDaily,
		AmountPerBuy: amount,
		TotalBudget:  budget,
		Kind:         domain.KindStandard,
	}
}

func TestSimulate_ReferenceScenario(t *testing.T) {
	result, err := Simulate(dailySeries(t, 100, 110, 90, 120), dailyConfig(50, 200))
	require.NoError(t, err)

	require.Len(t, result.Trades, 4)
	wantUnits := []float64{0.5, 0.4545, 0.5556, 0.4167}
	for i, tr := range result.Trades {
		assert.Equal(t, i, tr.Index)
		assert.InDelta(t, 50.0, tr.AmountInvested, 1e-9)
		assert.InDelta(t, wantUnits[i], tr.UnitsAcquired, 1e-4)
	}

	assert.InDelta(t, 200.0, result.TotalInvested, 1e-9)
	assert.InDelta(t, 1.9268, result.TotalUnits, 1e-4)
	assert.InDelta(t, 231.2, result.FinalValue(), 0.05)
	assert.Equal(t, []int{0, 1, 2, 3}, result.BuyIndices)
	assert.Equal(t, 1, result.IntervalSamples)
	assert.Equal(t, 1.0, result.IntervalDays)

	// Value just before each buy against value just after the previous buy
	require.Len(t, result.PeriodReturns, 3)
	assert.InDelta(t, 10.0, result.PeriodReturns[0], 1e-6)
	assert.InDelta(t, -18.181818, result.PeriodReturns[1], 1e-5)
	assert.InDelta(t, 33.333333, result.PeriodReturns[2], 1e-5)

	assert.InDeltaSlice(t, []float64{50, 100, 150, 200}, result.InvestedSeries, 1e-9)
	assert.Nil(t, result.Exit)
}

func TestSimulate_BudgetConservation(t *testing.T) {
	closes := make([]float64, 120)
	price := 100.0
	for i := range closes {
		switch {
		case i%5 == 0:
			price *= 0.93
		case i%3 == 0:
			price *= 1.08
		default:
			price *= 1.001
		}
		closes[i] = price
	}
	ps := dailySeries(t, closes...)

	kinds := []domain.StrategyKind{
		domain.KindStandard,
		domain.KindValueAveraging,
		domain.KindAntiMartingale,
		domain.KindMartingale,
	}
	budgets := []struct {
		amount, budget float64
		exhausts       bool
	}{
		{amount: 10, budget: 10, exhausts: true},
		{amount: 33.33, budget: 100, exhausts: true},
		{amount: 7, budget: 250, exhausts: true},
		{amount: 1, budget: 100000, exhausts: false},
		{amount: 0.1, budget: 0.3, exhausts: true},
		{amount: 0.1, budget: 0.7, exhausts: true},
	}

	for _, kind := range kinds {
		for _, b := range budgets {
			cfg := dailyConfig(b.amount, b.budget)
			cfg.Kind = kind
			result, err := Simulate(ps, cfg)
			require.NoError(t, err)

			var sum float64
			for _, tr := range result.Trades {
				assert.Greater(t, tr.AmountInvested, 0.0)
				sum += tr.AmountInvested
			}
			assert.LessOrEqual(t, sum, b.budget, "kind=%s amount=%f", kind, b.amount)
			assert.Equal(t, sum, result.TotalInvested)
			if b.exhausts {
				assert.InDelta(t, b.budget, sum, 1e-6, "kind=%s amount=%f should exhaust budget", kind, b.amount)
			}
			assert.Len(t, result.PortfolioValueSeries, len(closes))
		}
	}
}

func TestSimulate_StopsBuyingWhenBudgetExhausted(t *testing.T) {
	result, err := Simulate(dailySeries(t, 100, 100, 100, 200, 50), dailyConfig(50, 120))
	require.NoError(t, err)

	require.Len(t, result.Trades, 3)
	assert.InDelta(t, 20.0, result.Trades[2].AmountInvested, 1e-9, "last buy is the remainder")
	assert.InDelta(t, 120.0, result.TotalInvested, 1e-9)

	// Marked to market after the last buy
	assert.InDelta(t, 1.2*200, result.PortfolioValueSeries[3], 1e-9)
	assert.InDelta(t, 1.2*50, result.PortfolioValueSeries[4], 1e-9)
	assert.Len(t, result.PeriodReturns, 2)
}

func TestSimulate_WeeklyIntervalOnDailySeries(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	cfg := dailyConfig(10, 1000)
	cfg.Interval = domain.IntervalWeekly

	result, err := Simulate(dailySeries(t, closes...), cfg)
	require.NoError(t, err)
	assert.Equal(t, 7, result.IntervalSamples)
	assert.Equal(t, []int{0, 7, 14, 21, 28}, result.BuyIndices)
	assert.Equal(t, 0.0, result.PortfolioValueSeries[0]-10)
}

func TestSimulate_Errors(t *testing.T) {
	ps := dailySeries(t, 100, 101, 102, 103, 104)

	tests := []struct {
		name    string
		ps      *domain.PriceSeries
		mutate  func(*domain.StrategyConfig)
		wantErr error
	}{
		{
			name:    "budget below amount per buy",
			ps:      ps,
			mutate:  func(c *domain.StrategyConfig) { c.TotalBudget = 40; c.AmountPerBuy = 50 },
			wantErr: ports.ErrInvalidConfig,
		},
		{
			name:    "zero amount",
			ps:      ps,
			mutate:  func(c *domain.StrategyConfig) { c.AmountPerBuy = 0 },
			wantErr: ports.ErrInvalidConfig,
		},
		{
			name:    "negative budget",
			ps:      ps,
			mutate:  func(c *domain.StrategyConfig) { c.TotalBudget = -1 },
			wantErr: ports.ErrInvalidConfig,
		},
		{
			name:    "unknown strategy kind",
			ps:      ps,
			mutate:  func(c *domain.StrategyConfig) { c.Kind = "grid" },
			wantErr: ports.ErrInvalidConfig,
		},
		{
			name:    "unknown interval",
			ps:      ps,
			mutate:  func(c *domain.StrategyConfig) { c.Interval = "hourly" },
			wantErr: ports.ErrInvalidConfig,
		},
		{
			name:    "stop loss of 100 percent",
			ps:      ps,
			mutate:  func(c *domain.StrategyConfig) { c.StopLossPct = 100 },
			wantErr: ports.ErrInvalidConfig,
		},
		{
			name:    "series shorter than one interval",
			ps:      ps,
			mutate:  func(c *domain.StrategyConfig) { c.Interval = domain.IntervalWeekly },
			wantErr: ports.ErrInsufficientData,
		},
		{
			name:    "infinite budget and amount",
			ps:      ps,
			mutate:  func(c *domain.StrategyConfig) { c.AmountPerBuy = math.Inf(1); c.TotalBudget = math.Inf(1) },
			wantErr: ports.ErrInvalidConfig,
		},
		{
			name:    "infinite budget",
			ps:      ps,
			mutate:  func(c *domain.StrategyConfig) { c.TotalBudget = math.Inf(1) },
			wantErr: ports.ErrInvalidConfig,
		},
		{
			name:    "NaN take profit",
			ps:      ps,
			mutate:  func(c *domain.StrategyConfig) { c.TakeProfitPct = math.NaN() },
			wantErr: ports.ErrInvalidConfig,
		},
		{
			name:    "zero close in hand-built series",
			ps:      &domain.PriceSeries{Closes: []float64{100, 0, 90, 120}, SampleDays: 1},
			mutate:  func(c *domain.StrategyConfig) {},
			wantErr: ports.ErrInvalidSeries,
		},
		{
			name:    "highs shorter than closes",
			ps:      &domain.PriceSeries{Closes: []float64{100, 110, 90}, Highs: []float64{101}, SampleDays: 1},
			mutate:  func(c *domain.StrategyConfig) {},
			wantErr: ports.ErrInvalidSeries,
		},
		{
			name:    "nil series",
			ps:      nil,
			mutate:  func(c *domain.StrategyConfig) {},
			wantErr: ports.ErrInvalidSeries,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := dailyConfig(50, 200)
			tt.mutate(&cfg)
			result, err := Simulate(tt.ps, cfg)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSimulate_StopLossAndTakeProfit(t *testing.T) {
	t.Run("stop loss liquidates and freezes value", func(t *testing.T) {
		cfg := dailyConfig(50, 1000)
		cfg.StopLossPct = 10
		result, err := Simulate(dailySeries(t, 100, 100, 80, 90, 200), cfg)
		require.NoError(t, err)

		require.NotNil(t, result.Exit)
		assert.Equal(t, domain.CloseReasonStopLoss, result.Exit.Reason)
		assert.Equal(t, 2, result.Exit.Index)
		assert.InDelta(t, 80.0, result.Exit.Value, 1e-9)
		assert.Len(t, result.Trades, 2)
		assert.InDeltaSlice(t, []float64{50, 100, 80, 80, 80}, result.PortfolioValueSeries, 1e-9)
	})

	t.Run("take profit liquidates", func(t *testing.T) {
		cfg := dailyConfig(50, 1000)
		cfg.TakeProfitPct = 15
		result, err := Simulate(dailySeries(t, 100, 120, 60), cfg)
		require.NoError(t, err)

		require.NotNil(t, result.Exit)
		assert.Equal(t, domain.CloseReasonTakeProfit, result.Exit.Reason)
		assert.Equal(t, 1, result.Exit.Index)
		assert.InDelta(t, 60.0, result.PortfolioValueSeries[2], 1e-9)
		assert.Len(t, result.Trades, 1)
	})
}

func TestSimulate_SizingRules(t *testing.T) {
	tests := []struct {
		name    string
		kind    domain.StrategyKind
		closes  []float64
		amounts []float64
	}{
		{
			name:    "standard",
			kind:    domain.KindStandard,
			closes:  []float64{100, 90, 80, 120},
			amounts: []float64{10, 10, 10, 10},
		},
		{
			name:    "martingale doubles after a lower price",
			kind:    domain.KindMartingale,
			closes:  []float64{100, 90, 80, 120},
			amounts: []float64{10, 20, 40, 10},
		},
		{
			name:    "anti-martingale grows after a higher price",
			kind:    domain.KindAntiMartingale,
			closes:  []float64{100, 110, 120, 90},
			amounts: []float64{10, 15, 22.5, 10},
		},
		{
			name:    "value averaging tops up to the target",
			kind:    domain.KindValueAveraging,
			closes:  []float64{100, 50, 200},
			amounts: []float64{10, 15, 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := dailyConfig(10, 1000)
			cfg.Kind = tt.kind
			result, err := Simulate(dailySeries(t, tt.closes...), cfg)
			require.NoError(t, err)
			require.Len(t, result.Trades, len(tt.amounts))
			for i, want := range tt.amounts {
				assert.InDelta(t, want, result.Trades[i].AmountInvested, 1e-9, "buy %d", i)
			}
		})
	}
}

func TestIntervalSamples(t *testing.T) {
	tests := []struct {
		name       string
		interval   domain.BuyInterval
		sampleDays float64
		want       int
	}{
		{name: "daily on daily", interval: domain.IntervalDaily, sampleDays: 1, want: 1},
		{name: "weekly on daily", interval: domain.IntervalWeekly, sampleDays: 1, want: 7},
		{name: "weekly on hourly", interval: domain.IntervalWeekly, sampleDays: 1.0 / 24, want: 168},
		{name: "monthly on weekly", interval: domain.IntervalMonthly, sampleDays: 7, want: 4},
		{name: "daily on weekly floors at one", interval: domain.IntervalDaily, sampleDays: 7, want: 1},
		{name: "unknown interval", interval: "hourly", sampleDays: 1, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IntervalSamples(tt.interval, tt.sampleDays))
		})
	}
}
