package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backtestLab/internal/adapters/logger"
	"backtestLab/internal/domain"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"BTCUSDT"}, cfg.Symbols)
	assert.Equal(t, "1d", cfg.CandleInterval)
	assert.Equal(t, 365, cfg.CandleLimit)
	assert.Equal(t, 30*time.Second, cfg.RefreshTimeout)
	assert.Equal(t, logger.LevelInfo, cfg.LogLevel)
	assert.Equal(t, logger.FormatConsole, cfg.LogFormat)

	require.Len(t, cfg.Profiles, 1)
	p := cfg.Profiles[0]
	assert.Equal(t, "default", p.Name)
	assert.Equal(t, domain.IntervalWeekly, p.Strategy.Interval)
	assert.Equal(t, domain.KindStandard, p.Strategy.Kind)
	assert.Equal(t, 100.0, p.Strategy.AmountPerBuy)
	assert.Equal(t, 5200.0, p.Strategy.TotalBudget)

	assert.Equal(t, domain.RiskThresholds{PositionPct: 25, DailyLossPct: 5, PortfolioValue: 100000, DrawdownPct: 20}, cfg.Thresholds)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("SYMBOLS", "btcusdt, ethusdt,")
	t.Setenv("STRATEGY_KIND", "martingale")
	t.Setenv("STRATEGY_INTERVAL", "daily")
	t.Setenv("STRATEGY_AMOUNT_PER_BUY", "25")
	t.Setenv("STRATEGY_TOTAL_BUDGET", "1000")
	t.Setenv("RISK_DRAWDOWN_PCT", "35")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, cfg.Symbols)
	assert.Equal(t, domain.KindMartingale, cfg.Profiles[0].Strategy.Kind)
	assert.Equal(t, domain.IntervalDaily, cfg.Profiles[0].Strategy.Interval)
	assert.Equal(t, 25.0, cfg.Profiles[0].Strategy.AmountPerBuy)
	assert.Equal(t, 35.0, cfg.Thresholds.DrawdownPct)
	assert.Equal(t, logger.LevelDebug, cfg.LogLevel)
	assert.Equal(t, logger.FormatJSON, cfg.LogFormat)
}

func TestLoadConfig_CollectsErrors(t *testing.T) {
	t.Setenv("CANDLE_LIMIT", "abc")
	t.Setenv("STRATEGY_KIND", "grid")
	t.Setenv("STRATEGY_TOTAL_BUDGET", "10")
	t.Setenv("RISK_POSITION_PCT", "0")
	t.Setenv("LOG_FORMAT", "xml")

	_, err := LoadConfig()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "invalid CANDLE_LIMIT")
	assert.Contains(t, msg, "Kind")
	assert.Contains(t, msg, "TotalBudget")
	assert.Contains(t, msg, "PositionPct")
	assert.Contains(t, msg, "LOG_FORMAT")
}

func TestLoadConfig_ProfilesFile(t *testing.T) {
	path := writeFile(t, `
symbols: [SOLUSDT]
thresholds:
  drawdown_pct: 30
profiles:
  - name: weekly-dca
    strategy:
      amount_per_buy: 100
      total_budget: 5200
  - name: aggressive
    strategy:
      interval: daily
      kind: martingale
      amount_per_buy: 10
      total_budget: 1000
      stop_loss_pct: 25
`)
	t.Setenv("ANALYTICS_CONFIG_FILE", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"SOLUSDT"}, cfg.Symbols)
	require.Len(t, cfg.Profiles, 2)
	assert.Equal(t, domain.IntervalWeekly, cfg.Profiles[0].Strategy.Interval, "defaulted")
	assert.Equal(t, domain.KindStandard, cfg.Profiles[0].Strategy.Kind, "defaulted")
	assert.Equal(t, domain.KindMartingale, cfg.Profiles[1].Strategy.Kind)
	assert.Equal(t, 25.0, cfg.Profiles[1].Strategy.StopLossPct)
	assert.Equal(t, 30.0, cfg.Thresholds.DrawdownPct)
	assert.Equal(t, 25.0, cfg.Thresholds.PositionPct, "defaulted")
}

func TestLoadProfiles_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "no profiles", content: "symbols: [BTCUSDT]\n"},
		{name: "missing name", content: "profiles:\n  - strategy: {amount_per_buy: 1, total_budget: 2}\n"},
		{name: "budget below amount", content: "profiles:\n  - name: a\n    strategy: {amount_per_buy: 10, total_budget: 2}\n"},
		{name: "duplicate names", content: "profiles:\n  - name: a\n    strategy: {amount_per_buy: 1, total_budget: 2}\n  - name: a\n    strategy: {amount_per_buy: 1, total_budget: 2}\n"},
		{name: "malformed yaml", content: "profiles: [\n"},
		{name: "infinite budget", content: "profiles:\n  - name: a\n    strategy: {amount_per_buy: 1, total_budget: .inf}\n"},
		{name: "NaN amount", content: "profiles:\n  - name: a\n    strategy: {amount_per_buy: .nan, total_budget: 2}\n"},
		{name: "infinite threshold", content: "thresholds: {drawdown_pct: .inf}\nprofiles:\n  - name: a\n    strategy: {amount_per_buy: 1, total_budget: 2}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadProfiles(writeFile(t, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := LoadProfiles(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
