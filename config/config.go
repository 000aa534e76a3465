package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"

	"backtestLab/internal/adapters/logger"
	"backtestLab/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	// Binance API (market data only; keys are optional)
	APIKey     string
	SecretKey  string
	IsTestnet  bool
	BinanceURL string // Overrides the endpoint when set

	// Analysis
	Symbols         []string
	CandleInterval  string        // Binance kline interval, e.g. "1d"
	CandleLimit     int           // Candles fetched per refresh
	RefreshSchedule string        // Cron spec, e.g. "@every 1h"
	RefreshTimeout  time.Duration // Budget for one refresh of one key
	RSIPeriod       int

	// Strategy profiles and risk limits, from ProfilesFile or the STRATEGY_*/RISK_* variables
	ProfilesFile string
	Profiles     []Profile
	Thresholds   domain.RiskThresholds

	// Database
	DBPath string

	// Logging
	LogLevel  logger.LogLevel
	LogFormat logger.Format
}

// LoadConfig loads configuration from environment variables (.env file) and,
// when ANALYTICS_CONFIG_FILE is set, from a YAML profiles file.
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Binance API
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", false)
	cfg.BinanceURL = getEnv("BINANCE_BASE_URL", "")

	// Analysis
	cfg.Symbols = splitList(getEnv("SYMBOLS", "BTCUSDT"))
	cfg.CandleInterval = getEnv("CANDLE_INTERVAL", "1d")
	cfg.RefreshSchedule = getEnv("REFRESH_SCHEDULE", "@every 1h")

	cfg.CandleLimit, err = getEnvAsIntRequired("CANDLE_LIMIT", 365)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid CANDLE_LIMIT: %v", err))
	} else if cfg.CandleLimit < 2 || cfg.CandleLimit > 1500 {
		errs = append(errs, "CANDLE_LIMIT must be between 2 and 1500")
	}

	refreshTimeoutSeconds := getEnvAsInt("REFRESH_TIMEOUT_SECONDS", 30)
	if refreshTimeoutSeconds <= 0 {
		errs = append(errs, "REFRESH_TIMEOUT_SECONDS must be positive")
	}
	cfg.RefreshTimeout = time.Duration(refreshTimeoutSeconds) * time.Second

	cfg.RSIPeriod = getEnvAsInt("RSI_PERIOD", 14)
	if cfg.RSIPeriod <= 0 {
		errs = append(errs, "RSI_PERIOD must be positive")
	}

	// Profiles
	cfg.ProfilesFile = getEnv("ANALYTICS_CONFIG_FILE", "")
	if cfg.ProfilesFile != "" {
		f, err := LoadProfiles(cfg.ProfilesFile)
		if err != nil {
			errs = append(errs, err.Error())
		} else {
			cfg.Profiles = f.Profiles
			cfg.Thresholds = f.Thresholds
			if len(f.Symbols) > 0 {
				cfg.Symbols = f.Symbols
			}
		}
	} else {
		profile, thresholds, envErrs := profileFromEnv()
		errs = append(errs, envErrs...)
		cfg.Profiles = []Profile{profile}
		cfg.Thresholds = thresholds
	}

	if len(cfg.Symbols) == 0 {
		errs = append(errs, "SYMBOLS must list at least one symbol")
	}

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/reports.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Logging
	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))
	cfg.LogFormat = logger.Format(strings.ToLower(getEnv("LOG_FORMAT", string(logger.FormatConsole))))
	if cfg.LogFormat != logger.FormatConsole && cfg.LogFormat != logger.FormatJSON {
		errs = append(errs, "LOG_FORMAT must be 'console' or 'json'")
	}

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// profileFromEnv builds the single "default" profile and risk limits from
// STRATEGY_* and RISK_* variables.
func profileFromEnv() (Profile, domain.RiskThresholds, []string) {
	var errs []string
	p := Profile{Name: getEnv("STRATEGY_NAME", "default")}
	var t domain.RiskThresholds
	if err := defaults.Set(&p); err != nil {
		errs = append(errs, err.Error())
	}
	if err := defaults.Set(&t); err != nil {
		errs = append(errs, err.Error())
	}

	p.Strategy.Interval = domain.BuyInterval(getEnv("STRATEGY_INTERVAL", string(p.Strategy.Interval)))
	p.Strategy.Kind = domain.StrategyKind(getEnv("STRATEGY_KIND", string(p.Strategy.Kind)))

	floats := []struct {
		key string
		dst *float64
		def float64
	}{
		{"STRATEGY_AMOUNT_PER_BUY", &p.Strategy.AmountPerBuy, 100},
		{"STRATEGY_TOTAL_BUDGET", &p.Strategy.TotalBudget, 5200},
		{"STRATEGY_STOP_LOSS_PCT", &p.Strategy.StopLossPct, 0},
		{"STRATEGY_TAKE_PROFIT_PCT", &p.Strategy.TakeProfitPct, 0},
		{"RISK_POSITION_PCT", &t.PositionPct, t.PositionPct},
		{"RISK_DAILY_LOSS_PCT", &t.DailyLossPct, t.DailyLossPct},
		{"RISK_PORTFOLIO_VALUE", &t.PortfolioValue, t.PortfolioValue},
		{"RISK_DRAWDOWN_PCT", &t.DrawdownPct, t.DrawdownPct},
	}
	for _, f := range floats {
		v, err := getEnvAsFloatRequired(f.key, f.def)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s: %v", f.key, err))
			continue
		}
		*f.dst = v
	}

	if err := validate.Struct(&p); err != nil {
		errs = append(errs, "strategy: "+describe(err))
	}
	if err := validate.Struct(&t); err != nil {
		errs = append(errs, "risk thresholds: "+describe(err))
	}
	return p, t, errs
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToUpper(part))
		}
	}
	return out
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
