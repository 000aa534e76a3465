package domain

// RiskLevel is the banded reading of a 0–100 risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskVeryHigh RiskLevel = "very-high"
)

// LimitKind names one of the four user-editable risk limits.
type LimitKind string

const (
	LimitPosition  LimitKind = "position"
	LimitDaily     LimitKind = "daily"
	LimitPortfolio LimitKind = "portfolio"
	LimitDrawdown  LimitKind = "drawdown"
)

// LimitStatus is derived from current/limit, never set by hand.
type LimitStatus string

const (
	StatusSafe    LimitStatus = "safe"
	StatusWarning LimitStatus = "warning"
	StatusDanger  LimitStatus = "danger"
)

// RiskLimit compares a current reading against a configured threshold.
// Build it with risk.NewLimit so Status stays consistent with Current and Limit.
type RiskLimit struct {
	Kind    LimitKind
	Current float64
	Limit   float64
	Status  LimitStatus
}

// RiskThresholds are the four limits supplied by the configuration surface.
type RiskThresholds struct {
	// Largest single buy, % of budget
	PositionPct float64 `yaml:"position_pct" default:"25" validate:"finite,gt=0"`
	// Worst single-sample portfolio loss, %
	DailyLossPct float64 `yaml:"daily_loss_pct" default:"5" validate:"finite,gt=0"`
	// Final portfolio value in quote currency
	PortfolioValue float64 `yaml:"portfolio_value" default:"100000" validate:"finite,gt=0"`
	// Max drawdown of the portfolio value, %
	DrawdownPct float64 `yaml:"drawdown_pct" default:"20" validate:"finite,gt=0"`
}

// RegimeBucket collects forward returns observed while RSI sat inside
// [RSILowerBound, RSIUpperBound). The last bucket also includes 100.
type RegimeBucket struct {
	Label          string
	RSILowerBound  float64
	RSIUpperBound  float64
	ForwardReturns []float64
}
