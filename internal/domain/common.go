package domain

// BuyInterval is how often the periodic-investment strategy buys.
type BuyInterval string

const (
	IntervalDaily   BuyInterval = "daily"
	IntervalWeekly  BuyInterval = "weekly"
	IntervalMonthly BuyInterval = "monthly"
)

// Days returns the interval length in days, or 0 for an unknown interval.
func (b BuyInterval) Days() int {
	switch b {
	case IntervalDaily:
		return 1
	case IntervalWeekly:
		return 7
	case IntervalMonthly:
		return 30
	default:
		return 0
	}
}

// StrategyKind selects the sizing rule applied to each periodic buy.
type StrategyKind string

const (
	KindStandard       StrategyKind = "standard"
	KindValueAveraging StrategyKind = "value-averaging"
	KindAntiMartingale StrategyKind = "anti-martingale"
	KindMartingale     StrategyKind = "martingale"
)

// CloseReason indicates why a simulated position was liquidated.
type CloseReason string

const (
	CloseReasonStopLoss   CloseReason = "SL"
	CloseReasonTakeProfit CloseReason = "TP"
)

// StrategyConfig describes one periodic-investment strategy run.
// Percentages are expressed in percent (5 means 5%). Zero disables stop-loss / take-profit.
type StrategyConfig struct {
	Interval      BuyInterval  `yaml:"interval" default:"weekly" validate:"oneof=daily weekly monthly"`
	AmountPerBuy  float64      `yaml:"amount_per_buy" validate:"finite,gt=0"`
	TotalBudget   float64      `yaml:"total_budget" validate:"finite,gtefield=AmountPerBuy"`
	StopLossPct   float64      `yaml:"stop_loss_pct" validate:"finite,gte=0,lt=100"`
	TakeProfitPct float64      `yaml:"take_profit_pct" validate:"finite,gte=0"`
	Kind          StrategyKind `yaml:"kind" default:"standard" validate:"oneof=standard value-averaging anti-martingale martingale"`
}
