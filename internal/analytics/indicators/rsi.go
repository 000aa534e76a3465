package indicators

import "fmt"

const (
	// DefaultRSIPeriod is the lookback used by the regime segmenter.
	DefaultRSIPeriod = 14

	// Readings below DefaultRSIOversold or at/above DefaultRSIOverbought are
	// the extreme regimes.
	DefaultRSIOversold   = 30
	DefaultRSIOverbought = 70

	// rsiFloor keeps the average gain and loss away from zero.
	rsiFloor = 1e-3
)

// RSIConfig holds configuration for the RSI indicator
type RSIConfig struct {
	IndicatorConfig
	Overbought float64
	Oversold   float64
}

// RSI implements the Relative Strength Index over a trailing simple average
// of gains and losses.
type RSI struct {
	BaseIndicator
	config RSIConfig
}

// NewRSI creates a new RSI indicator instance
func NewRSI(config RSIConfig) *RSI {
	if config.Period <= 0 {
		config.Period = DefaultRSIPeriod
	}
	if config.Oversold <= 0 {
		config.Oversold = DefaultRSIOversold
	}
	if config.Overbought <= 0 {
		config.Overbought = DefaultRSIOverbought
	}
	return &RSI{
		BaseIndicator: BaseIndicator{Config: config.IndicatorConfig},
		config:        config,
	}
}

// Name returns the name of the indicator
func (r *RSI) Name() string {
	return "RSI"
}

// Calculate returns one RSI reading for every close index i >= period.
// Value j of the result belongs to close index j+period.
func (r *RSI) Calculate(closes []float64) ([]float64, error) {
	period := r.Config.Period
	if len(closes) <= period {
		return nil, fmt.Errorf("not enough data (%d) to calculate RSI for period %d", len(closes), period)
	}

	values := make([]float64, 0, len(closes)-period)

	// Rolling sums of gains and losses over the trailing `period` deltas
	var gainSum, lossSum float64
	for k := 1; k <= period; k++ {
		gain, loss := splitDelta(closes[k] - closes[k-1])
		gainSum += gain
		lossSum += loss
	}
	values = append(values, rsiFromSums(gainSum, lossSum, period))

	for i := period + 1; i < len(closes); i++ {
		inGain, inLoss := splitDelta(closes[i] - closes[i-1])
		outGain, outLoss := splitDelta(closes[i-period] - closes[i-period-1])
		gainSum += inGain - outGain
		lossSum += inLoss - outLoss
		values = append(values, rsiFromSums(gainSum, lossSum, period))
	}

	return values, nil
}

// IsOverbought reports value >= Overbought.
func (r *RSI) IsOverbought(value float64) bool {
	return value >= r.config.Overbought
}

// IsOversold reports value < Oversold, so the two thresholds split [0,100]
// into half-open ranges.
func (r *RSI) IsOversold(value float64) bool {
	return value < r.config.Oversold
}

func splitDelta(change float64) (gain, loss float64) {
	if change > 0 {
		return change, 0
	}
	return 0, -change
}

func rsiFromSums(gainSum, lossSum float64, period int) float64 {
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)
	// Sliding-window subtraction can leave tiny negative residue
	if avgGain < rsiFloor {
		avgGain = rsiFloor
	}
	if avgLoss < rsiFloor {
		avgLoss = rsiFloor
	}

	rs := avgGain / avgLoss
	rsi := 100 - (100 / (1 + rs))

	// Ensure RSI is within bounds
	if rsi > 100 {
		rsi = 100
	} else if rsi < 0 {
		rsi = 0
	}
	return rsi
}
