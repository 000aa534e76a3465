package domain

import "time"

// Candle represents a single OHLCV data point for one sampling interval.
type Candle struct {
	Timestamp time.Time // Start time of the interval
	Symbol    string    // Trading symbol (optional, set by market data adapters)
	Interval  string    // Candle interval (e.g., "1h", "1d")
	Open      float64   // Opening price
	High      float64   // Highest price
	Low       float64   // Lowest price
	Close     float64   // Closing price
	Volume    float64   // Traded volume
}

// PriceSeries is the read-only, gap-checked view of a candle sequence used by
// every calculator. Highs, Lows and Timestamps run parallel to Closes.
type PriceSeries struct {
	Closes     []float64
	Highs      []float64
	Lows       []float64
	Timestamps []time.Time
	SampleDays float64 // Sampling interval expressed in days (1h candles => 1/24)
}

// Len returns the number of samples in the series.
func (p *PriceSeries) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Closes)
}

// MarketContext carries market facts that do not come from the price series itself.
type MarketContext struct {
	Symbol         string
	QuoteVolume24h float64 // 24h traded volume in quote currency
}
