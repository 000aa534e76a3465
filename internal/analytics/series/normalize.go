// Package series turns raw candle records into the read-only PriceSeries every
// calculator consumes.
package series

import (
	"fmt"
	"math"
	"sort"
	"time"

	"backtestLab/internal/domain"
	"backtestLab/internal/ports"
)

const (
	// MinCandles is the shortest series the engine accepts.
	MinCandles = 2

	day = 24 * time.Hour
)

// Normalize validates candles and returns their PriceSeries.
// It fails with ports.ErrInvalidSeries when there are fewer than two candles,
// when timestamps are not strictly increasing, or when any OHLC invariant is
// violated. Gaps are tolerated and left as they are.
func Normalize(candles []*domain.Candle) (*domain.PriceSeries, error) {
	if len(candles) < MinCandles {
		return nil, fmt.Errorf("need at least %d candles, got %d: %w", MinCandles, len(candles), ports.ErrInvalidSeries)
	}

	ps := &domain.PriceSeries{
		Closes:     make([]float64, len(candles)),
		Highs:      make([]float64, len(candles)),
		Lows:       make([]float64, len(candles)),
		Timestamps: make([]time.Time, len(candles)),
	}

	for i, c := range candles {
		if c == nil {
			return nil, fmt.Errorf("candle %d is nil: %w", i, ports.ErrInvalidSeries)
		}
		if err := checkCandle(c); err != nil {
			return nil, fmt.Errorf("candle %d at %s: %v: %w", i, c.Timestamp.Format(time.RFC3339), err, ports.ErrInvalidSeries)
		}
		if i > 0 && !c.Timestamp.After(candles[i-1].Timestamp) {
			return nil, fmt.Errorf("candle %d timestamp %s does not follow %s: %w",
				i, c.Timestamp.Format(time.RFC3339), candles[i-1].Timestamp.Format(time.RFC3339), ports.ErrInvalidSeries)
		}
		ps.Closes[i] = c.Close
		ps.Highs[i] = c.High
		ps.Lows[i] = c.Low
		ps.Timestamps[i] = c.Timestamp
	}

	ps.SampleDays = SamplingDays(ps.Timestamps)
	return ps, nil
}

// FromCloses builds a PriceSeries from bare closes sampled every sampleDays.
// Highs and lows mirror the closes; timestamps start at the Unix epoch.
func FromCloses(closes []float64, sampleDays float64) (*domain.PriceSeries, error) {
	if sampleDays <= 0 {
		return nil, fmt.Errorf("sampling interval must be positive, got %f: %w", sampleDays, ports.ErrInvalidSeries)
	}
	step := time.Duration(sampleDays * float64(day))
	candles := make([]*domain.Candle, len(closes))
	for i, c := range closes {
		candles[i] = &domain.Candle{
			Timestamp: time.Unix(0, 0).UTC().Add(time.Duration(i) * step),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
		}
	}
	ps, err := Normalize(candles)
	if err != nil {
		return nil, err
	}
	ps.SampleDays = sampleDays
	return ps, nil
}

// Validate checks a PriceSeries that did not come from Normalize. Closes must
// be positive and finite; Highs, Lows and Timestamps are optional but, when
// set, must run parallel to Closes, bracket each close and strictly increase.
func Validate(ps *domain.PriceSeries) error {
	if ps.Len() < MinCandles {
		return fmt.Errorf("need at least %d samples, got %d: %w", MinCandles, ps.Len(), ports.ErrInvalidSeries)
	}
	n := len(ps.Closes)
	for _, f := range []struct {
		name string
		len  int
	}{
		{"highs", len(ps.Highs)},
		{"lows", len(ps.Lows)},
		{"timestamps", len(ps.Timestamps)},
	} {
		if f.len != 0 && f.len != n {
			return fmt.Errorf("%s has %d values, closes has %d: %w", f.name, f.len, n, ports.ErrInvalidSeries)
		}
	}
	if math.IsNaN(ps.SampleDays) || math.IsInf(ps.SampleDays, 0) || ps.SampleDays < 0 {
		return fmt.Errorf("sampling interval %f is not a valid day count: %w", ps.SampleDays, ports.ErrInvalidSeries)
	}

	for i, price := range ps.Closes {
		c := &domain.Candle{Open: price, High: price, Low: price, Close: price}
		if len(ps.Highs) == n {
			c.High = ps.Highs[i]
		}
		if len(ps.Lows) == n {
			c.Low = ps.Lows[i]
		}
		if err := checkCandle(c); err != nil {
			return fmt.Errorf("sample %d: %v: %w", i, err, ports.ErrInvalidSeries)
		}
		if len(ps.Timestamps) == n && i > 0 && !ps.Timestamps[i].After(ps.Timestamps[i-1]) {
			return fmt.Errorf("sample %d timestamp %s does not follow %s: %w",
				i, ps.Timestamps[i].Format(time.RFC3339), ps.Timestamps[i-1].Format(time.RFC3339), ports.ErrInvalidSeries)
		}
	}
	return nil
}

// SamplingDays estimates the sampling interval in days as the median spacing
// between timestamps, so isolated gaps do not distort it.
func SamplingDays(timestamps []time.Time) float64 {
	if len(timestamps) < 2 {
		return 1
	}
	gaps := make([]float64, 0, len(timestamps)-1)
	for i := 1; i < len(timestamps); i++ {
		gaps = append(gaps, float64(timestamps[i].Sub(timestamps[i-1])))
	}
	sort.Float64s(gaps)
	median := gaps[len(gaps)/2]
	if len(gaps)%2 == 0 {
		median = (gaps[len(gaps)/2-1] + gaps[len(gaps)/2]) / 2
	}
	return median / float64(day)
}

func checkCandle(c *domain.Candle) error {
	for _, v := range []float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite value")
		}
	}
	if c.Close <= 0 || c.Low < 0 {
		return fmt.Errorf("non-positive price (low=%f close=%f)", c.Low, c.Close)
	}
	if c.Low > c.High {
		return fmt.Errorf("low %f above high %f", c.Low, c.High)
	}
	if c.Open < c.Low || c.Open > c.High {
		return fmt.Errorf("open %f outside [%f, %f]", c.Open, c.Low, c.High)
	}
	if c.Close < c.Low || c.Close > c.High {
		return fmt.Errorf("close %f outside [%f, %f]", c.Close, c.Low, c.High)
	}
	if c.Volume < 0 {
		return fmt.Errorf("negative volume %f", c.Volume)
	}
	return nil
}
