// Package regime buckets historical RSI readings into market regimes and
// reports what the price did over the following strategy interval.
package regime

import (
	"fmt"

	"backtestLab/internal/analytics/indicators"
	"backtestLab/internal/domain"
	"backtestLab/internal/ports"
)

// Regime labels, in ascending RSI order.
const (
	ExtremeOversold   = "extreme-oversold"
	Oversold          = "oversold"
	Neutral           = "neutral"
	Overbought        = "overbought"
	ExtremeOverbought = "extreme-overbought"
)

// BucketStats summarizes the forward returns of one bucket.
type BucketStats struct {
	Label             string
	RSILowerBound     float64
	RSIUpperBound     float64
	Count             int
	MeanForwardReturn float64 // %
	WinRate           float64 // % of forward returns above zero
}

// Result holds the five buckets with their raw forward returns and stats.
type Result struct {
	Buckets []domain.RegimeBucket
	Stats   []BucketStats
}

// NewBuckets returns empty buckets that partition [0,100]:
// [0,30) [30,40) [40,60) [60,70) [70,100]. The outer bounds are the RSI
// oversold and overbought defaults.
func NewBuckets() []domain.RegimeBucket {
	return []domain.RegimeBucket{
		{Label: ExtremeOversold, RSILowerBound: 0, RSIUpperBound: indicators.DefaultRSIOversold},
		{Label: Oversold, RSILowerBound: indicators.DefaultRSIOversold, RSIUpperBound: 40},
		{Label: Neutral, RSILowerBound: 40, RSIUpperBound: 60},
		{Label: Overbought, RSILowerBound: 60, RSIUpperBound: indicators.DefaultRSIOverbought},
		{Label: ExtremeOverbought, RSILowerBound: indicators.DefaultRSIOverbought, RSIUpperBound: 100},
	}
}

// BucketIndex returns the bucket an RSI value falls into. The last bucket is
// closed at 100; out-of-range values are clamped.
func BucketIndex(buckets []domain.RegimeBucket, rsi float64) int {
	for i, b := range buckets {
		if rsi < b.RSIUpperBound {
			return i
		}
	}
	return len(buckets) - 1
}

func classify(rsi *indicators.RSI, buckets []domain.RegimeBucket, v float64) int {
	switch {
	case rsi.IsOversold(v):
		return 0
	case rsi.IsOverbought(v):
		return len(buckets) - 1
	}
	return BucketIndex(buckets, v)
}

// Segment computes RSI(period) over closes and records, for every index with
// an RSI value and a close horizonSamples ahead, the forward percent return
// into the matching bucket.
//
// A series too short for any RSI value or forward step yields empty buckets.
func Segment(ps *domain.PriceSeries, period, horizonSamples int) (*Result, error) {
	if ps.Len() < 2 {
		return nil, fmt.Errorf("regime segmentation needs at least 2 samples, got %d: %w", ps.Len(), ports.ErrInvalidSeries)
	}
	if horizonSamples < 1 {
		horizonSamples = 1
	}

	rsi := indicators.NewRSI(indicators.RSIConfig{IndicatorConfig: indicators.IndicatorConfig{Period: period}})
	buckets := NewBuckets()
	closes := ps.Closes

	if len(closes) >= rsi.RequiredDataPoints() {
		values, err := rsi.Calculate(closes)
		if err != nil {
			return nil, err
		}
		offset := rsi.RequiredDataPoints() - 1
		for j, v := range values {
			i := j + offset
			if i+horizonSamples >= len(closes) {
				break
			}
			fwd := indicators.PercentChange(closes[i], closes[i+horizonSamples])
			k := classify(rsi, buckets, v)
			buckets[k].ForwardReturns = append(buckets[k].ForwardReturns, fwd)
		}
	}

	res := &Result{Buckets: buckets, Stats: make([]BucketStats, len(buckets))}
	for k, b := range buckets {
		res.Stats[k] = summarize(b)
	}
	return res, nil
}

func summarize(b domain.RegimeBucket) BucketStats {
	s := BucketStats{
		Label:         b.Label,
		RSILowerBound: b.RSILowerBound,
		RSIUpperBound: b.RSIUpperBound,
		Count:         len(b.ForwardReturns),
	}
	if s.Count == 0 {
		return s
	}
	var wins int
	for _, r := range b.ForwardReturns {
		if r > 0 {
			wins++
		}
	}
	s.MeanForwardReturn = indicators.Mean(b.ForwardReturns)
	s.WinRate = float64(wins) / float64(s.Count) * 100
	return s
}
