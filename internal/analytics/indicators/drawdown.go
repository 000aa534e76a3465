package indicators

// MaxDrawdown returns the largest peak-to-trough decline of series, in percent.
// Samples before the first positive value are ignored, so a portfolio value
// series that starts at zero before its first buy is handled.
func MaxDrawdown(series []float64) float64 {
	var peak, maxDD float64
	for _, v := range series {
		if v > peak {
			peak = v
			continue
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - v) / peak * 100; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// DrawdownSeries returns the current drawdown at every index, in percent:
// element i is the decline of series[i] from the peak of series[:i+1].
func DrawdownSeries(series []float64) []float64 {
	out := make([]float64, len(series))
	var peak float64
	for i, v := range series {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			out[i] = (peak - v) / peak * 100
		}
	}
	return out
}

// RunningMaxDrawdown returns MaxDrawdown(series[:i+1]) for every i in one pass.
func RunningMaxDrawdown(series []float64) []float64 {
	out := make([]float64, len(series))
	var worst float64
	for i, dd := range DrawdownSeries(series) {
		if dd > worst {
			worst = dd
		}
		out[i] = worst
	}
	return out
}
