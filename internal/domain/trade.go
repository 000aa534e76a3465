package domain

// Trade represents one simulated periodic buy.
type Trade struct {
	Index          int     // Sample index the buy was executed at
	Price          float64 // Close price paid
	AmountInvested float64 // Quote currency spent
	UnitsAcquired  float64 // Base units bought
}

// Exit records a stop-loss or take-profit liquidation of the simulated position.
type Exit struct {
	Index  int
	Price  float64
	Value  float64 // Cash realized on liquidation
	Reason CloseReason
}

// SimulationResult is the read-only output of one periodic-investment replay.
type SimulationResult struct {
	Trades               []Trade
	TotalInvested        float64
	TotalUnits           float64
	PortfolioValueSeries []float64 // Mark-to-market value at every sample
	InvestedSeries       []float64 // Cumulative capital invested at every sample
	PeriodReturns        []float64 // Percent change between consecutive buys
	BuyIndices           []int
	IntervalSamples      int     // Buy interval converted to samples
	IntervalDays         float64 // Buy interval in days
	SampleDays           float64 // Sampling interval of the underlying series
	Exit                 *Exit   // Non-nil when stop-loss or take-profit fired
}

// FinalValue returns the portfolio value at the last sample.
func (r *SimulationResult) FinalValue() float64 {
	if r == nil || len(r.PortfolioValueSeries) == 0 {
		return 0
	}
	return r.PortfolioValueSeries[len(r.PortfolioValueSeries)-1]
}
