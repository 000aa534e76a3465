package ports

import (
	"context"
	"time"
)

// ReportSummary is the persisted headline of one analysis run.
type ReportSummary struct {
	ID               int64
	Key              string // Refresh key (symbol + strategy profile)
	Symbol           string
	StrategyKind     string
	Interval         string
	Generation       uint64
	Samples          int
	TotalInvested    float64
	FinalValue       float64
	TotalReturn      float64
	AnnualizedReturn float64
	SharpeRatio      float64
	WinRate          float64
	MaxDrawdown      float64
	OverallRisk      float64
	RiskLevel        string
	CreatedAt        time.Time
}

// ReportRepository defines the interface for storing analysis summaries.
// The engine itself never persists anything; the application service does.
type ReportRepository interface {
	// SaveReport stores a summary and returns its assigned ID.
	SaveReport(ctx context.Context, summary *ReportSummary) (int64, error)
	// FindLatestByKey retrieves the newest summary for a refresh key.
	// Returns nil, nil if none exists.
	FindLatestByKey(ctx context.Context, key string) (*ReportSummary, error)
	// FindBySymbol retrieves the most recent summaries for a symbol, up to a limit.
	FindBySymbol(ctx context.Context, symbol string, limit int) ([]*ReportSummary, error)
}
