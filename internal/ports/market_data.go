package ports

import (
	"context"
	"time"

	"backtestLab/internal/domain"
)

// MarketDataProvider supplies candles and market context for analysis runs.
// Candles must come back timestamp-ascending; gaps are tolerated.
type MarketDataProvider interface {
	// GetCandles retrieves the most recent `limit` candles for a symbol and interval.
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error)

	// GetCandlesRange retrieves all candles between start and end.
	GetCandlesRange(ctx context.Context, symbol, interval string, start, end time.Time) ([]*domain.Candle, error)

	// GetQuoteVolume24h returns the trailing 24h traded volume in quote currency.
	GetQuoteVolume24h(ctx context.Context, symbol string) (float64, error)
}
