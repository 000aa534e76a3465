package binanceclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backtestLab/internal/adapters/logger"
	"backtestLab/internal/ports"
)

const klinesBody = `[
	[1704067200000,"100.0","105.0","95.0","102.0","10.5",1704153599999,"1050.0",42,"5.0","500.0","0"],
	[1704153600000,"102.0","110.0","101.0","108.0","12.0",1704239999999,"1300.0",40,"6.0","650.0","0"]
]`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL, Logger: logger.NewNop()})
	require.NoError(t, err)
	return c
}

func TestNew_RequiresLogger(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestGetCandles(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/klines", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(klinesBody))
	})

	candles, err := c.GetCandles(context.Background(), "BTCUSDT", "1d", 2)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	first := candles[0]
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), first.Timestamp)
	assert.Equal(t, "BTCUSDT", first.Symbol)
	assert.Equal(t, "1d", first.Interval)
	assert.Equal(t, 100.0, first.Open)
	assert.Equal(t, 105.0, first.High)
	assert.Equal(t, 95.0, first.Low)
	assert.Equal(t, 102.0, first.Close)
	assert.Equal(t, 10.5, first.Volume)
	assert.Equal(t, 108.0, candles[1].Close)
}

func TestGetCandlesRange_StopsOnShortPage(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.NotEmpty(t, r.URL.Query().Get("startTime"))
		assert.NotEmpty(t, r.URL.Query().Get("endTime"))
		_, _ = w.Write([]byte(klinesBody))
	})

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles, err := c.GetCandlesRange(context.Background(), "BTCUSDT", "1d", start, start.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Len(t, candles, 2)
	assert.Equal(t, 1, calls)
}

func TestGetQuoteVolume24h(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/ticker/24hr", r.URL.Path)
		_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","lastPrice":"43000.1","volume":"1000","quoteVolume":"43000100.5"}`))
	})

	vol, err := c.GetQuoteVolume24h(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 43000100.5, vol)
}

func TestHandleError_MapsAPICodes(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"code":-1003,"msg":"Too many requests"}`, wantErr: ports.ErrRateLimited},
		{name: "bad symbol", status: http.StatusBadRequest, body: `{"code":-1121,"msg":"Invalid symbol."}`, wantErr: ports.ErrInvalidSymbol},
		{name: "bad parameter", status: http.StatusBadRequest, body: `{"code":-1102,"msg":"Mandatory parameter was not sent"}`, wantErr: ports.ErrInvalidRequest},
		{name: "unmapped", status: http.StatusBadRequest, body: `{"code":-4999,"msg":"something"}`, wantErr: ports.ErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.GetCandles(context.Background(), "BTCUSDT", "1d", 10)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHandleError_ContextCanceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(klinesBody))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetCandles(ctx, "BTCUSDT", "1d", 10)
	assert.ErrorIs(t, err, ports.ErrContextCanceled)
}

func TestTranslateBinanceKline(t *testing.T) {
	_, err := translateBinanceKline(nil, "BTCUSDT", "1h")
	assert.Error(t, err)

	_, err = translateBinanceKline(&futures.Kline{Open: "x"}, "BTCUSDT", "1h")
	assert.Error(t, err)

	candle, err := translateBinanceKline(&futures.Kline{
		OpenTime: 0,
		Open:     "1", High: "2", Low: "0.5", Close: "1.5", Volume: "3",
	}, "ETHUSDT", "1h")
	require.NoError(t, err)
	assert.Equal(t, "ETHUSDT", candle.Symbol)
	assert.Equal(t, 1.5, candle.Close)
}
