package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"backtestLab/internal/analytics/curves"
	"backtestLab/internal/domain"
)

var candleHeader = []string{"timestamp", "symbol", "interval", "open", "high", "low", "close", "volume"}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// create opens filename for writing, creating parent directories.
func create(filename string) (*os.File, error) {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return os.Create(filename)
}

func writeFile(filename string, write func(w *csv.Writer) error) error {
	file, err := create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := write(writer); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// WriteCandlesToCSV writes candles with an RFC3339 timestamp column.
func WriteCandlesToCSV(candles []*domain.Candle, filename string) error {
	return writeFile(filename, func(writer *csv.Writer) error {
		if err := writer.Write(candleHeader); err != nil {
			return err
		}
		for _, c := range candles {
			if err := writer.Write([]string{
				c.Timestamp.UTC().Format(time.RFC3339),
				c.Symbol,
				c.Interval,
				formatFloat(c.Open),
				formatFloat(c.High),
				formatFloat(c.Low),
				formatFloat(c.Close),
				formatFloat(c.Volume),
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadCandlesFromCSV loads a file written by WriteCandlesToCSV.
func ReadCandlesFromCSV(filename string) ([]*domain.Candle, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadCandles(file)
}

// ReadCandles parses candle rows. Columns are located by header name; the
// timestamp column may also be called open_time, and symbol, interval and
// volume are optional.
func ReadCandles(r io.Reader) ([]*domain.Candle, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty candle file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols["timestamp"]; !ok {
		if i, ok := cols["open_time"]; ok {
			cols["timestamp"] = i
		}
	}
	for _, required := range []string{"timestamp", "open", "high", "low", "close"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing %q column", required)
		}
	}

	var candles []*domain.Candle
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		c := &domain.Candle{}
		if c.Timestamp, err = time.Parse(time.RFC3339, record[cols["timestamp"]]); err != nil {
			return nil, fmt.Errorf("line %d: timestamp: %w", line, err)
		}
		if i, ok := cols["symbol"]; ok {
			c.Symbol = record[i]
		}
		if i, ok := cols["interval"]; ok {
			c.Interval = record[i]
		}

		fields := []struct {
			name string
			dst  *float64
		}{
			{"open", &c.Open},
			{"high", &c.High},
			{"low", &c.Low},
			{"close", &c.Close},
			{"volume", &c.Volume},
		}
		for _, f := range fields {
			i, ok := cols[f.name]
			if !ok {
				continue
			}
			if *f.dst, err = strconv.ParseFloat(record[i], 64); err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, f.name, err)
			}
		}
		candles = append(candles, c)
	}
	return candles, nil
}

// WriteTradesToCSV writes the simulated buys, one row per trade.
func WriteTradesToCSV(trades []domain.Trade, timestamps []time.Time, filename string) error {
	return writeFile(filename, func(writer *csv.Writer) error {
		if err := writer.Write([]string{"index", "timestamp", "price", "amount_invested", "units_acquired"}); err != nil {
			return err
		}
		for _, t := range trades {
			ts := ""
			if t.Index < len(timestamps) {
				ts = timestamps[t.Index].UTC().Format(time.RFC3339)
			}
			if err := writer.Write([]string{
				strconv.Itoa(t.Index),
				ts,
				formatFloat(t.Price),
				formatFloat(t.AmountInvested),
				formatFloat(t.UnitsAcquired),
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteCurvesToCSV writes the chart curves, one row per sample.
func WriteCurvesToCSV(c *curves.Curves, filename string) error {
	return writeFile(filename, func(writer *csv.Writer) error {
		if err := writer.Write([]string{"timestamp", "cumulative_return", "benchmark", "drawdown", "underwater"}); err != nil {
			return err
		}
		for i := 0; i < c.Len(); i++ {
			if err := writer.Write([]string{
				c.Timestamps[i].UTC().Format(time.RFC3339),
				formatFloat(c.CumulativeReturn[i]),
				formatFloat(c.Benchmark[i]),
				formatFloat(c.Drawdown[i]),
				formatFloat(c.Underwater[i]),
			}); err != nil {
				return err
			}
		}
		return nil
	})
}
