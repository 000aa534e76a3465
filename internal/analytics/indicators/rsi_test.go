package indicators

import (
	"testing"
)

func TestRSI_Calculate(t *testing.T) {
	closes := []float64{
		100.0,
		102.0, // +2
		101.0, // -1
		103.0, // +2
		102.0, // -1
		104.0, // +2
	}

	tests := []struct {
		name           string
		period         int
		closes         []float64
		expectedValues []float64
		expectError    bool
	}{
		{
			name:           "RSI with sufficient data",
			period:         3,
			closes:         closes,
			expectedValues: []float64{80.0, 50.0, 80.0}, // RS = 4, 1, 4
			expectError:    false,
		},
		{
			name:        "Insufficient data",
			period:      7,
			closes:      closes,
			expectError: true,
		},
		{
			name:        "Exactly period closes",
			period:      6,
			closes:      closes,
			expectError: true,
		},
		{
			name:           "All gains floor the loss average",
			period:         3,
			closes:         []float64{100.0, 102.0, 104.0, 106.0},
			expectedValues: []float64{100 - 100/(1+2/rsiFloor)},
			expectError:    false,
		},
		{
			name:           "All losses floor the gain average",
			period:         3,
			closes:         []float64{106.0, 104.0, 102.0, 100.0},
			expectedValues: []float64{100 - 100/(1+rsiFloor/2)},
			expectError:    false,
		},
		{
			name:           "Flat prices are neutral",
			period:         3,
			closes:         []float64{100.0, 100.0, 100.0, 100.0, 100.0},
			expectedValues: []float64{50.0, 50.0},
			expectError:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rsi := NewRSI(RSIConfig{IndicatorConfig: IndicatorConfig{Period: tt.period}})
			values, err := rsi.Calculate(tt.closes)

			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}

			if len(values) != len(tt.closes)-tt.period {
				t.Fatalf("Expected %d values, got %d", len(tt.closes)-tt.period, len(values))
			}
			for i, want := range tt.expectedValues {
				// Allow for small floating point differences
				if values[i]-want > 0.0001 || values[i]-want < -0.0001 {
					t.Errorf("value[%d]: expected %f, got %f", i, want, values[i])
				}
			}
		})
	}
}

func TestRSI_BoundedOnLongSeries(t *testing.T) {
	closes := make([]float64, 500)
	price := 100.0
	for i := range closes {
		// Deterministic zig-zag with drift
		if i%7 < 4 {
			price *= 1.013
		} else {
			price *= 0.985
		}
		closes[i] = price
	}

	values, err := NewRSI(RSIConfig{}).Calculate(closes)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(values) != len(closes)-DefaultRSIPeriod {
		t.Errorf("Expected %d values, got %d", len(closes)-DefaultRSIPeriod, len(values))
	}
	for i, v := range values {
		if v < 0 || v > 100 {
			t.Fatalf("value[%d] = %f out of [0,100]", i, v)
		}
	}
}

func TestRSI_IsOverboughtOversold(t *testing.T) {
	config := RSIConfig{
		IndicatorConfig: IndicatorConfig{Period: 14},
		Overbought:      70,
		Oversold:        30,
	}

	tests := []struct {
		name         string
		value        float64
		isOverbought bool
		isOversold   bool
	}{
		{name: "Overbought condition", value: 75.0, isOverbought: true},
		{name: "Oversold condition", value: 25.0, isOversold: true},
		{name: "Neutral condition", value: 50.0},
		{name: "Exact overbought threshold", value: 70.0, isOverbought: true},
		{name: "Exact oversold threshold", value: 30.0},
		{name: "Just below oversold threshold", value: 29.99, isOversold: true},
		{name: "Just below overbought threshold", value: 69.99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rsi := NewRSI(config)
			if overbought := rsi.IsOverbought(tt.value); overbought != tt.isOverbought {
				t.Errorf("IsOverbought(%f) = %v, want %v", tt.value, overbought, tt.isOverbought)
			}
			if oversold := rsi.IsOversold(tt.value); oversold != tt.isOversold {
				t.Errorf("IsOversold(%f) = %v, want %v", tt.value, oversold, tt.isOversold)
			}
		})
	}
}

func TestRSI_NameAndDefaults(t *testing.T) {
	rsi := NewRSI(RSIConfig{})
	if name := rsi.Name(); name != "RSI" {
		t.Errorf("Expected name 'RSI', got '%s'", name)
	}
	if got := rsi.RequiredDataPoints(); got != DefaultRSIPeriod+1 {
		t.Errorf("Expected %d required data points, got %d", DefaultRSIPeriod+1, got)
	}
	if !rsi.IsOversold(DefaultRSIOversold-0.01) || rsi.IsOversold(DefaultRSIOversold) {
		t.Errorf("Expected default oversold threshold %d", DefaultRSIOversold)
	}
	if !rsi.IsOverbought(DefaultRSIOverbought) || rsi.IsOverbought(DefaultRSIOverbought-0.01) {
		t.Errorf("Expected default overbought threshold %d", DefaultRSIOverbought)
	}
}
