package backtesting

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"backtestLab/internal/analytics/indicators"
	"backtestLab/internal/analytics/series"
	"backtestLab/internal/domain"
	"backtestLab/internal/ports"
)

// validate is configured once and only read afterwards.
var validate = domain.NewValidator()

// ValidateConfig checks a StrategyConfig and wraps any violation with ports.ErrInvalidConfig.
func ValidateConfig(cfg domain.StrategyConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%s: %w", describeValidation(err), ports.ErrInvalidConfig)
	}
	return nil
}

// IntervalSamples converts the buy interval into a whole number of samples
// of a series sampled every sampleDays. The result is at least 1.
func IntervalSamples(interval domain.BuyInterval, sampleDays float64) int {
	days := float64(interval.Days())
	if days <= 0 || sampleDays <= 0 {
		return 1
	}
	n := int(math.Round(days / sampleDays))
	if n < 1 {
		return 1
	}
	return n
}

// Simulate replays a periodic-investment strategy over the series.
//
// A buy is attempted every IntervalSamples samples, starting at index 0, while
// capital invested is below TotalBudget. Each buy spends the sizing rule's
// amount capped at the remaining budget, at the sample's close. Portfolio value
// is marked to market at every sample up to the series end.
func Simulate(ps *domain.PriceSeries, cfg domain.StrategyConfig) (*domain.SimulationResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if err := series.Validate(ps); err != nil {
		return nil, err
	}

	interval := IntervalSamples(cfg.Interval, ps.SampleDays)
	if ps.Len() < interval {
		return nil, fmt.Errorf("series of %d samples is shorter than one %s interval (%d samples): %w",
			ps.Len(), cfg.Interval, interval, ports.ErrInsufficientData)
	}

	n := ps.Len()
	result := &domain.SimulationResult{
		PortfolioValueSeries: make([]float64, n),
		InvestedSeries:       make([]float64, n),
		IntervalSamples:      interval,
		IntervalDays:         float64(interval) * ps.SampleDays,
		SampleDays:           ps.SampleDays,
	}

	size := sizerFor(cfg.Kind)
	budget := decimal.NewFromFloat(cfg.TotalBudget)
	invested := decimal.Zero
	// spentSum is the float total of emitted trades; it never passes TotalBudget.
	var units, postBuyValue, spentSum float64
	state := sizingState{Base: cfg.AmountPerBuy}

	for i, price := range ps.Closes {
		investedF := spentSum

		if result.Exit == nil && units > 0 {
			if reason, hit := checkExit(units*price, investedF, cfg); hit {
				result.Exit = &domain.Exit{Index: i, Price: price, Value: units * price, Reason: reason}
			}
		}

		if result.Exit == nil && i%interval == 0 && invested.LessThan(budget) && spentSum < cfg.TotalBudget {
			preBuyValue := units * price
			if len(result.BuyIndices) > 0 {
				result.PeriodReturns = append(result.PeriodReturns, indicators.PercentChange(postBuyValue, preBuyValue))
			}

			state.BuyNumber = len(result.Trades)
			state.Price = price
			state.Units = units
			// Sizing rules scale Base and may overflow for huge amounts
			amount := decimal.Min(decimal.NewFromFloat(math.Min(size(state), cfg.TotalBudget)), budget.Sub(invested))

			if spent := capSpend(amount.InexactFloat64(), spentSum, cfg.TotalBudget); spent > 0 {
				acquired := spent / price
				invested = invested.Add(amount)
				spentSum += spent
				investedF = spentSum
				units += acquired

				result.Trades = append(result.Trades, domain.Trade{
					Index:          i,
					Price:          price,
					AmountInvested: spent,
					UnitsAcquired:  acquired,
				})
				result.BuyIndices = append(result.BuyIndices, i)
				result.TotalUnits += acquired
				postBuyValue = units * price

				state.PrevBuyPrice = price
				state.LastAmount = spent
			}
		}

		if result.Exit != nil {
			result.PortfolioValueSeries[i] = result.Exit.Value
		} else {
			result.PortfolioValueSeries[i] = units * price
		}
		result.InvestedSeries[i] = investedF
	}

	result.TotalInvested = spentSum
	return result, nil
}

// capSpend trims spent so that spentSum+spent, summed in float64, stays within
// budget. Rounding of the decimal amount can otherwise push the total one ulp over.
func capSpend(spent, spentSum, budget float64) float64 {
	if rest := budget - spentSum; spent > rest {
		spent = rest
	}
	for spent > 0 && spentSum+spent > budget {
		spent = math.Nextafter(spent, 0)
	}
	return max(spent, 0)
}

// checkExit reports whether the open position hit its stop-loss or take-profit.
func checkExit(value, invested float64, cfg domain.StrategyConfig) (domain.CloseReason, bool) {
	if invested <= 0 {
		return "", false
	}
	ret := (value - invested) / invested * 100
	if cfg.StopLossPct > 0 && ret <= -cfg.StopLossPct {
		return domain.CloseReasonStopLoss, true
	}
	if cfg.TakeProfitPct > 0 && ret >= cfg.TakeProfitPct {
		return domain.CloseReasonTakeProfit, true
	}
	return "", false
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "gtefield":
			parts = append(parts, fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param()))
		case "finite":
			parts = append(parts, fmt.Sprintf("%s must be a finite number", fe.Field()))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s %q must be one of [%s]", fe.Field(), fe.Value(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		}
	}
	return strings.Join(parts, "; ")
}
