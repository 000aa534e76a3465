package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"backtestLab/config"
	"backtestLab/internal/adapters/logger"
	"backtestLab/internal/analytics/optimization"
	"backtestLab/internal/analytics/series"
	"backtestLab/internal/domain"
	"backtestLab/internal/utils"
)

var (
	dataFile  = flag.String("data", "", "candle CSV file (required)")
	amounts   = flag.String("amount", "50:200:50", "amount per buy range min:max:step")
	stopLoss  = flag.String("sl", "", "stop-loss % range min:max:step, empty to keep the profile value")
	takeProf  = flag.String("tp", "", "take-profit % range min:max:step, empty to keep the profile value")
	intervals = flag.String("intervals", "daily,weekly,monthly", "comma-separated buy intervals")
	kinds     = flag.String("kinds", "standard,value-averaging,anti-martingale,martingale", "comma-separated strategy kinds")
	top       = flag.Int("top", 10, "number of results to print")
	workers   = flag.Int("workers", 0, "concurrent simulations, 0 for GOMAXPROCS")
	timeout   = flag.Duration("timeout", 5*time.Minute, "overall optimization timeout")
)

func main() {
	flag.Parse()
	if *dataFile == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	appLogger := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	candles, err := utils.ReadCandlesFromCSV(*dataFile)
	if err != nil {
		log.Fatalf("Error loading candles: %v", err)
	}
	ps, err := series.Normalize(candles)
	if err != nil {
		log.Fatalf("Invalid candle series: %v", err)
	}

	var ranges []optimization.ParameterRange
	for _, r := range []struct {
		name string
		spec string
	}{
		{optimization.ParamAmountPerBuy, *amounts},
		{optimization.ParamStopLossPct, *stopLoss},
		{optimization.ParamTakeProfitPct, *takeProf},
	} {
		if r.spec == "" {
			continue
		}
		pr, err := parseRange(r.name, r.spec)
		if err != nil {
			log.Fatalf("FATAL: %v", err)
		}
		ranges = append(ranges, pr)
	}

	var ivs []domain.BuyInterval
	for _, s := range splitCSV(*intervals) {
		ivs = append(ivs, domain.BuyInterval(s))
	}
	var ks []domain.StrategyKind
	for _, s := range splitCSV(*kinds) {
		ks = append(ks, domain.StrategyKind(s))
	}

	optimizer := optimization.NewOptimizer(optimization.OptimizerConfig{
		ParameterRanges: ranges,
		Intervals:       ivs,
		Kinds:           ks,
		Base:            cfg.Profiles[0].Strategy,
		MaxWorkers:      *workers,
	})

	appLogger.Info(ctx, "Starting optimization", map[string]interface{}{"samples": ps.Len(), "intervals": len(ivs), "kinds": len(ks)})
	started := time.Now()
	results, err := optimizer.Optimize(ctx, ps)
	if err != nil {
		appLogger.Error(ctx, err, "Optimization aborted")
		log.Fatalf("Optimization aborted: %v", err)
	}
	appLogger.Info(ctx, "Optimization finished", map[string]interface{}{"results": len(results), "elapsed": time.Since(started).String()})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight|tabwriter.Debug)
	fmt.Fprintln(w, "Rank\tKind\tInterval\tAmount\tSL%\tTP%\tReturn%\tSharpe\tMaxDD%\tScore\t")
	for i, r := range results {
		if i >= *top {
			break
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.3f\t\n",
			i+1, r.Strategy.Kind, r.Strategy.Interval, r.Strategy.AmountPerBuy,
			r.Strategy.StopLossPct, r.Strategy.TakeProfitPct,
			r.Metrics.TotalReturn, r.Metrics.SharpeRatio, r.Metrics.MaxDrawdown, r.Score)
	}
	w.Flush()
}

// parseRange reads "min:max:step".
func parseRange(name, spec string) (optimization.ParameterRange, error) {
	var r optimization.ParameterRange
	r.Name = name
	if _, err := fmt.Sscanf(spec, "%g:%g:%g", &r.Min, &r.Max, &r.Step); err != nil {
		return r, fmt.Errorf("invalid %s range %q, want min:max:step: %w", name, spec, err)
	}
	if r.Step <= 0 || r.Max < r.Min {
		return r, fmt.Errorf("invalid %s range %q: need step > 0 and max >= min", name, spec)
	}
	return r, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
