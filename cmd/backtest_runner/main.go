package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"backtestLab/config"
	"backtestLab/internal/adapters/logger"
	"backtestLab/internal/analytics/backtesting"
	"backtestLab/internal/domain"
	"backtestLab/internal/engine"
	"backtestLab/internal/utils"
)

var (
	dataFile = flag.String("data", "", "candle CSV file (required)")
	symbol   = flag.String("symbol", "", "symbol label for the report, defaults to the CSV symbol column")
	profile  = flag.String("profile", "", "strategy profile name from the configuration, defaults to the first")
	interval = flag.String("interval", "", "override buy interval: daily, weekly or monthly")
	kind     = flag.String("kind", "", "override strategy kind")
	amount   = flag.Float64("amount", 0, "override amount per buy")
	budget   = flag.Float64("budget", 0, "override total budget")
	stopLoss = flag.Float64("sl", -1, "override stop-loss %, 0 disables")
	takeProf = flag.Float64("tp", -1, "override take-profit %, 0 disables")
	volume   = flag.Float64("volume", 0, "24h quote volume used for the liquidity score")
	outDir   = flag.String("out", "data/backtests", "directory for trades and curves CSV files")
)

func main() {
	flag.Parse()
	if *dataFile == "" {
		flag.Usage()
		os.Exit(2)
	}

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	appLogger := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	ctx := context.Background()

	// 2. Load candles
	candles, err := utils.ReadCandlesFromCSV(*dataFile)
	if err != nil {
		appLogger.Error(ctx, err, "Error loading candles", map[string]interface{}{"file": *dataFile})
		log.Fatalf("Error loading candles: %v", err)
	}
	appLogger.Info(ctx, "Loaded candles", map[string]interface{}{"file": *dataFile, "count": len(candles)})

	label := *symbol
	if label == "" && len(candles) > 0 {
		label = candles[0].Symbol
	}

	// 3. Resolve strategy
	strategy, name, err := resolveStrategy(cfg.Profiles)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	if err := backtesting.ValidateConfig(strategy); err != nil {
		log.Fatalf("FATAL: Invalid strategy: %v", err)
	}

	// 4. Run
	report, err := engine.Run(engine.Request{
		Candles:    candles,
		Strategy:   strategy,
		Market:     domain.MarketContext{Symbol: label, QuoteVolume24h: *volume},
		Thresholds: cfg.Thresholds,
		RSIPeriod:  cfg.RSIPeriod,
	})
	if err != nil {
		appLogger.Error(ctx, err, "Backtest failed")
		log.Fatalf("Backtest failed: %v", err)
	}

	printReport(label, name, report)

	// 5. Save trades and curves
	base := fmt.Sprintf("%s_%s_%s_%s", strings.ToLower(label), name, strategy.Kind, strategy.Interval)
	tradesFile := filepath.Join(*outDir, base+"_trades.csv")
	curvesFile := filepath.Join(*outDir, base+"_curves.csv")
	if err := utils.WriteTradesToCSV(report.Simulation.Trades, report.Series.Timestamps, tradesFile); err != nil {
		appLogger.Error(ctx, err, "Error writing trades CSV")
		log.Fatalf("Error writing trades CSV: %v", err)
	}
	if err := utils.WriteCurvesToCSV(report.Curves, curvesFile); err != nil {
		appLogger.Error(ctx, err, "Error writing curves CSV")
		log.Fatalf("Error writing curves CSV: %v", err)
	}
	appLogger.Info(ctx, "Saved results", map[string]interface{}{"trades": tradesFile, "curves": curvesFile})
}

func resolveStrategy(profiles []config.Profile) (domain.StrategyConfig, string, error) {
	if len(profiles) == 0 {
		return domain.StrategyConfig{}, "", fmt.Errorf("no strategy profiles configured")
	}
	chosen := profiles[0]
	if *profile != "" {
		found := false
		for _, p := range profiles {
			if p.Name == *profile {
				chosen, found = p, true
				break
			}
		}
		if !found {
			return domain.StrategyConfig{}, "", fmt.Errorf("unknown profile %q", *profile)
		}
	}

	s := chosen.Strategy
	if *interval != "" {
		s.Interval = domain.BuyInterval(*interval)
	}
	if *kind != "" {
		s.Kind = domain.StrategyKind(*kind)
	}
	if *amount > 0 {
		s.AmountPerBuy = *amount
	}
	if *budget > 0 {
		s.TotalBudget = *budget
	}
	if *stopLoss >= 0 {
		s.StopLossPct = *stopLoss
	}
	if *takeProf >= 0 {
		s.TakeProfitPct = *takeProf
	}
	return s, chosen.Name, nil
}

func printReport(label, name string, r *engine.Report) {
	p := r.Performance
	rk := r.Risk

	fmt.Printf("\n## %s / %s (%s, %s, %d samples)\n\n", label, name, r.Strategy.Kind, r.Strategy.Interval, r.Series.Len())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Invested\t%.2f\n", p.TotalInvested)
	fmt.Fprintf(w, "Final value\t%.2f\n", p.FinalValue)
	fmt.Fprintf(w, "Total return\t%.2f%%\n", p.TotalReturn)
	fmt.Fprintf(w, "Annualized return\t%.2f%%\n", p.AnnualizedReturn)
	fmt.Fprintf(w, "Sharpe ratio\t%.2f\n", p.SharpeRatio)
	fmt.Fprintf(w, "Win rate\t%.2f%%\n", p.WinRate)
	fmt.Fprintf(w, "Best / worst month\t%.2f%% / %.2f%%\n", p.BestMonth, p.WorstMonth)
	fmt.Fprintf(w, "Buys\t%d\n", p.TradeCount)
	fmt.Fprintf(w, "Average cost\t%.4f\n", p.AverageCost)
	fmt.Fprintf(w, "Max drawdown\t%.2f%%\n", p.MaxDrawdown)
	fmt.Fprintf(w, "Win / loss streak\t%d / %d\n", p.MaxConsecutiveWins, p.MaxConsecutiveLosses)
	if p.ExitReason != "" {
		fmt.Fprintf(w, "Exit\t%s\n", p.ExitReason)
	}
	w.Flush()

	fmt.Printf("\n## Risk: %.1f (%s)\n\n", rk.OverallRisk, rk.Level)
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "Volatility\tLiquidity\tDrawdown\tStrategy\tDuration\t")
	fmt.Fprintf(w, "%.1f\t%.1f\t%.1f\t%.1f\t%.1f\t\n",
		rk.Scores.Volatility, rk.Scores.Liquidity, rk.Scores.Drawdown, rk.Scores.Strategy, rk.Scores.Duration)
	w.Flush()
	fmt.Printf("Annualized volatility %.2f%%, VaR95 %.2f, VaR99 %.2f, empirical VaR95 %.2f, VaR99 %.2f\n\n",
		rk.AnnualizedVolatility, rk.VaR95, rk.VaR99, rk.EmpiricalVaR95, rk.EmpiricalVaR99)

	w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "Limit\tCurrent\tThreshold\tStatus\t")
	for _, l := range rk.Limits {
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%s\t\n", l.Kind, l.Current, l.Limit, l.Status)
	}
	w.Flush()

	fmt.Println("\n## Regimes")
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "Regime\tRSI\tCount\tMean fwd return\tWin rate\t")
	for _, b := range r.Regimes.Stats {
		fmt.Fprintf(w, "%s\t[%.0f, %.0f)\t%d\t%.2f%%\t%.2f%%\t\n",
			b.Label, b.RSILowerBound, b.RSIUpperBound, b.Count, b.MeanForwardReturn, b.WinRate)
	}
	w.Flush()
}
