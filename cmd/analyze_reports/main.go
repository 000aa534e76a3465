package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"backtestLab/config"
	"backtestLab/internal/adapters/logger"
	"backtestLab/internal/adapters/sqlite"
	"backtestLab/internal/ports"
)

var (
	symbol = flag.String("symbol", "", "only show reports for this symbol")
	limit  = flag.Int("limit", 50, "maximum number of reports to load")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	appLogger := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	ctx := context.Background()

	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
	if err != nil {
		log.Fatalf("FATAL: Failed to open report database: %v", err)
	}
	defer repo.Close()

	var summaries []*ports.ReportSummary
	if *symbol != "" {
		summaries, err = repo.FindBySymbol(ctx, strings.ToUpper(*symbol), *limit)
	} else {
		summaries, err = repo.FindRecent(ctx, *limit)
	}
	if err != nil {
		log.Fatalf("Error loading reports: %v", err)
	}
	if len(summaries) == 0 {
		log.Println("No reports found. Run the analysis service first.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight|tabwriter.Debug)
	fmt.Fprintln(w, "Created\tKey\tGen\tSamples\tInvested\tFinal\tReturn%\tSharpe\tWinRate%\tMaxDD%\tRisk\tLevel\t")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.1f\t%s\t\n",
			s.CreatedAt.Format("2006-01-02 15:04"), s.Key, s.Generation, s.Samples,
			s.TotalInvested, s.FinalValue, s.TotalReturn, s.SharpeRatio, s.WinRate,
			s.MaxDrawdown, s.OverallRisk, s.RiskLevel)
	}
	w.Flush()

	fmt.Println("\n## Per-key summary")
	printKeyStats(ctx, repo, summaries)
}

// KeyStats aggregates the loaded reports of one refresh key
type KeyStats struct {
	Key         string
	Reports     int
	AvgReturn   float64
	BestReturn  float64
	WorstReturn float64
	AvgRisk     float64
	Latest      *ports.ReportSummary
}

func calculateKeyStats(summaries []*ports.ReportSummary) []KeyStats {
	byKey := make(map[string]*KeyStats)
	for _, s := range summaries {
		st, ok := byKey[s.Key]
		if !ok {
			st = &KeyStats{Key: s.Key, BestReturn: s.TotalReturn, WorstReturn: s.TotalReturn}
			byKey[s.Key] = st
		}
		st.Reports++
		st.AvgReturn += s.TotalReturn
		st.AvgRisk += s.OverallRisk
		st.BestReturn = max(st.BestReturn, s.TotalReturn)
		st.WorstReturn = min(st.WorstReturn, s.TotalReturn)
	}

	stats := make([]KeyStats, 0, len(byKey))
	for _, st := range byKey {
		st.AvgReturn /= float64(st.Reports)
		st.AvgRisk /= float64(st.Reports)
		stats = append(stats, *st)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Key < stats[j].Key })
	return stats
}

func printKeyStats(ctx context.Context, repo ports.ReportRepository, summaries []*ports.ReportSummary) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight|tabwriter.Debug)
	fmt.Fprintln(w, "Key\tReports\tAvgReturn%\tBest%\tWorst%\tAvgRisk\tLatestGen\tLatestLevel\t")
	for _, st := range calculateKeyStats(summaries) {
		latest, err := repo.FindLatestByKey(ctx, st.Key)
		if err != nil {
			log.Printf("Error loading latest report for %s: %v", st.Key, err)
			continue
		}
		var gen uint64
		level := "-"
		if latest != nil {
			gen, level = latest.Generation, latest.RiskLevel
		}
		fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f\t%.2f\t%.1f\t%d\t%s\t\n",
			st.Key, st.Reports, st.AvgReturn, st.BestReturn, st.WorstReturn, st.AvgRisk, gen, level)
	}
	w.Flush()
}
