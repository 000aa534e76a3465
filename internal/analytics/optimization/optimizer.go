package optimization

import (
	"context"
	"math"
	"runtime"
	"sort"
	"sync"

	"backtestLab/internal/analytics/backtesting"
	"backtestLab/internal/analytics/performance"
	"backtestLab/internal/domain"
)

// Parameter names understood by the optimizer.
const (
	ParamAmountPerBuy  = "amount_per_buy"
	ParamStopLossPct   = "stop_loss_pct"
	ParamTakeProfitPct = "take_profit_pct"
)

// ParameterRange defines a range for a parameter to optimize
type ParameterRange struct {
	Name  string
	Min   float64
	Max   float64
	Step  float64
	IsInt bool
}

// OptimizationResult holds the results of one parameter combination
type OptimizationResult struct {
	Parameters map[string]float64
	Strategy   domain.StrategyConfig
	Metrics    *performance.PerformanceMetrics
	Score      float64

	index int
}

// OptimizerConfig holds configuration for the optimizer
type OptimizerConfig struct {
	ParameterRanges []ParameterRange
	// Intervals and Kinds are swept in full; empty means Base's value only.
	Intervals []domain.BuyInterval
	Kinds     []domain.StrategyKind
	// Base supplies every field not swept.
	Base          domain.StrategyConfig
	ScoreFunction func(*performance.PerformanceMetrics) float64
	// MaxWorkers bounds concurrent simulations. Defaults to GOMAXPROCS.
	MaxWorkers int
}

// Optimizer implements a grid search over periodic-investment settings
type Optimizer struct {
	config OptimizerConfig
}

// NewOptimizer creates a new optimizer instance
func NewOptimizer(config OptimizerConfig) *Optimizer {
	if config.ScoreFunction == nil {
		config.ScoreFunction = DefaultScoreFunction
	}
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = runtime.GOMAXPROCS(0)
	}
	return &Optimizer{
		config: config,
	}
}

// Optimize simulates every combination over ps and returns the results sorted
// by score, best first. Combinations that fail validation or do not fit the
// series are skipped.
func (o *Optimizer) Optimize(ctx context.Context, ps *domain.PriceSeries) ([]OptimizationResult, error) {
	strategies := o.strategyCombinations()
	results := make([]OptimizationResult, 0, len(strategies))

	resultChan := make(chan OptimizationResult, len(strategies))
	sem := make(chan struct{}, o.config.MaxWorkers)
	var wg sync.WaitGroup

	for i, candidate := range strategies {
		wg.Add(1)
		go func(i int, candidate OptimizationResult) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			sim, err := backtesting.Simulate(ps, candidate.Strategy)
			if err != nil {
				return
			}

			metrics := performance.AnalyzePerformance(sim)
			candidate.Metrics = metrics
			candidate.Score = o.config.ScoreFunction(metrics)
			candidate.index = i
			resultChan <- candidate
		}(i, candidate)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	for result := range resultChan {
		results = append(results, result)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sortResultsByScore(results)
	return results, nil
}

// strategyCombinations crosses parameter combinations with intervals and kinds.
func (o *Optimizer) strategyCombinations() []OptimizationResult {
	intervals := o.config.Intervals
	if len(intervals) == 0 {
		intervals = []domain.BuyInterval{o.config.Base.Interval}
	}
	kinds := o.config.Kinds
	if len(kinds) == 0 {
		kinds = []domain.StrategyKind{o.config.Base.Kind}
	}

	var out []OptimizationResult
	for _, params := range o.generateParameterCombinations() {
		for _, interval := range intervals {
			for _, kind := range kinds {
				cfg := applyParams(o.config.Base, params)
				cfg.Interval = interval
				cfg.Kind = kind
				out = append(out, OptimizationResult{Parameters: params, Strategy: cfg})
			}
		}
	}
	return out
}

// generateParameterCombinations generates all possible parameter combinations
func (o *Optimizer) generateParameterCombinations() []map[string]float64 {
	var combinations []map[string]float64
	var currentCombination map[string]float64

	var generate func(int)
	generate = func(paramIndex int) {
		if paramIndex == len(o.config.ParameterRanges) {
			combination := make(map[string]float64, len(currentCombination))
			for k, v := range currentCombination {
				combination[k] = v
			}
			combinations = append(combinations, combination)
			return
		}

		param := o.config.ParameterRanges[paramIndex]
		if param.Step <= 0 {
			currentCombination[param.Name] = param.Min
			generate(paramIndex + 1)
			return
		}
		// Count steps up front so float accumulation cannot add or drop a value
		steps := int(math.Floor((param.Max-param.Min)/param.Step + 1e-9))
		for k := 0; k <= steps; k++ {
			value := param.Min + float64(k)*param.Step
			if param.IsInt {
				value = math.Round(value)
			}
			currentCombination[param.Name] = value
			generate(paramIndex + 1)
		}
	}

	currentCombination = make(map[string]float64)
	generate(0)
	return combinations
}

func applyParams(base domain.StrategyConfig, params map[string]float64) domain.StrategyConfig {
	cfg := base
	if v, ok := params[ParamAmountPerBuy]; ok {
		cfg.AmountPerBuy = v
	}
	if v, ok := params[ParamStopLossPct]; ok {
		cfg.StopLossPct = v
	}
	if v, ok := params[ParamTakeProfitPct]; ok {
		cfg.TakeProfitPct = v
	}
	return cfg
}

// sortResultsByScore sorts optimization results by score in descending order.
// Ties keep grid order.
func sortResultsByScore(results []OptimizationResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].index < results[j].index
	})
}

// DefaultScoreFunction blends return, risk-adjusted return and drawdown
func DefaultScoreFunction(metrics *performance.PerformanceMetrics) float64 {
	score := 0.0

	score += metrics.TotalReturn * 0.4
	score += metrics.SharpeRatio * 0.3
	score -= metrics.MaxDrawdown * 0.3

	return score
}
