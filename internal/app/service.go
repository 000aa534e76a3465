package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"backtestLab/internal/domain"
	"backtestLab/internal/engine"
	"backtestLab/internal/ports"
)

// Target is one refresh key: a symbol analysed under a named strategy.
type Target struct {
	Symbol   string
	Profile  string
	Strategy domain.StrategyConfig
}

// Key identifies the target's results in the published map and the repository.
func (t Target) Key() string {
	return t.Symbol + "/" + t.Profile
}

// Published is the newest accepted report for a key.
type Published struct {
	Generation  uint64
	Report      *engine.Report
	Summary     *ports.ReportSummary
	PublishedAt time.Time
}

// ServiceConfig holds the analysis settings shared by every target.
type ServiceConfig struct {
	CandleInterval string
	CandleLimit    int
	RSIPeriod      int
	Thresholds     domain.RiskThresholds
	RefreshTimeout time.Duration
}

// AnalysisService fetches market data, runs the engine and publishes results.
// Concurrent refreshes of one key are ordered by generation: only the newest
// request may publish.
type AnalysisService struct {
	cfg    ServiceConfig
	market ports.MarketDataProvider
	repo   ports.ReportRepository
	logger ports.Logger

	mu          sync.RWMutex // Protects generations and latest
	generations map[string]*atomic.Uint64
	latest      map[string]*Published
}

// NewAnalysisService creates a new analysis service.
func NewAnalysisService(
	cfg ServiceConfig,
	market ports.MarketDataProvider,
	repo ports.ReportRepository,
	logger ports.Logger,
) (*AnalysisService, error) {
	if market == nil || repo == nil || logger == nil {
		return nil, fmt.Errorf("market data provider, repository and logger are required: %w", ports.ErrConfigurationError)
	}
	if cfg.CandleLimit < 2 {
		return nil, fmt.Errorf("candle limit must be at least 2: %w", ports.ErrConfigurationError)
	}
	if cfg.CandleInterval == "" {
		cfg.CandleInterval = "1d"
	}
	return &AnalysisService{
		cfg:         cfg,
		market:      market,
		repo:        repo,
		logger:      logger,
		generations: make(map[string]*atomic.Uint64),
		latest:      make(map[string]*Published),
	}, nil
}

// Refresh analyses one target. It returns ports.ErrStaleGeneration when a newer
// refresh for the same key started while this one was running; such results are
// neither published nor stored.
func (s *AnalysisService) Refresh(ctx context.Context, target Target) (*Published, error) {
	key := target.Key()
	counter := s.counter(key)
	gen := counter.Add(1)
	logFields := map[string]interface{}{"key": key, "generation": gen}

	if s.cfg.RefreshTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RefreshTimeout)
		defer cancel()
	}

	candles, err := s.market.GetCandles(ctx, target.Symbol, s.cfg.CandleInterval, s.cfg.CandleLimit)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to fetch candles", logFields)
		return nil, fmt.Errorf("fetch candles for %s: %w", key, err)
	}

	volume, err := s.market.GetQuoteVolume24h(ctx, target.Symbol)
	if err != nil {
		// Liquidity then scores as the thinnest market
		s.logger.Warn(ctx, "Quote volume unavailable, scoring liquidity as unknown", map[string]interface{}{
			"key": key, "error": err.Error(),
		})
		volume = 0
	}

	report, err := engine.Run(engine.Request{
		Candles:    candles,
		Strategy:   target.Strategy,
		Market:     domain.MarketContext{Symbol: target.Symbol, QuoteVolume24h: volume},
		Thresholds: s.cfg.Thresholds,
		RSIPeriod:  s.cfg.RSIPeriod,
	})
	if err != nil {
		s.logger.Error(ctx, err, "Analysis failed", logFields)
		return nil, fmt.Errorf("analyse %s: %w", key, err)
	}

	pub := &Published{
		Generation:  gen,
		Report:      report,
		Summary:     report.Summary(key, gen),
		PublishedAt: time.Now().UTC(),
	}
	if !s.publish(key, counter, pub) {
		s.logger.Debug(ctx, "Discarding superseded result", logFields)
		return nil, fmt.Errorf("refresh %s generation %d: %w", key, gen, ports.ErrStaleGeneration)
	}

	if _, err := s.repo.SaveReport(ctx, pub.Summary); err != nil {
		s.logger.Error(ctx, err, "Failed to save report summary", logFields)
		return pub, fmt.Errorf("save report %s: %w", key, err)
	}

	s.logger.Info(ctx, "Report published", map[string]interface{}{
		"key":         key,
		"generation":  gen,
		"totalReturn": pub.Summary.TotalReturn,
		"overallRisk": pub.Summary.OverallRisk,
		"riskLevel":   pub.Summary.RiskLevel,
	})
	return pub, nil
}

// RefreshAll refreshes every target concurrently. Stale results are not errors.
func (s *AnalysisService) RefreshAll(ctx context.Context, targets []Target) error {
	var wg sync.WaitGroup
	var errMu sync.Mutex
	var errs []error

	for _, t := range targets {
		wg.Add(1)
		go func(t Target) {
			defer wg.Done()
			if _, err := s.Refresh(ctx, t); err != nil && !errors.Is(err, ports.ErrStaleGeneration) {
				errMu.Lock()
				errs = append(errs, err)
				errMu.Unlock()
			}
		}(t)
	}
	wg.Wait()

	return errors.Join(errs...)
}

// Latest returns the newest published report for a key.
func (s *AnalysisService) Latest(key string) (*Published, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.latest[key]
	return p, ok
}

// Generation returns the newest generation handed out for a key, 0 if none.
func (s *AnalysisService) Generation(key string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.generations[key]; ok {
		return c.Load()
	}
	return 0
}

func (s *AnalysisService) counter(key string) *atomic.Uint64 {
	s.mu.RLock()
	c, ok := s.generations[key]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok = s.generations[key]; !ok {
		c = new(atomic.Uint64)
		s.generations[key] = c
	}
	return c
}

// publish stores pub only if its generation is still the newest for the key.
func (s *AnalysisService) publish(key string, counter *atomic.Uint64, pub *Published) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if counter.Load() != pub.Generation {
		return false
	}
	if cur, ok := s.latest[key]; ok && cur.Generation >= pub.Generation {
		return false
	}
	s.latest[key] = pub
	return true
}
