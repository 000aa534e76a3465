package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"backtestLab/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements ports.ReportRepository using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/reports.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// One writer at a time; the scheduler may save from several goroutines
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	return repo, nil
}

func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS report_summaries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		report_key TEXT NOT NULL,
		symbol TEXT NOT NULL,
		strategy_kind TEXT NOT NULL,
		buy_interval TEXT NOT NULL,
		generation INTEGER NOT NULL,
		samples INTEGER NOT NULL,
		total_invested REAL NOT NULL,
		final_value REAL NOT NULL,
		total_return REAL NOT NULL,
		annualized_return REAL NOT NULL,
		sharpe_ratio REAL NOT NULL,
		win_rate REAL NOT NULL,
		max_drawdown REAL NOT NULL,
		overall_risk REAL NOT NULL,
		risk_level TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_report_summaries_key_created ON report_summaries (report_key, created_at);
	CREATE INDEX IF NOT EXISTS idx_report_summaries_symbol_created ON report_summaries (symbol, created_at);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

const summaryColumns = `id, report_key, symbol, strategy_kind, buy_interval, generation, samples,
	total_invested, final_value, total_return, annualized_return, sharpe_ratio, win_rate,
	max_drawdown, overall_risk, risk_level, created_at`

// SaveReport stores a summary and returns its assigned ID. A zero CreatedAt is set to now.
func (r *Repository) SaveReport(ctx context.Context, s *ports.ReportSummary) (int64, error) {
	const query = `
	INSERT INTO report_summaries (report_key, symbol, strategy_kind, buy_interval, generation, samples,
		total_invested, final_value, total_return, annualized_return, sharpe_ratio, win_rate,
		max_drawdown, overall_risk, risk_level, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx, query,
		s.Key, s.Symbol, s.StrategyKind, s.Interval, int64(s.Generation), s.Samples,
		s.TotalInvested, s.FinalValue, s.TotalReturn, s.AnnualizedReturn, s.SharpeRatio, s.WinRate,
		s.MaxDrawdown, s.OverallRisk, s.RiskLevel, s.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert report for key %s: %w: %w", s.Key, ports.ErrQueryFailed, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for report %s: %w", s.Key, err)
	}
	s.ID = id
	r.logger.Debug(ctx, "Report saved", map[string]interface{}{"reportID": id, "key": s.Key, "generation": s.Generation})
	return id, nil
}

// FindLatestByKey retrieves the most recently created summary for a key.
// Generations restart with the process, so they only break ties through id.
// Returns nil, nil if none exists.
func (r *Repository) FindLatestByKey(ctx context.Context, key string) (*ports.ReportSummary, error) {
	query := `SELECT ` + summaryColumns + `
	FROM report_summaries
	WHERE report_key = ?
	ORDER BY created_at DESC, id DESC
	LIMIT 1`

	s, err := scanSummary(r.db.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest report for key %s: %w: %w", key, ports.ErrQueryFailed, err)
	}
	return s, nil
}

// FindBySymbol retrieves the most recent summaries for a symbol, newest first.
func (r *Repository) FindBySymbol(ctx context.Context, symbol string, limit int) ([]*ports.ReportSummary, error) {
	query := `SELECT ` + summaryColumns + `
	FROM report_summaries
	WHERE symbol = ?
	ORDER BY created_at DESC, id DESC
	LIMIT ?`
	return r.query(ctx, query, symbol, limit)
}

// FindRecent retrieves the most recent summaries across all symbols, newest first.
func (r *Repository) FindRecent(ctx context.Context, limit int) ([]*ports.ReportSummary, error) {
	query := `SELECT ` + summaryColumns + `
	FROM report_summaries
	ORDER BY created_at DESC, id DESC
	LIMIT ?`
	return r.query(ctx, query, limit)
}

func (r *Repository) query(ctx context.Context, query string, args ...interface{}) ([]*ports.ReportSummary, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w: %w", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	var summaries []*ports.ReportSummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report rows: %w", err)
	}
	return summaries, nil
}

// --- Helper Scan Functions ---

// scanner is an interface satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSummary(s scanner) (*ports.ReportSummary, error) {
	var sum ports.ReportSummary
	var generation int64
	err := s.Scan(
		&sum.ID, &sum.Key, &sum.Symbol, &sum.StrategyKind, &sum.Interval, &generation, &sum.Samples,
		&sum.TotalInvested, &sum.FinalValue, &sum.TotalReturn, &sum.AnnualizedReturn, &sum.SharpeRatio, &sum.WinRate,
		&sum.MaxDrawdown, &sum.OverallRisk, &sum.RiskLevel, &sum.CreatedAt,
	)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	sum.Generation = uint64(generation)
	return &sum, nil
}
