// Package store persists backtest results to DuckDB so runs can be compared
// and reloaded after the fact.
package store

import (
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/quantfold/volarb/internal/backtest"
	"github.com/quantfold/volarb/internal/logger"
	"github.com/quantfold/volarb/internal/types"
	"github.com/quantfold/volarb/pkg/errors"
)

// RunInfo identifies one stored run.
type RunInfo struct {
	ID          string
	Name        string
	CreatedAt   time.Time
	InitialCash float64
	FinalEquity float64
	TotalReturn float64
}

// ResultStore writes and reads backtest results in a DuckDB database.
type ResultStore struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewResultStore opens the store at the given path. An empty path opens an
// in-memory database.
func NewResultStore(path string, log *logger.Logger) (*ResultStore, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeBacktestStoreFailed, err, "failed to open database %s", path)
	}

	return &ResultStore{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the tables used to persist results.
func (s *ResultStore) Initialize() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			name TEXT,
			created_at TIMESTAMP,
			initial_cash DOUBLE,
			final_equity DOUBLE,
			total_return DOUBLE,
			sharpe_ratio DOUBLE,
			max_drawdown DOUBLE
		)`,
		`CREATE TABLE IF NOT EXISTS trades (
			run_id TEXT,
			instrument_id TEXT,
			side TEXT,
			quantity DOUBLE,
			price DOUBLE,
			timestamp TIMESTAMP,
			transaction_cost DOUBLE
		)`,
		`CREATE TABLE IF NOT EXISTS equity_curve (
			run_id TEXT,
			timestamp TIMESTAMP,
			value DOUBLE
		)`,
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return errors.Wrap(errors.ErrCodeBacktestStoreFailed, "failed to create tables", err)
		}
	}

	return nil
}

// WriteResult stores a result under a fresh run id and returns the id.
func (s *ResultStore) WriteResult(name string, result *backtest.Result) (string, error) {
	runID := uuid.New().String()

	tx, err := s.db.Begin()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeBacktestStoreFailed, "failed to begin transaction", err)
	}

	summary := result.Summarize()

	insertRun := s.sq.
		Insert("runs").
		Columns("run_id", "name", "created_at", "initial_cash", "final_equity", "total_return", "sharpe_ratio", "max_drawdown").
		Values(runID, name, time.Now().UTC(), summary.InitialCash, summary.FinalEquity, summary.TotalReturn, summary.SharpeRatio, summary.MaxDrawdown)

	query, args, err := insertRun.ToSql()
	if err != nil {
		_ = tx.Rollback()

		return "", errors.Wrap(errors.ErrCodeBacktestStoreFailed, "failed to build run insert", err)
	}

	if _, err := tx.Exec(query, args...); err != nil {
		_ = tx.Rollback()

		return "", errors.Wrap(errors.ErrCodeBacktestStoreFailed, "failed to insert run", err)
	}

	for _, trade := range result.Trades() {
		insertTrade := s.sq.
			Insert("trades").
			Columns("run_id", "instrument_id", "side", "quantity", "price", "timestamp", "transaction_cost").
			Values(runID, trade.InstrumentID, string(trade.Side), trade.Quantity, trade.Price, trade.Timestamp, trade.TransactionCost)

		query, args, err := insertTrade.ToSql()
		if err != nil {
			_ = tx.Rollback()

			return "", errors.Wrap(errors.ErrCodeBacktestStoreFailed, "failed to build trade insert", err)
		}

		if _, err := tx.Exec(query, args...); err != nil {
			_ = tx.Rollback()

			return "", errors.Wrap(errors.ErrCodeBacktestStoreFailed, "failed to insert trade", err)
		}
	}

	for _, point := range result.EquityCurve() {
		insertPoint := s.sq.
			Insert("equity_curve").
			Columns("run_id", "timestamp", "value").
			Values(runID, point.Time, point.Value)

		query, args, err := insertPoint.ToSql()
		if err != nil {
			_ = tx.Rollback()

			return "", errors.Wrap(errors.ErrCodeBacktestStoreFailed, "failed to build equity insert", err)
		}

		if _, err := tx.Exec(query, args...); err != nil {
			_ = tx.Rollback()

			return "", errors.Wrap(errors.ErrCodeBacktestStoreFailed, "failed to insert equity point", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", errors.Wrap(errors.ErrCodeBacktestStoreFailed, "failed to commit result", err)
	}

	s.logger.Info("stored backtest result",
		zap.String("run_id", runID),
		zap.String("name", name),
		zap.Int("trades", summary.TradeCount),
	)

	return runID, nil
}

// GetTrades loads the trade log of a stored run in chronological order.
func (s *ResultStore) GetTrades(runID string) ([]types.Trade, error) {
	query, args, err := s.sq.
		Select("instrument_id", "side", "quantity", "price", "timestamp", "transaction_cost").
		From("trades").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("timestamp").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestStoreFailed, "failed to build trades query", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestStoreFailed, "failed to query trades", err)
	}
	defer rows.Close()

	var trades []types.Trade

	for rows.Next() {
		var trade types.Trade

		var side string

		if err := rows.Scan(&trade.InstrumentID, &side, &trade.Quantity, &trade.Price, &trade.Timestamp, &trade.TransactionCost); err != nil {
			return nil, errors.Wrap(errors.ErrCodeBacktestStoreFailed, "failed to scan trade", err)
		}

		trade.Side = types.TradeSide(side)
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestStoreFailed, "failed to read trades", err)
	}

	return trades, nil
}

// GetEquityCurve loads the equity samples of a stored run in chronological
// order.
func (s *ResultStore) GetEquityCurve(runID string) ([]backtest.EquityPoint, error) {
	query, args, err := s.sq.
		Select("timestamp", "value").
		From("equity_curve").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("timestamp").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestStoreFailed, "failed to build equity query", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestStoreFailed, "failed to query equity curve", err)
	}
	defer rows.Close()

	var curve []backtest.EquityPoint

	for rows.Next() {
		var point backtest.EquityPoint
		if err := rows.Scan(&point.Time, &point.Value); err != nil {
			return nil, errors.Wrap(errors.ErrCodeBacktestStoreFailed, "failed to scan equity point", err)
		}

		curve = append(curve, point)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestStoreFailed, "failed to read equity curve", err)
	}

	return curve, nil
}

// ListRuns returns all stored runs, newest first.
func (s *ResultStore) ListRuns() ([]RunInfo, error) {
	query, args, err := s.sq.
		Select("run_id", "name", "created_at", "initial_cash", "final_equity", "total_return").
		From("runs").
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestStoreFailed, "failed to build runs query", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestStoreFailed, "failed to query runs", err)
	}
	defer rows.Close()

	var runs []RunInfo

	for rows.Next() {
		var run RunInfo
		if err := rows.Scan(&run.ID, &run.Name, &run.CreatedAt, &run.InitialCash, &run.FinalEquity, &run.TotalReturn); err != nil {
			return nil, errors.Wrap(errors.ErrCodeBacktestStoreFailed, "failed to scan run", err)
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestStoreFailed, "failed to read runs", err)
	}

	return runs, nil
}

// Close releases the underlying database.
func (s *ResultStore) Close() error {
	return s.db.Close()
}
