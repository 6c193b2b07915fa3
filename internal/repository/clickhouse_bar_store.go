package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"UnslugCity/internal/domain/models"
	domrepo "UnslugCity/internal/domain/repository"
	pkgch "UnslugCity/pkg/clickhouse"
	applogger "UnslugCity/pkg/logger"
)

// Schema holds the DDL for the bar tables, run on startup.
var Schema = []string{
	`CREATE DATABASE IF NOT EXISTS unslug`,
	`CREATE TABLE IF NOT EXISTS unslug.bars_1d (
        ts        DateTime64(3, 'UTC'),
        symbol    LowCardinality(String),
        open      Float64,
        high      Float64,
        low       Float64,
        close     Float64,
        adj_close Float64,
        vol       Float64
    ) ENGINE = ReplacingMergeTree
    ORDER BY (symbol, ts)`,
	`CREATE TABLE IF NOT EXISTS unslug.bars_1h (
        ts        DateTime64(3, 'UTC'),
        symbol    LowCardinality(String),
        open      Float64,
        high      Float64,
        low       Float64,
        close     Float64,
        adj_close Float64,
        vol       Float64
    ) ENGINE = ReplacingMergeTree
    ORDER BY (symbol, ts)`,
	`CREATE TABLE IF NOT EXISTS unslug.bars_5m (
        ts        DateTime64(3, 'UTC'),
        symbol    LowCardinality(String),
        open      Float64,
        high      Float64,
        low       Float64,
        close     Float64,
        adj_close Float64,
        vol       Float64
    ) ENGINE = ReplacingMergeTree
    ORDER BY (symbol, ts)`,
}

// CHBarStore implements BarStore backed by ClickHouse.
type CHBarStore struct {
	client *pkgch.Client
	db     *sql.DB
	l      *applogger.Logger
}

func NewCHBarStore(ch *pkgch.Client) *CHBarStore {
	return &CHBarStore{client: ch, db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHBarStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHBarStore) GetBars(ctx context.Context, symbol string, from, to time.Time, iv domrepo.Interval) ([]models.Bar, error) {
	start := time.Now()
	table, err := tableForInterval(iv)
	if err != nil {
		return nil, err
	}
	const qtpl = `
        SELECT ts, symbol, open, high, low, close, adj_close, vol
        FROM %s
        WHERE symbol = ? AND ts >= ? AND ts <= ?
        ORDER BY ts ASC
    `
	q := fmt.Sprintf(qtpl, table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to)
	if err != nil {
		s.logQueryError("get_bars", table, symbol, iv, err)
		return nil, fmt.Errorf("get bars: %w", err)
	}
	defer rows.Close()

	out := make([]models.Bar, 0, 1024)
	for rows.Next() {
		b, err := scanBar(rows, iv)
		if err != nil {
			s.logQueryError("get_bars", table, symbol, iv, err)
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		s.logQueryError("get_bars", table, symbol, iv, err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse get_bars ok",
			applogger.String("table", table),
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHBarStore) GetLatestNBars(ctx context.Context, symbol string, n int, iv domrepo.Interval) ([]models.Bar, error) {
	start := time.Now()
	table, err := tableForInterval(iv)
	if err != nil {
		return nil, err
	}
	const qtpl = `
        SELECT ts, symbol, open, high, low, close, adj_close, vol
        FROM %s
        WHERE symbol = ?
        ORDER BY ts DESC
        LIMIT ?
    `
	q := fmt.Sprintf(qtpl, table)
	rows, err := s.db.QueryContext(ctx, q, symbol, n)
	if err != nil {
		s.logQueryError("latest_bars", table, symbol, iv, err)
		return nil, fmt.Errorf("get latest bars: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.Bar, 0, n)
	for rows.Next() {
		b, err := scanBar(rows, iv)
		if err != nil {
			s.logQueryError("latest_bars", table, symbol, iv, err)
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		tmp = append(tmp, b)
	}
	if err := rows.Err(); err != nil {
		s.logQueryError("latest_bars", table, symbol, iv, err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to ASC
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	if s.l != nil {
		s.l.Info("clickhouse latest_bars ok",
			applogger.String("table", table),
			applogger.String("symbol", symbol),
			applogger.Int("limit", n),
			applogger.Int("rows", len(tmp)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return tmp, nil
}

func (s *CHBarStore) StoreBars(ctx context.Context, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	start := time.Now()

	byTable := make(map[string][]models.Bar)
	for _, b := range bars {
		table, err := tableForInterval(domrepo.Interval(b.Interval))
		if err != nil {
			return err
		}
		byTable[table] = append(byTable[table], b)
	}

	for table, group := range byTable {
		q := fmt.Sprintf(`INSERT INTO %s (ts, symbol, open, high, low, close, adj_close, vol) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, table)
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, q)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("prepare insert: %w", err)
		}
		for _, b := range group {
			if _, err := stmt.ExecContext(ctx, b.Ts, b.Symbol, b.Open, b.High, b.Low, b.Close, b.AdjClose, b.Volume); err != nil {
				_ = stmt.Close()
				_ = tx.Rollback()
				return fmt.Errorf("insert bar: %w", err)
			}
		}
		_ = stmt.Close()
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
	}

	if s.l != nil {
		s.l.Info("clickhouse store_bars ok",
			applogger.Int("rows", len(bars)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHBarStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *CHBarStore) Close() error {
	return s.client.Close()
}

func (s *CHBarStore) logQueryError(op, table, symbol string, iv domrepo.Interval, err error) {
	if s.l == nil {
		return
	}
	s.l.Error("clickhouse "+op+" error",
		applogger.String("table", table),
		applogger.String("symbol", symbol),
		applogger.String("interval", string(iv)),
		applogger.Error(err),
	)
}

func scanBar(rows *sql.Rows, iv domrepo.Interval) (models.Bar, error) {
	var b models.Bar
	if err := rows.Scan(&b.Ts, &b.Symbol, &b.Open, &b.High, &b.Low, &b.Close, &b.AdjClose, &b.Volume); err != nil {
		return models.Bar{}, err
	}
	b.Interval = string(iv)
	return b, nil
}

func tableForInterval(iv domrepo.Interval) (string, error) {
	switch iv {
	case domrepo.IV1d, "":
		return "unslug.bars_1d", nil
	case domrepo.IV1h:
		return "unslug.bars_1h", nil
	case domrepo.IV5m:
		return "unslug.bars_5m", nil
	default:
		return "", fmt.Errorf("unsupported interval: %s", iv)
	}
}
