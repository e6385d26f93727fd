package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"MarketLens/internal/model"
)

// SQLiteRecorder persists the run log to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while a refresh writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id           TEXT PRIMARY KEY,
			kind         TEXT NOT NULL,
			started_at   INTEGER NOT NULL,
			finished_at  INTEGER NOT NULL,
			granularity  TEXT,
			bar_interval TEXT,
			start_date   TEXT,
			end_date     TEXT,
			succeeded    INTEGER,
			failed       INTEGER,
			error        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS symbol_results (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id          TEXT NOT NULL REFERENCES runs(id),
			symbol          TEXT NOT NULL,
			stage           TEXT,
			error_kind      TEXT,
			error           TEXT,
			observations    INTEGER,
			last_close      REAL,
			daily_pct       REAL,
			weekly_pct      REAL,
			monthly_pct     REAL,
			quarterly_pct   REAL,
			yearly_pct      REAL,
			week_range_pct  REAL,
			month_range_pct REAL,
			year_range_pct  REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_symbol_results_run ON symbol_results(run_id)`,

		`CREATE TABLE IF NOT EXISTS sector_snapshots (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id          TEXT NOT NULL REFERENCES runs(id),
			sector          TEXT NOT NULL,
			ticker          TEXT NOT NULL,
			observations    INTEGER,
			error           TEXT,
			daily_pct       REAL,
			weekly_pct      REAL,
			monthly_pct     REAL,
			quarterly_pct   REAL,
			yearly_pct      REAL,
			week_range_pct  REAL,
			month_range_pct REAL,
			year_range_pct  REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sector_snapshots_run ON sector_snapshots(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func dateText(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

func insertRun(tx *sql.Tx, run *Run) error {
	_, err := tx.Exec(`INSERT INTO runs
		(id, kind, started_at, finished_at, granularity, bar_interval, start_date, end_date, succeeded, failed, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Kind, run.StartedAt.Unix(), run.FinishedAt.Unix(),
		string(run.Granularity), run.BarInterval, dateText(run.Start), dateText(run.End),
		run.Succeeded, run.Failed, run.Err)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func errText(e *model.SymbolError) (kind, msg string) {
	if e == nil {
		return "", ""
	}
	return string(e.Kind), e.Error()
}

func (r *SQLiteRecorder) RecordSymbols(run *Run, results []model.AnalyticsResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := insertRun(tx, run); err != nil {
		return err
	}
	for _, res := range results {
		var p model.PerformanceSnapshot
		if res.Performance != nil {
			p = *res.Performance
		}
		kind, msg := errText(res.Err)
		stage := res.Stage
		if res.Err != nil {
			stage = res.Err.Stage
		}
		_, err := tx.Exec(`INSERT INTO symbol_results
			(run_id, symbol, stage, error_kind, error, observations, last_close,
			 daily_pct, weekly_pct, monthly_pct, quarterly_pct, yearly_pct,
			 week_range_pct, month_range_pct, year_range_pct)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, res.Symbol, string(stage), kind, msg, res.Series.Len(), res.LastClose,
			p.DailyPct, p.WeeklyPct, p.MonthlyPct, p.QuarterlyPct, p.YearlyPct,
			p.WeekRangePct, p.MonthRangePct, p.YearRangePct)
		if err != nil {
			return fmt.Errorf("insert symbol result %s: %w", res.Symbol, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordSectors(run *Run, bundle *model.SectorBundle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := insertRun(tx, run); err != nil {
		return err
	}
	var sectors []model.SectorResult
	if bundle != nil {
		sectors = bundle.Sectors
	}
	for _, s := range sectors {
		_, msg := errText(s.Err)
		p := s.Performance
		_, err := tx.Exec(`INSERT INTO sector_snapshots
			(run_id, sector, ticker, observations, error,
			 daily_pct, weekly_pct, monthly_pct, quarterly_pct, yearly_pct,
			 week_range_pct, month_range_pct, year_range_pct)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, s.Sector, s.Ticker, s.Observations, msg,
			p.DailyPct, p.WeeklyPct, p.MonthlyPct, p.QuarterlyPct, p.YearlyPct,
			p.WeekRangePct, p.MonthRangePct, p.YearRangePct)
		if err != nil {
			return fmt.Errorf("insert sector snapshot %s: %w", s.Ticker, err)
		}
	}
	return tx.Commit()
}

// RecentRuns returns up to limit runs, newest first.
func (r *SQLiteRecorder) RecentRuns(limit int) ([]Run, error) {
	rows, err := r.db.Query(`SELECT id, kind, started_at, finished_at, granularity, bar_interval,
		start_date, end_date, succeeded, failed, error
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run               Run
			started, finished int64
			granularity, s, e string
		)
		if err := rows.Scan(&run.ID, &run.Kind, &started, &finished, &granularity, &run.BarInterval,
			&s, &e, &run.Succeeded, &run.Failed, &run.Err); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = time.Unix(started, 0)
		run.FinishedAt = time.Unix(finished, 0)
		run.Granularity = model.Granularity(granularity)
		if s != "" {
			run.Start, _ = time.Parse(time.DateOnly, s)
		}
		if e != "" {
			run.End, _ = time.Parse(time.DateOnly, e)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close closes the database connection.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
