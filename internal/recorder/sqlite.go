package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"LeverageLens/internal/model"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode lets the dashboard read while a scheduled run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Infof("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id                TEXT PRIMARY KEY,
			timestamp         INTEGER NOT NULL,
			run_trigger       TEXT,
			symbol_a          TEXT,
			symbol_b          TEXT,
			variant           TEXT,
			range_from        TEXT,
			range_to          TEXT,
			sma_window        INTEGER,
			alignment_days    INTEGER,
			convention        TEXT,
			trading_days      INTEGER,
			up_matched        INTEGER,
			up_a_leads_pct    REAL,
			up_b_leads_pct    REAL,
			down_matched      INTEGER,
			down_a_leads_pct  REAL,
			down_b_leads_pct  REAL,
			both_above_pct    REAL,
			both_below_pct    REAL,
			correlation       REAL,
			beta              REAL,
			best_lag          INTEGER,
			notices           TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS crossing_events (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id    TEXT NOT NULL,
			symbol    TEXT,
			direction TEXT,
			date      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_crossing_run ON crossing_events(run_id)`,

		`CREATE TABLE IF NOT EXISTS matched_events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			kind        TEXT,
			a_date      TEXT,
			b_date      TEXT,
			offset_days INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_matched_run ON matched_events(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(run *RunRecord) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := run.Result
	req := res.Request
	id := uuid.NewString()

	var (
		upMatched, downMatched           int
		upA, upB, downA, downB           *float64
		bothAbove, bothBelow, corr, beta *float64
		bestLag                          *int
	)
	if c := res.Crossing; c != nil {
		upMatched, upA, upB = c.Up.Matched, c.Up.ALeadsPct, c.Up.BLeadsPct
		downMatched, downA, downB = c.Down.Matched, c.Down.ALeadsPct, c.Down.BLeadsPct
	}
	if q := res.Quadrants; q != nil {
		bothAbove, bothBelow = &q.BothAbovePct, &q.BothBelowPct
	}
	if rr := res.Returns; rr != nil {
		corr, beta = rr.Correlation, rr.Beta
		if rr.BestLag != nil {
			bestLag = &rr.BestLag.Lag
		}
	}

	tx, err := r.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO runs
		(id, timestamp, run_trigger, symbol_a, symbol_b, variant, range_from, range_to,
		 sma_window, alignment_days, convention, trading_days,
		 up_matched, up_a_leads_pct, up_b_leads_pct,
		 down_matched, down_a_leads_pct, down_b_leads_pct,
		 both_above_pct, both_below_pct, correlation, beta, best_lag, notices)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		id, time.Now().Unix(), string(run.Trigger), res.SymbolA, res.SymbolB, string(req.Variant),
		res.From.Format(model.DateLayout), res.To.Format(model.DateLayout),
		req.SMAWindow, req.AlignmentDays, string(req.Convention), res.TradingDays,
		upMatched, nullFloat(upA), nullFloat(upB),
		downMatched, nullFloat(downA), nullFloat(downB),
		nullFloat(bothAbove), nullFloat(bothBelow), nullFloat(corr), nullFloat(beta), nullInt(bestLag), strings.Join(res.Notices, "\n"),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	if c := res.Crossing; c != nil {
		events := []struct {
			symbol string
			dir    model.Direction
			dates  []time.Time
		}{
			{res.SymbolA, model.Upward, c.A.Up},
			{res.SymbolA, model.Downward, c.A.Down},
			{res.SymbolB, model.Upward, c.B.Up},
			{res.SymbolB, model.Downward, c.B.Down},
		}
		for _, ev := range events {
			for _, d := range ev.dates {
				if _, err := tx.Exec(`INSERT INTO crossing_events (run_id, symbol, direction, date) VALUES (?,?,?,?)`,
					id, ev.symbol, string(ev.dir), d.Format(model.DateLayout)); err != nil {
					return "", fmt.Errorf("insert crossing event: %w", err)
				}
			}
		}
		if err := insertPairs(tx, id, model.Upward, c.UpPairs); err != nil {
			return "", err
		}
		if err := insertPairs(tx, id, model.Downward, c.DownPairs); err != nil {
			return "", err
		}
	}
	if dr := res.Drawdown; dr != nil {
		if err := insertPairs(tx, id, model.Drop, dr.Pairs); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func insertPairs(tx *sql.Tx, runID string, kind model.Direction, pairs []model.MatchedPair) error {
	for _, p := range pairs {
		if _, err := tx.Exec(`INSERT INTO matched_events (run_id, kind, a_date, b_date, offset_days) VALUES (?,?,?,?,?)`,
			runID, string(kind), p.A.Format(model.DateLayout), p.B.Format(model.DateLayout), p.OffsetDays); err != nil {
			return fmt.Errorf("insert matched event: %w", err)
		}
	}
	return nil
}

// RecentRuns lists the newest runs first.
func (r *SQLiteRecorder) RecentRuns(limit int) ([]RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, timestamp, run_trigger, symbol_a, symbol_b, variant,
		range_from, range_to, trading_days, up_matched, down_matched, correlation
		FROM runs ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			s    RunSummary
			ts   int64
			trig string
			corr sql.NullFloat64
		)
		if err := rows.Scan(&s.ID, &ts, &trig, &s.SymbolA, &s.SymbolB, &s.Variant,
			&s.From, &s.To, &s.TradingDays, &s.UpMatched, &s.DownMatched, &corr); err != nil {
			return nil, err
		}
		s.Timestamp = time.Unix(ts, 0)
		s.Trigger = Trigger(trig)
		if corr.Valid {
			s.Correlation = &corr.Float64
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info("closing sqlite recorder")
	return r.db.Close()
}
