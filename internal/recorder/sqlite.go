package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/guregu/null/v6"
	_ "modernc.org/sqlite"

	"StockLens/internal/model"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			symbol       TEXT NOT NULL,
			period       TEXT,
			bar_time     INTEGER,
			close        REAL,
			rsi          REAL,
			change_pct   REAL,
			volatility   REAL,
			position_52w REAL,
			zone         TEXT,
			trend        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_symbol_ts ON snapshots(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS snapshot_averages (
			snapshot_id INTEGER NOT NULL REFERENCES snapshots(id),
			ma_window   INTEGER NOT NULL,
			value       REAL,
			PRIMARY KEY (snapshot_id, ma_window)
		)`,

		`CREATE TABLE IF NOT EXISTS alerts (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			symbol    TEXT NOT NULL,
			from_zone TEXT,
			to_zone   TEXT,
			rsi       REAL,
			close     REAL,
			message   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_symbol_ts ON alerts(symbol, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSnapshot(snap *Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO snapshots
		(timestamp, symbol, period, bar_time, close, rsi, change_pct, volatility,
		 position_52w, zone, trend)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		r.now().Unix(), snap.Symbol, string(snap.Period), snap.BarTime.Unix(), snap.Close,
		snap.RSI, snap.ChangePct, snap.Volatility, snap.Position52w,
		string(snap.Zone), string(snap.Trend),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("snapshot id: %w", err)
	}

	windows := make([]int, 0, len(snap.Averages))
	for w := range snap.Averages {
		windows = append(windows, w)
	}
	sort.Ints(windows)
	for _, w := range windows {
		if _, err := tx.Exec(`INSERT INTO snapshot_averages (snapshot_id, ma_window, value) VALUES (?,?,?)`,
			id, w, snap.Averages[w]); err != nil {
			return fmt.Errorf("insert MA%d: %w", w, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	snap.ID = id
	return nil
}

func (r *SQLiteRecorder) RecordAlert(evt *AlertEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO alerts
		(timestamp, symbol, from_zone, to_zone, rsi, close, message)
		VALUES (?,?,?,?,?,?,?)`,
		r.now().Unix(), evt.Symbol, string(evt.FromZone), string(evt.ToZone),
		evt.RSI, evt.Close, evt.Message,
	)
	return err
}

func (r *SQLiteRecorder) RecentSnapshots(symbol string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`SELECT id, timestamp, symbol, period, bar_time, close, rsi,
		change_pct, volatility, position_52w, zone, trend
		FROM snapshots WHERE symbol = ? ORDER BY id DESC LIMIT ?`,
		strings.ToUpper(symbol), limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var (
			s           Snapshot
			ts, barTime int64
			period      string
			zone, trend string
		)
		if err := rows.Scan(&s.ID, &ts, &s.Symbol, &period, &barTime, &s.Close, &s.RSI,
			&s.ChangePct, &s.Volatility, &s.Position52w, &zone, &trend); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		s.RecordedAt = time.Unix(ts, 0).UTC()
		s.BarTime = time.Unix(barTime, 0).UTC()
		s.Period = model.Period(period)
		s.Zone = model.Zone(zone)
		s.Trend = model.Trend(trend)
		snaps = append(snaps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range snaps {
		avgs, err := r.averages(snaps[i].ID)
		if err != nil {
			return nil, err
		}
		snaps[i].Averages = avgs
	}
	return snaps, nil
}

func (r *SQLiteRecorder) averages(snapshotID int64) (map[int]null.Float, error) {
	rows, err := r.db.Query(`SELECT ma_window, value FROM snapshot_averages WHERE snapshot_id = ?`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query averages: %w", err)
	}
	defer rows.Close()

	avgs := make(map[int]null.Float)
	for rows.Next() {
		var (
			w int
			v null.Float
		)
		if err := rows.Scan(&w, &v); err != nil {
			return nil, fmt.Errorf("scan average: %w", err)
		}
		avgs[w] = v
	}
	return avgs, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
