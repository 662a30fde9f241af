package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"StockScout/internal/model"
)

// SQLiteRecorder persists analysis history to a SQLite database.
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

	// WAL mode so ad-hoc reads don't block the writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analysis_results (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			code            TEXT NOT NULL,
			name            TEXT,
			market          TEXT,
			latest_close    REAL,
			pct_change      REAL,
			sentiment_score INTEGER,
			advice_class    TEXT,
			confidence      TEXT,
			payload         TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_code_ts ON analysis_results(code, timestamp)`,

		`CREATE TABLE IF NOT EXISTS run_history (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			analyzed  INTEGER,
			failed    INTEGER,
			buy       INTEGER,
			hold      INTEGER,
			sell      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON run_history(timestamp)`,

		`CREATE TABLE IF NOT EXISTS market_reviews (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			date          TEXT NOT NULL,
			tone          TEXT,
			average_score REAL,
			advancers     INTEGER,
			decliners     INTEGER,
			flat          INTEGER,
			analyzed      INTEGER,
			excluded      INTEGER,
			payload       TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_date ON market_reviews(date)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordResult stores one stock's analysis. The full result is kept as a JSON
// payload so the ordered strategy fields survive a round trip; the indexed
// columns exist for querying only.
func (r *SQLiteRecorder) RecordResult(result *model.AnalysisResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	_, err = r.db.Exec(`INSERT INTO analysis_results
		(timestamp, code, name, market, latest_close, pct_change, sentiment_score, advice_class, confidence, payload)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), result.Code, result.Name, string(result.Market),
		result.LatestClose, result.PctChange, result.SentimentScore,
		string(result.AdviceClass), string(result.Confidence), string(payload),
	)
	return err
}

func (r *SQLiteRecorder) RecordRun(snap *RunSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO run_history
		(timestamp, analyzed, failed, buy, hold, sell)
		VALUES (?,?,?,?,?,?)`,
		time.Now().Unix(), snap.Analyzed, snap.Failed, snap.Buy, snap.Hold, snap.Sell,
	)
	return err
}

func (r *SQLiteRecorder) RecordReview(review *model.MarketReviewResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	payload, err := json.Marshal(review)
	if err != nil {
		return fmt.Errorf("marshal review: %w", err)
	}
	_, err = r.db.Exec(`INSERT INTO market_reviews
		(timestamp, date, tone, average_score, advancers, decliners, flat, analyzed, excluded, payload)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), review.Date, review.Tone, review.AverageScore,
		review.Advancers, review.Decliners, review.Flat,
		review.Analyzed, review.Excluded, string(payload),
	)
	return err
}

// RecentResults returns up to limit stored analyses for a code, newest first.
func (r *SQLiteRecorder) RecentResults(code string, limit int) ([]*model.AnalysisResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT payload FROM analysis_results
		WHERE code = ? ORDER BY timestamp DESC LIMIT ?`, code, limit)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []*model.AnalysisResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var result model.AnalysisResult
		if err := json.Unmarshal([]byte(payload), &result); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		out = append(out, &result)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
