// Package history records finished evaluation runs in a SQLite database so
// scores and pass rates can be inspected across time, per scenario and per
// adapter/model pair.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/gauntlet/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// RunRecord is one recorded scenario outcome.
type RunRecord struct {
	ID         int64
	RunID      string
	ScenarioID string
	Adapter    string
	Model      string
	Score      float64
	Passed     bool
	Violations int
	Duration   time.Duration
	Error      string
	CreatedAt  time.Time
}

// Stats aggregates recorded outcomes under an adapter/model filter.
type Stats struct {
	Runs              int     // finished batches
	Scenarios         int     // recorded scenario outcomes
	Passed            int
	Failed            int     // rejected by validators
	Skipped           int     // never generated (top-level error)
	PassRate          float64 // Passed / Scenarios
	AverageScore      float64
	DistinctScenarios int
}

// Store manages the SQLite run-history database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if needed) the history database at dbPath.
// ":memory:" is accepted for tests.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// busy_timeout must come first so the remaining pragmas wait on locks
	// instead of failing.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun inserts the run row and one row per scenario result, in a
// single transaction.
func (s *Store) RecordRun(ctx context.Context, report *models.EvaluationReport) error {
	if report == nil {
		return fmt.Errorf("report is nil")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(id, adapter, model, started_at, duration_ms, total, passed, failed, skipped, average_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.Adapter,
		report.Model,
		report.StartedAt.UTC(),
		report.Duration.Milliseconds(),
		report.Summary.Total,
		report.Summary.Passed,
		report.Summary.Failed,
		report.Summary.Skipped,
		report.Summary.AverageScore,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i := range report.Results {
		r := &report.Results[i]
		_, err = tx.ExecContext(ctx, `INSERT INTO scenario_results
			(run_id, scenario_id, adapter, model, score, passed, violations, duration_ms, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			report.RunID,
			r.Scenario.ID,
			report.Adapter,
			report.Model,
			r.Score,
			r.Passed,
			len(r.Violations),
			r.Duration.Milliseconds(),
			r.Error,
		)
		if err != nil {
			return fmt.Errorf("insert scenario result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// RecentRuns returns the most recent scenario outcomes, newest first,
// optionally narrowed to one scenario id. limit <= 0 defaults to 20.
func (s *Store) RecentRuns(ctx context.Context, scenarioID string, limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, run_id, scenario_id, adapter, model, score, passed, violations, duration_ms, error, created_at
		FROM scenario_results`
	args := []interface{}{}
	if scenarioID != "" {
		query += ` WHERE scenario_id = ?`
		args = append(args, scenarioID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	defer rows.Close()

	var records []*RunRecord
	for rows.Next() {
		rec := &RunRecord{}
		var model, errMsg sql.NullString
		var durationMS int64
		if err := rows.Scan(
			&rec.ID,
			&rec.RunID,
			&rec.ScenarioID,
			&rec.Adapter,
			&model,
			&rec.Score,
			&rec.Passed,
			&rec.Violations,
			&durationMS,
			&errMsg,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan run record: %w", err)
		}
		if model.Valid {
			rec.Model = model.String
		}
		if errMsg.Valid {
			rec.Error = errMsg.String
		}
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run records: %w", err)
	}
	return records, nil
}

// Stats aggregates recorded outcomes, narrowed by adapter and model when
// those are non-empty.
func (s *Store) Stats(ctx context.Context, adapter, model string) (*Stats, error) {
	var conds []string
	var args []interface{}
	if adapter != "" {
		conds = append(conds, "adapter = ?")
		args = append(args, adapter)
	}
	if model != "" {
		conds = append(conds, "model = ?")
		args = append(args, model)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	stats := &Stats{}

	runQuery := `SELECT COUNT(*) FROM runs` + where
	if err := s.db.QueryRowContext(ctx, runQuery, args...).Scan(&stats.Runs); err != nil {
		return nil, fmt.Errorf("query run count: %w", err)
	}

	resultQuery := `SELECT
			COUNT(*),
			COUNT(CASE WHEN passed = 1 THEN 1 END),
			COUNT(CASE WHEN passed = 0 AND (error IS NULL OR error = '') THEN 1 END),
			COUNT(CASE WHEN error IS NOT NULL AND error != '' THEN 1 END),
			COALESCE(AVG(score), 0),
			COUNT(DISTINCT scenario_id)
		FROM scenario_results` + where
	if err := s.db.QueryRowContext(ctx, resultQuery, args...).Scan(
		&stats.Scenarios,
		&stats.Passed,
		&stats.Failed,
		&stats.Skipped,
		&stats.AverageScore,
		&stats.DistinctScenarios,
	); err != nil {
		return nil, fmt.Errorf("query scenario stats: %w", err)
	}

	if stats.Scenarios > 0 {
		stats.PassRate = float64(stats.Passed) / float64(stats.Scenarios)
	}
	return stats, nil
}

// Clear removes all recorded history.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM scenario_results`); err != nil {
		return fmt.Errorf("clear scenario results: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM runs`); err != nil {
		return fmt.Errorf("clear runs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear: %w", err)
	}
	return nil
}
