package report

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/glebarez/go-sqlite"

	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/scenario"
)

// SQLiteSink persists results to a SQLite database. Each upsert is a single
// committed statement, so durability holds per step without explicit
// transactions.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (or creates) the database at path and ensures the
// result tables exist.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening report database: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS step_results (
			scenario_id   TEXT NOT NULL,
			platform_id   TEXT NOT NULL,
			step_index    INTEGER NOT NULL,
			status        TEXT NOT NULL,
			full_response TEXT,
			text_response TEXT,
			error         TEXT,
			updated_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (scenario_id, platform_id, step_index)
		);`,
		`CREATE TABLE IF NOT EXISTS score_results (
			scenario_id TEXT NOT NULL,
			platform_id TEXT NOT NULL,
			fields      TEXT,
			comment     TEXT,
			updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (scenario_id, platform_id)
		);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating report schema: %w", err)
		}
	}

	return &SQLiteSink{db: db}, nil
}

// UpsertStep writes one step result keyed by (scenario, platform, step).
func (s *SQLiteSink) UpsertStep(key scenario.Key, stepIndex int, result scenario.StepResult) error {
	query := `INSERT INTO step_results (scenario_id, platform_id, step_index, status, full_response, text_response, error, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (scenario_id, platform_id, step_index) DO UPDATE SET
			status = excluded.status,
			full_response = excluded.full_response,
			text_response = excluded.text_response,
			error = excluded.error,
			updated_at = CURRENT_TIMESTAMP`
	_, err := s.db.Exec(query,
		key.ScenarioID, key.PlatformID, stepIndex,
		result.Status.String(), result.FullResponse, result.TextResponse, result.Err,
	)
	if err != nil {
		return fmt.Errorf("upserting step result %s step_index=%d: %w", key, stepIndex, err)
	}
	return nil
}

// UpsertScore writes one score result keyed by (scenario, platform).
func (s *SQLiteSink) UpsertScore(key scenario.Key, result scenario.ScoreResult) error {
	fields, err := json.Marshal(result.Fields)
	if err != nil {
		return fmt.Errorf("encoding score fields for %s: %w", key, err)
	}
	query := `INSERT INTO score_results (scenario_id, platform_id, fields, comment, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (scenario_id, platform_id) DO UPDATE SET
			fields = excluded.fields,
			comment = excluded.comment,
			updated_at = CURRENT_TIMESTAMP`
	if _, err := s.db.Exec(query, key.ScenarioID, key.PlatformID, string(fields), result.Comment); err != nil {
		return fmt.Errorf("upserting score result %s: %w", key, err)
	}
	return nil
}

// StepResults reads back the recorded step results for a group, keyed by
// step index. Used for post-run inspection and tests.
func (s *SQLiteSink) StepResults(key scenario.Key) (map[int]scenario.StepResult, error) {
	rows, err := s.db.Query(
		`SELECT step_index, status, full_response, text_response, error
		 FROM step_results WHERE scenario_id = ? AND platform_id = ?`,
		key.ScenarioID, key.PlatformID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]scenario.StepResult)
	for rows.Next() {
		var (
			idx    int
			status string
			res    scenario.StepResult
		)
		if err := rows.Scan(&idx, &status, &res.FullResponse, &res.TextResponse, &res.Err); err != nil {
			return nil, err
		}
		switch status {
		case "success":
			res.Status = scenario.StepSuccess
		case "failed":
			res.Status = scenario.StepFailed
		default:
			res.Status = scenario.StepPending
		}
		out[idx] = res
	}
	return out, rows.Err()
}

// Score reads back the recorded score for a group.
func (s *SQLiteSink) Score(key scenario.Key) (scenario.ScoreResult, bool, error) {
	var (
		fields string
		res    scenario.ScoreResult
	)
	err := s.db.QueryRow(
		`SELECT fields, comment FROM score_results WHERE scenario_id = ? AND platform_id = ?`,
		key.ScenarioID, key.PlatformID,
	).Scan(&fields, &res.Comment)
	if err == sql.ErrNoRows {
		return res, false, nil
	}
	if err != nil {
		return res, false, err
	}
	if fields != "" {
		if err := json.Unmarshal([]byte(fields), &res.Fields); err != nil {
			return res, false, fmt.Errorf("decoding score fields for %s: %w", key, err)
		}
	}
	return res, true, nil
}

// Close releases the database handle.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
