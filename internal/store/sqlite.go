package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gophecy/agentgen/internal/population"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteRunStore implements RunStore using SQLite for persistence.
type SQLiteRunStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// NewSQLiteRunStore opens (or creates) the run history database at dbPath.
func NewSQLiteRunStore(dbPath string) (*SQLiteRunStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with single writer
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteRunStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *SQLiteRunStore) Path() string {
	return s.dbPath
}

// SaveRun records a run and all of its agents and ties in one transaction.
func (s *SQLiteRunStore) SaveRun(ctx context.Context, run Run, agents []population.Agent) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.AgentCount = len(agents)

	optionsJSON, err := json.Marshal(run.Options)
	if err != nil {
		return Run{}, fmt.Errorf("marshal options: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, seed, options, output_path, agent_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.CreatedAt.Format(time.RFC3339Nano), strconv.FormatUint(run.Seed, 10),
		string(optionsJSON), nullString(run.OutputPath), run.AgentCount)
	if err != nil {
		return Run{}, fmt.Errorf("failed to insert run: %w", err)
	}

	agentStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO agents (run_id, ord, id, category, opinion, personal_parameter, sub_type)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return Run{}, fmt.Errorf("failed to prepare agent insert: %w", err)
	}
	defer agentStmt.Close()

	tieStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ties (run_id, source, target, charisme, relation)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return Run{}, fmt.Errorf("failed to prepare tie insert: %w", err)
	}
	defer tieStmt.Close()

	for i, a := range agents {
		category := a.Category
		if !category.Valid() {
			category = population.ClassifyOpinion(a.Opinion)
		}
		if _, err := agentStmt.ExecContext(ctx, run.ID, i, a.ID, string(category),
			a.Opinion, a.PersonalParameter, string(a.SubType)); err != nil {
			return Run{}, fmt.Errorf("failed to insert agent %s: %w", a.ID, err)
		}

		for peer, charisme := range a.Charisme {
			relation, ok := a.Relation[peer]
			if !ok {
				return Run{}, fmt.Errorf("agent %s has charisme but no relation toward %s", a.ID, peer)
			}
			if _, err := tieStmt.ExecContext(ctx, run.ID, a.ID, peer, charisme, relation); err != nil {
				return Run{}, fmt.Errorf("failed to insert tie %s->%s: %w", a.ID, peer, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("failed to commit run: %w", err)
	}
	return run, nil
}

// ListRuns returns every run, newest first.
func (s *SQLiteRunStore) ListRuns(ctx context.Context) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, seed, options, output_path, agent_count
		FROM runs ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns the run whose ID equals or uniquely starts with id.
func (s *SQLiteRunStore) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getRun(ctx, id)
}

func (s *SQLiteRunStore) getRun(ctx context.Context, id string) (*Run, error) {
	if id == "" {
		return nil, ErrRunNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, seed, options, output_path, agent_count
		FROM runs WHERE id = ? OR id LIKE ? ESCAPE '\'
		ORDER BY (id = ?) DESC
		LIMIT 2
	`, id, escapeLike(id)+"%", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	switch {
	case len(matches) == 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case matches[0].ID == id, len(matches) == 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousRunID, id)
	}
}

// LoadAgents rebuilds the population of a run in generation order.
func (s *SQLiteRunStore) LoadAgents(ctx context.Context, id string) ([]population.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, err := s.getRun(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, opinion, personal_parameter, sub_type
		FROM agents WHERE run_id = ? ORDER BY ord
	`, run.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query agents: %w", err)
	}
	defer rows.Close()

	agents := make([]population.Agent, 0, run.AgentCount)
	index := make(map[string]int, run.AgentCount)
	for rows.Next() {
		var a population.Agent
		var category, subType string
		if err := rows.Scan(&a.ID, &category, &a.Opinion, &a.PersonalParameter, &subType); err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		a.Category = population.Category(category)
		a.SubType = population.SubType(subType)
		a.Charisme = make(map[string]float64, run.AgentCount-1)
		a.Relation = make(map[string]float64, run.AgentCount-1)
		index[a.ID] = len(agents)
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate agents: %w", err)
	}

	tieRows, err := s.db.QueryContext(ctx, `
		SELECT source, target, charisme, relation FROM ties WHERE run_id = ?
	`, run.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ties: %w", err)
	}
	defer tieRows.Close()

	for tieRows.Next() {
		var source, target string
		var charisme, relation float64
		if err := tieRows.Scan(&source, &target, &charisme, &relation); err != nil {
			return nil, fmt.Errorf("failed to scan tie: %w", err)
		}
		i, ok := index[source]
		if !ok {
			return nil, fmt.Errorf("tie references unknown agent %s", source)
		}
		agents[i].Charisme[target] = charisme
		agents[i].Relation[target] = relation
	}
	if err := tieRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ties: %w", err)
	}

	return agents, nil
}

// DeleteRun removes a run; agents and ties go with it through ON DELETE CASCADE.
func (s *SQLiteRunStore) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, err := s.getRun(ctx, id)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, run.ID); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteRunStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Close()
}

// rowScanner is satisfied by *sql.Rows and *sql.Row.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var createdAt, seed, optionsJSON string
	var outputPath sql.NullString
	if err := row.Scan(&run.ID, &createdAt, &seed, &optionsJSON, &outputPath, &run.AgentCount); err != nil {
		return Run{}, fmt.Errorf("failed to scan run: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: invalid created_at %q: %w", run.ID, createdAt, err)
	}
	run.CreatedAt = t

	run.Seed, err = strconv.ParseUint(seed, 10, 64)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: invalid seed %q: %w", run.ID, seed, err)
	}

	if err := json.Unmarshal([]byte(optionsJSON), &run.Options); err != nil {
		return Run{}, fmt.Errorf("run %s: invalid options: %w", run.ID, err)
	}

	run.OutputPath = outputPath.String
	return run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// escapeLike escapes LIKE wildcards so a prefix matches literally.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
