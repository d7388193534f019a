package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/staff-finder/internal/model"
)

// Pool is the subset of *pgxpool.Pool the store uses. pgxmock pools satisfy it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection.
var preparedStatements = map[string]string{
	"insert_run":        `INSERT INTO runs (id, input_path, output_path, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
	"get_run":           `SELECT id, input_path, output_path, status, summary, error, created_at, updated_at FROM runs WHERE id = $1`,
	"get_cached_search": `SELECT hits FROM search_cache WHERE query_key = $1 AND expires_at > now()`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	input_path  TEXT NOT NULL,
	output_path TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'running',
	summary     JSONB,
	error       TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS run_results (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	row_num    INTEGER NOT NULL,
	school     JSONB NOT NULL,
	staff_url  TEXT NOT NULL,
	confidence TEXT NOT NULL DEFAULT '',
	reasoning  TEXT NOT NULL DEFAULT '',
	outcome    TEXT NOT NULL,
	PRIMARY KEY (run_id, row_num)
);

CREATE TABLE IF NOT EXISTS search_cache (
	query_key  TEXT PRIMARY KEY,
	hits       JSONB NOT NULL,
	cached_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_search_cache_expires_at ON search_cache(expires_at);
`

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

// Migrate creates the schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, inputPath, outputPath string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, input_path, output_path, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, inputPath, outputPath, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:         id,
		InputPath:  inputPath,
		OutputPath: outputPath,
		Status:     model.RunStatusRunning,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (s *PostgresStore) FinishRun(ctx context.Context, runID string, status model.RunStatus, summary model.Summary, runErr string) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal summary")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, summary = $2, error = $3, updated_at = $4 WHERE id = $5`,
		string(status), summaryJSON, runErr, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var r model.Run
	var summaryJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, input_path, output_path, status, summary, error, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.InputPath, &r.OutputPath, &r.Status, &summaryJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	if len(summaryJSON) > 0 {
		if err := json.Unmarshal(summaryJSON, &r.Summary); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal summary")
		}
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter model.RunFilter) ([]model.Run, error) {
	query := `SELECT id, input_path, output_path, status, summary, error, created_at, updated_at FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var summaryJSON []byte
		if err := rows.Scan(&r.ID, &r.InputPath, &r.OutputPath, &r.Status, &summaryJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if len(summaryJSON) > 0 {
			if err := json.Unmarshal(summaryJSON, &r.Summary); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal summary")
			}
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

const upsertResultSQL = `INSERT INTO run_results (run_id, row_num, school, staff_url, confidence, reasoning, outcome)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (run_id, row_num) DO UPDATE SET
  school = EXCLUDED.school, staff_url = EXCLUDED.staff_url, confidence = EXCLUDED.confidence,
  reasoning = EXCLUDED.reasoning, outcome = EXCLUDED.outcome`

// SaveResults upserts per-row results in one transaction.
func (s *PostgresStore) SaveResults(ctx context.Context, runID string, results []model.Result) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin save results")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, r := range results {
		if r.Outcome == "" {
			continue
		}
		schoolJSON, err := json.Marshal(r.School)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal school")
		}
		if _, err := tx.Exec(ctx, upsertResultSQL, runID, r.School.Row, schoolJSON, r.StaffURL,
			string(r.Confidence), r.Reasoning, string(r.Outcome)); err != nil {
			return eris.Wrapf(err, "postgres: save result row %d", r.School.Row)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit save results")
}

func (s *PostgresStore) ListResults(ctx context.Context, runID string) ([]model.Result, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT school, staff_url, confidence, reasoning, outcome FROM run_results WHERE run_id = $1 ORDER BY row_num`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list results")
	}
	defer rows.Close()

	var out []model.Result
	for rows.Next() {
		var r model.Result
		var schoolJSON []byte
		var conf, outcome string
		if err := rows.Scan(&schoolJSON, &r.StaffURL, &conf, &r.Reasoning, &outcome); err != nil {
			return nil, eris.Wrap(err, "postgres: scan result")
		}
		if err := json.Unmarshal(schoolJSON, &r.School); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal school")
		}
		r.Confidence = model.Confidence(conf)
		r.Outcome = model.Outcome(outcome)
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list results iterate")
}

func (s *PostgresStore) GetCachedSearch(ctx context.Context, key string) ([]model.SearchHit, bool, error) {
	var hitsJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT hits FROM search_cache WHERE query_key = $1 AND expires_at > now()`,
		key,
	).Scan(&hitsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "postgres: get cached search")
	}

	var hits []model.SearchHit
	if err := json.Unmarshal(hitsJSON, &hits); err != nil {
		return nil, false, eris.Wrap(err, "postgres: unmarshal cached hits")
	}
	return hits, true, nil
}

func (s *PostgresStore) SetCachedSearch(ctx context.Context, key string, hits []model.SearchHit, ttl time.Duration) error {
	if hits == nil {
		hits = []model.SearchHit{}
	}
	hitsJSON, err := json.Marshal(hits)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal hits")
	}
	now := time.Now().UTC()

	_, err = s.pool.Exec(ctx,
		`INSERT INTO search_cache (query_key, hits, cached_at, expires_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (query_key) DO UPDATE SET hits = EXCLUDED.hits, cached_at = EXCLUDED.cached_at, expires_at = EXCLUDED.expires_at`,
		key, hitsJSON, now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: set cached search")
}

func (s *PostgresStore) DeleteExpiredSearches(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM search_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired searches")
	}
	return int(tag.RowsAffected()), nil
}
