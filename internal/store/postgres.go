package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/winnerlabs/leadminer/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock implements it
// for tests.
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

// Statement names for the hot-path queries. Call sites execute by name;
// AfterConnect guarantees each name is prepared on every pooled connection.
const (
	stmtInsertRun   = "insert_run"
	stmtCompleteRun = "complete_run"
	stmtGetRun      = "get_run"
	stmtGetLeads    = "get_leads"
)

var preparedStatements = map[string]string{
	stmtInsertRun:   `INSERT INTO runs (id, niche, location, strategies, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	stmtCompleteRun: `UPDATE runs SET status = $1, lead_count = $2, updated_at = $3 WHERE id = $4`,
	stmtGetRun:      `SELECT id, niche, location, strategies, status, lead_count, created_at, updated_at FROM runs WHERE id = $1`,
	stmtGetLeads:    `SELECT data FROM leads WHERE run_id = $1 ORDER BY position`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
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
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	niche      TEXT NOT NULL,
	location   TEXT NOT NULL,
	strategies JSONB NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	lead_count INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS leads (
	id       TEXT NOT NULL,
	run_id   TEXT NOT NULL REFERENCES runs(id),
	position INTEGER NOT NULL,
	data     JSONB NOT NULL,
	PRIMARY KEY (run_id, id)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_niche ON runs(niche);
CREATE INDEX IF NOT EXISTS idx_leads_run_id ON leads(run_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, q model.Query, strategies []string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	strategiesJSON, err := json.Marshal(strategies)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal strategies")
	}

	_, err = s.pool.Exec(ctx, stmtInsertRun,
		id, q.Niche, q.Location, strategiesJSON, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:         id,
		Niche:      q.Niche,
		Location:   q.Location,
		Strategies: strategies,
		Status:     model.RunStatusRunning,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, status model.RunStatus, leadCount int) error {
	tag, err := s.pool.Exec(ctx, stmtCompleteRun,
		string(status), leadCount, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var r model.Run
	var strategiesJSON []byte

	err := s.pool.QueryRow(ctx, stmtGetRun, runID).Scan(&r.ID, &r.Niche, &r.Location, &strategiesJSON, &r.Status, &r.LeadCount, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: get run %s: not found", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}

	if err := json.Unmarshal(strategiesJSON, &r.Strategies); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal strategies")
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, niche, location, strategies, status, lead_count, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filter.Niche != "" {
		args = append(args, filter.Niche)
		query += ` AND niche = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var strategiesJSON []byte
		if err := rows.Scan(&r.ID, &r.Niche, &r.Location, &strategiesJSON, &r.Status, &r.LeadCount, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if err := json.Unmarshal(strategiesJSON, &r.Strategies); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal strategies")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) SaveLeads(ctx context.Context, runID string, leads []model.Lead) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin save leads")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM leads WHERE run_id = $1`, runID); err != nil {
		return eris.Wrapf(err, "postgres: clear leads for run %s", runID)
	}

	for i, l := range leads {
		data, err := json.Marshal(l)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal lead")
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO leads (id, run_id, position, data) VALUES ($1, $2, $3, $4)`,
			l.ID, runID, i, data,
		); err != nil {
			return eris.Wrapf(err, "postgres: insert lead for run %s", runID)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit save leads")
}

func (s *PostgresStore) GetLeads(ctx context.Context, runID string) ([]model.Lead, error) {
	rows, err := s.pool.Query(ctx, stmtGetLeads, runID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get leads for run %s", runID)
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		var l model.Lead
		if err := json.Unmarshal(data, &l); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal lead")
		}
		leads = append(leads, l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: get leads iterate")
}

