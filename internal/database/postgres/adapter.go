package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/Rana718/botseed/internal/database/common"
	"github.com/Rana718/botseed/internal/schema"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

var dialect = common.Dialect{
	Name:       "postgresql",
	Quote:      pq.QuoteIdentifier,
	PrimaryKey: "BIGSERIAL PRIMARY KEY",
	ForeignKey: "BIGINT",
	Types: map[schema.Kind]string{
		schema.KindString:    "VARCHAR(255)",
		schema.KindText:      "TEXT",
		schema.KindEnum:      "VARCHAR(32)",
		schema.KindBool:      "BOOLEAN",
		schema.KindTimestamp: "TIMESTAMP",
	},
}

type Adapter struct {
	pool *pgxpool.Pool
	qb   squirrel.StatementBuilderType
}

func New() *Adapter {
	return &Adapter{
		qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (p *Adapter) Connect(ctx context.Context, url string) error {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return fmt.Errorf("failed to parse connection URL: %w", err)
	}

	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	config.MaxConns = 4
	config.MinConns = 0
	config.MaxConnLifetime = 15 * time.Minute
	config.MaxConnIdleTime = 3 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	p.pool = pool
	return nil
}

func (p *Adapter) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *Adapter) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Adapter) SchemaSQL(s *schema.Schema, order []string) (string, error) {
	return common.SchemaScript(dialect, s, order)
}

func (p *Adapter) EnsureSchema(ctx context.Context, s *schema.Schema, order []string) error {
	stmts, err := common.SchemaStatements(dialect, s, order)
	if err != nil {
		return err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, stmt := range stmts {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute statement '%s': %w", stmt, err)
		}
	}

	return tx.Commit(ctx)
}

func (p *Adapter) Register(ctx context.Context, e *schema.Entity, v schema.Values) (int64, error) {
	query, args, err := common.InsertQuery(p.qb, dialect, e, v).
		Suffix("RETURNING " + dialect.Quote("id")).
		ToSql()
	if err != nil {
		return 0, err
	}

	var id int64
	if err := p.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", e.Table, err)
	}
	return id, nil
}

func (p *Adapter) Lookup(ctx context.Context, e *schema.Entity, id int64, columns []string) (schema.Values, bool, error) {
	query, err := common.LookupQuery(p.qb, dialect, e, id, columns)
	if err != nil {
		return nil, false, err
	}
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, false, err
	}

	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s %d: %w", e.Table, id, err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read %s %d: %w", e.Table, id, err)
	}
	return schema.Values(row), true, nil
}

func (p *Adapter) Count(ctx context.Context, e *schema.Entity) (int64, error) {
	query, args, err := common.CountQuery(p.qb, dialect, e).ToSql()
	if err != nil {
		return 0, err
	}

	var n int64
	if err := p.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", e.Table, err)
	}
	return n, nil
}

func (p *Adapter) Referencing(ctx context.Context, e *schema.Entity, column string, id int64) ([]int64, error) {
	if err := common.ValidateColumn(e, column); err != nil {
		return nil, err
	}
	query, args, err := common.ReferencingQuery(p.qb, dialect, e, column, id).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", e.Table, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s ids: %w", e.Table, err)
	}
	return ids, nil
}

func (p *Adapter) CountOrphans(ctx context.Context, e *schema.Entity, column string, target *schema.Entity) (int64, error) {
	if err := common.ValidateColumn(e, column); err != nil {
		return 0, err
	}
	query, args, err := common.OrphanQuery(p.qb, dialect, e, column, target).ToSql()
	if err != nil {
		return 0, err
	}

	var n int64
	if err := p.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count orphans in %s.%s: %w", e.Table, column, err)
	}
	return n, nil
}
