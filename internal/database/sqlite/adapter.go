package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/Rana718/botseed/internal/database/common"
	"github.com/Rana718/botseed/internal/schema"
	_ "github.com/mattn/go-sqlite3"
)

var dialect = common.Dialect{
	Name:       "sqlite",
	Quote:      common.DoubleQuote,
	PrimaryKey: "INTEGER PRIMARY KEY AUTOINCREMENT",
	ForeignKey: "INTEGER",
	Types: map[schema.Kind]string{
		schema.KindString:    "TEXT",
		schema.KindText:      "TEXT",
		schema.KindEnum:      "TEXT",
		schema.KindBool:      "BOOLEAN",
		schema.KindTimestamp: "DATETIME",
	},
}

type Adapter struct {
	db *sql.DB
	qb squirrel.StatementBuilderType
}

func New() *Adapter {
	return &Adapter{
		qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

func (s *Adapter) Connect(ctx context.Context, url string) error {
	dsn := strings.TrimPrefix(url, "sqlite://")
	if !strings.Contains(dsn, "?") {
		dsn += "?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(5 * time.Minute)

	s.db = db
	return s.Ping(ctx)
}

func (s *Adapter) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Adapter) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Adapter) SchemaSQL(sch *schema.Schema, order []string) (string, error) {
	return common.SchemaScript(dialect, sch, order)
}

func (s *Adapter) EnsureSchema(ctx context.Context, sch *schema.Schema, order []string) error {
	stmts, err := common.SchemaStatements(dialect, sch, order)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute statement '%s': %w", stmt, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}

func (s *Adapter) Register(ctx context.Context, e *schema.Entity, v schema.Values) (int64, error) {
	query, args, err := common.InsertQuery(s.qb, dialect, e, v).ToSql()
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", e.Table, err)
	}
	return res.LastInsertId()
}

func (s *Adapter) Lookup(ctx context.Context, e *schema.Entity, id int64, columns []string) (schema.Values, bool, error) {
	query, err := common.LookupQuery(s.qb, dialect, e, id, columns)
	if err != nil {
		return nil, false, err
	}
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, false, err
	}

	dest := common.ScanTargets(len(columns))
	if err := s.db.QueryRowContext(ctx, sqlStr, args...).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read %s %d: %w", e.Table, id, err)
	}
	return common.ScanValues(columns, dest), true, nil
}

func (s *Adapter) Count(ctx context.Context, e *schema.Entity) (int64, error) {
	query, args, err := common.CountQuery(s.qb, dialect, e).ToSql()
	if err != nil {
		return 0, err
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", e.Table, err)
	}
	return n, nil
}

func (s *Adapter) Referencing(ctx context.Context, e *schema.Entity, column string, id int64) ([]int64, error) {
	if err := common.ValidateColumn(e, column); err != nil {
		return nil, err
	}
	query, args, err := common.ReferencingQuery(s.qb, dialect, e, column, id).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", e.Table, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var ref int64
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		ids = append(ids, ref)
	}
	return ids, rows.Err()
}

func (s *Adapter) CountOrphans(ctx context.Context, e *schema.Entity, column string, target *schema.Entity) (int64, error) {
	if err := common.ValidateColumn(e, column); err != nil {
		return 0, err
	}
	query, args, err := common.OrphanQuery(s.qb, dialect, e, column, target).ToSql()
	if err != nil {
		return 0, err
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count orphans in %s.%s: %w", e.Table, column, err)
	}
	return n, nil
}
