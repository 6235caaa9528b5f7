package mysql

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
	"github.com/go-sql-driver/mysql"
)

var dialect = common.Dialect{
	Name:       "mysql",
	Quote:      common.Backtick,
	PrimaryKey: "BIGINT AUTO_INCREMENT PRIMARY KEY",
	ForeignKey: "BIGINT",
	Types: map[schema.Kind]string{
		schema.KindString:    "VARCHAR(255)",
		schema.KindText:      "TEXT",
		schema.KindEnum:      "VARCHAR(32)",
		schema.KindBool:      "BOOLEAN",
		schema.KindTimestamp: "DATETIME",
	},
}

var sslModes = strings.NewReplacer(
	"ssl-mode=REQUIRED", "tls=skip-verify",
	"ssl-mode=DISABLED", "tls=false",
	"ssl-mode=VERIFY_CA", "tls=true",
	"ssl-mode=VERIFY_IDENTITY", "tls=true",
	"sslmode=require", "tls=skip-verify",
	"sslmode=disable", "tls=false",
	"sslmode=verify-ca", "tls=true",
	"sslmode=verify-full", "tls=true",
)

type Adapter struct {
	db *sql.DB
	qb squirrel.StatementBuilderType
}

func New() *Adapter {
	return &Adapter{
		qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

// ToDSN converts a mysql:// URL into a driver DSN. Timestamps are always
// parsed into time.Time.
func ToDSN(url string) (string, error) {
	dsn := url
	if strings.HasPrefix(url, "mysql://") {
		dsn = strings.TrimPrefix(url, "mysql://")

		if atIndex := strings.LastIndex(dsn, "@"); atIndex > 0 {
			credentials := dsn[:atIndex]
			remainder := dsn[atIndex+1:]

			if slashIndex := strings.Index(remainder, "/"); slashIndex > 0 {
				hostPort := remainder[:slashIndex]
				dbAndParams := sslModes.Replace(remainder[slashIndex+1:])
				dsn = fmt.Sprintf("%s@tcp(%s)/%s", credentials, hostPort, dbAndParams)
			}
		}
	}

	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("failed to parse MySQL DSN: %w", err)
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

func (m *Adapter) Connect(ctx context.Context, url string) error {
	dsn, err := ToDSN(url)
	if err != nil {
		return err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open MySQL connection: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(3 * time.Minute)

	m.db = db
	return nil
}

func (m *Adapter) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

func (m *Adapter) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *Adapter) SchemaSQL(s *schema.Schema, order []string) (string, error) {
	return common.SchemaScript(dialect, s, order)
}

// EnsureSchema runs each CREATE TABLE on its own. MySQL commits DDL
// implicitly, so a transaction would not make the script atomic.
func (m *Adapter) EnsureSchema(ctx context.Context, s *schema.Schema, order []string) error {
	stmts, err := common.SchemaStatements(dialect, s, order)
	if err != nil {
		return err
	}

	for _, stmt := range stmts {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute statement '%s': %w", stmt, err)
		}
	}
	return nil
}

func (m *Adapter) Register(ctx context.Context, e *schema.Entity, v schema.Values) (int64, error) {
	query, args, err := common.InsertQuery(m.qb, dialect, e, v).ToSql()
	if err != nil {
		return 0, err
	}

	res, err := m.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", e.Table, err)
	}
	return res.LastInsertId()
}

func (m *Adapter) Lookup(ctx context.Context, e *schema.Entity, id int64, columns []string) (schema.Values, bool, error) {
	query, err := common.LookupQuery(m.qb, dialect, e, id, columns)
	if err != nil {
		return nil, false, err
	}
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, false, err
	}

	dest := common.ScanTargets(len(columns))
	if err := m.db.QueryRowContext(ctx, sqlStr, args...).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read %s %d: %w", e.Table, id, err)
	}
	return common.ScanValues(columns, dest), true, nil
}

func (m *Adapter) Count(ctx context.Context, e *schema.Entity) (int64, error) {
	query, args, err := common.CountQuery(m.qb, dialect, e).ToSql()
	if err != nil {
		return 0, err
	}

	var n int64
	if err := m.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", e.Table, err)
	}
	return n, nil
}

func (m *Adapter) Referencing(ctx context.Context, e *schema.Entity, column string, id int64) ([]int64, error) {
	if err := common.ValidateColumn(e, column); err != nil {
		return nil, err
	}
	query, args, err := common.ReferencingQuery(m.qb, dialect, e, column, id).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := m.db.QueryContext(ctx, query, args...)
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

func (m *Adapter) CountOrphans(ctx context.Context, e *schema.Entity, column string, target *schema.Entity) (int64, error) {
	if err := common.ValidateColumn(e, column); err != nil {
		return 0, err
	}
	query, args, err := common.OrphanQuery(m.qb, dialect, e, column, target).ToSql()
	if err != nil {
		return 0, err
	}

	var n int64
	if err := m.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count orphans in %s.%s: %w", e.Table, column, err)
	}
	return n, nil
}
