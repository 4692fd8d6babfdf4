// Package warehouse is the read-only gateway to the sales database. It
// introspects the live catalog and executes gate-approved statements.
package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/marcboeker/go-duckdb/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/salesquery/salesquery/internal/query"
	"github.com/salesquery/salesquery/internal/schema"
)

var ErrTableNotFound = errors.New("table not found")

const defaultQueryTimeout = 10 * time.Second

type Config struct {
	Driver          string
	DSN             string
	Schema          string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	QueryTimeout    time.Duration
}

type Warehouse struct {
	db           *sqlx.DB
	dialect      Dialect
	schemaName   string
	queryTimeout time.Duration
}

// Connect opens a pooled handle. Writers such as the seeder pass readOnly
// false; everything serving questions goes through Open.
func Connect(ctx context.Context, cfg Config, readOnly bool) (*sqlx.DB, Dialect, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("database dsn is required")
	}

	db, err := sqlx.Open(dialect.DriverName(), dialect.DSN(cfg.DSN, readOnly))
	if err != nil {
		return nil, nil, fmt.Errorf("open %s database: %w", dialect.Name(), err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping %s database: %w", dialect.Name(), err)
	}
	return db, dialect, nil
}

func Open(ctx context.Context, cfg Config) (*Warehouse, error) {
	db, dialect, err := Connect(ctx, cfg, true)
	if err != nil {
		return nil, err
	}
	return &Warehouse{
		db:           db,
		dialect:      dialect,
		schemaName:   strings.TrimSpace(cfg.Schema),
		queryTimeout: orDefaultDuration(cfg.QueryTimeout, defaultQueryTimeout),
	}, nil
}

// New wraps an existing handle, mainly for tests.
func New(db *sql.DB, driver string, queryTimeout time.Duration) (*Warehouse, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	return &Warehouse{
		db:           sqlx.NewDb(db, dialect.DriverName()),
		dialect:      dialect,
		queryTimeout: orDefaultDuration(queryTimeout, defaultQueryTimeout),
	}, nil
}

func (w *Warehouse) Dialect() Dialect {
	return w.dialect
}

func (w *Warehouse) Close() error {
	return w.db.Close()
}

func (w *Warehouse) Ping(ctx context.Context) error {
	if err := w.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping warehouse: %w", err)
	}
	return nil
}

// ListTables returns table names in alphabetical order.
func (w *Warehouse) ListTables(ctx context.Context) ([]string, error) {
	q, args := w.dialect.ListTablesQuery(w.schemaName)
	names := make([]string, 0)
	if err := w.db.SelectContext(ctx, &names, w.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return names, nil
}

// DescribeTable returns columns in declaration order.
func (w *Warehouse) DescribeTable(ctx context.Context, table string) ([]schema.Column, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return nil, fmt.Errorf("%w: table name is required", ErrTableNotFound)
	}

	q, args := w.dialect.ColumnsQuery(w.schemaName, table)
	rows, err := w.db.QueryContext(ctx, w.db.Rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("describe table %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	columns := make([]schema.Column, 0)
	for rows.Next() {
		var (
			name       string
			dataType   sql.NullString
			nullable   int64
			primaryKey int64
		)
		if err := rows.Scan(&name, &dataType, &nullable, &primaryKey); err != nil {
			return nil, fmt.Errorf("scan column of %q: %w", table, err)
		}
		columns = append(columns, schema.Column{
			Name:       name,
			Type:       dataType.String,
			Nullable:   nullable != 0,
			PrimaryKey: primaryKey != 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns of %q: %w", table, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	return columns, nil
}

// Tables reads the whole catalog fresh.
func (w *Warehouse) Tables(ctx context.Context) ([]schema.Table, error) {
	names, err := w.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	tables := make([]schema.Table, 0, len(names))
	for _, name := range names {
		columns, err := w.DescribeTable(ctx, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, schema.Table{Name: name, Columns: columns})
	}
	return tables, nil
}

// Execute runs one statement on a dedicated connection inside a read-only
// transaction. Statement failures come back as *query.ExecutionError.
func (w *Warehouse) Execute(ctx context.Context, sqlText string) (query.Result, error) {
	start := time.Now()
	if w.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.queryTimeout)
		defer cancel()
	}

	conn, err := w.db.Connx(ctx)
	if err != nil {
		return query.Result{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	for _, stmt := range w.dialect.ReadOnlyStatements() {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return query.Result{}, fmt.Errorf("enforce read-only mode: %w", err)
		}
	}
	defer func() {
		resetCtx := context.WithoutCancel(ctx)
		for _, stmt := range w.dialect.ResetStatements() {
			_, _ = conn.ExecContext(resetCtx, stmt)
		}
	}()

	tx, err := conn.BeginTxx(ctx, w.dialect.TxOptions())
	if err != nil {
		return query.Result{}, fmt.Errorf("begin read-only transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryxContext(ctx, sqlText)
	if err != nil {
		return query.Result{}, executionError(ctx, sqlText, err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return query.Result{}, executionError(ctx, sqlText, err)
	}

	resultRows := make([]query.Row, 0)
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return query.Result{}, executionError(ctx, sqlText, err)
		}
		resultRows = append(resultRows, query.NewRow(columns, query.NormalizeValues(values)))
	}
	if err := rows.Err(); err != nil {
		return query.Result{}, executionError(ctx, sqlText, err)
	}

	return query.Result{
		Columns:  columns,
		Rows:     resultRows,
		Duration: time.Since(start),
	}, nil
}

// A deadline or cancellation is not the statement's fault.
func executionError(ctx context.Context, sqlText string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("execute query: %w", ctxErr)
	}
	return &query.ExecutionError{SQL: sqlText, Err: err}
}

func orDefaultDuration(value, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return value
}
