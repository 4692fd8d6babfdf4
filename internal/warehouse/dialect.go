package warehouse

import (
	"database/sql"
	"fmt"
	"strings"
)

// Dialect describes how to reach and introspect one database engine.
//
// Catalog queries use '?' placeholders and are rebound for the driver. The
// column query must return column_name, data_type, is_nullable and
// is_primary_key in declaration order.
type Dialect interface {
	Name() string
	DriverName() string
	DisplayName() string
	DSN(raw string, readOnly bool) string
	TxOptions() *sql.TxOptions
	// ReadOnlyStatements run on the borrowed connection before each query.
	ReadOnlyStatements() []string
	// ResetStatements undo ReadOnlyStatements before the connection goes back
	// to the pool.
	ResetStatements() []string
	ListTablesQuery(schemaName string) (string, []any)
	ColumnsQuery(schemaName, table string) (string, []any)
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverDuckDB   = "duckdb"
)

// DialectFor resolves a configured driver name. Common aliases are accepted.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", DriverSQLite, "sqlite3":
		return sqliteDialect{}, nil
	case DriverPostgres, "postgresql", "pgx":
		return postgresDialect{}, nil
	case DriverMySQL, "mariadb":
		return mysqlDialect{}, nil
	case DriverDuckDB:
		return duckdbDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", name)
	}
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return DriverSQLite }
func (sqliteDialect) DriverName() string { return "sqlite3" }
func (sqliteDialect) DisplayName() string { return "SQLite" }

func (sqliteDialect) DSN(raw string, readOnly bool) string {
	raw = strings.TrimSpace(raw)
	if !readOnly || raw == "" || strings.Contains(raw, ":memory:") || strings.Contains(raw, "mode=") {
		return raw
	}
	if !strings.HasPrefix(raw, "file:") {
		raw = "file:" + raw
	}
	separator := "?"
	if strings.Contains(raw, "?") {
		separator = "&"
	}
	return raw + separator + "mode=ro"
}

func (sqliteDialect) TxOptions() *sql.TxOptions {
	return &sql.TxOptions{ReadOnly: true}
}

func (sqliteDialect) ReadOnlyStatements() []string {
	return []string{"PRAGMA query_only = ON"}
}

func (sqliteDialect) ResetStatements() []string {
	return []string{"PRAGMA query_only = OFF"}
}

func (sqliteDialect) ListTablesQuery(string) (string, []any) {
	return `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`, nil
}

func (sqliteDialect) ColumnsQuery(_ string, table string) (string, []any) {
	return `SELECT name AS column_name, type AS data_type,
	CASE WHEN "notnull" = 1 THEN 0 ELSE 1 END AS is_nullable,
	CASE WHEN pk > 0 THEN 1 ELSE 0 END AS is_primary_key
FROM pragma_table_info(?)
ORDER BY cid`, []any{table}
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return DriverPostgres }
func (postgresDialect) DriverName() string { return "pgx" }
func (postgresDialect) DisplayName() string { return "PostgreSQL" }
func (postgresDialect) DSN(raw string, _ bool) string { return strings.TrimSpace(raw) }
func (postgresDialect) ReadOnlyStatements() []string { return nil }
func (postgresDialect) ResetStatements() []string { return nil }

func (postgresDialect) TxOptions() *sql.TxOptions {
	return &sql.TxOptions{ReadOnly: true}
}

func (postgresDialect) ListTablesQuery(schemaName string) (string, []any) {
	return `SELECT table_name FROM information_schema.tables
WHERE table_schema = ? AND table_type = 'BASE TABLE'
ORDER BY table_name`, []any{orDefault(schemaName, "public")}
}

func (postgresDialect) ColumnsQuery(schemaName, table string) (string, []any) {
	return informationSchemaColumns + `
WHERE c.table_schema = ? AND c.table_name = ?
ORDER BY c.ordinal_position`, []any{orDefault(schemaName, "public"), table}
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return DriverMySQL }
func (mysqlDialect) DriverName() string { return "mysql" }
func (mysqlDialect) DisplayName() string { return "MySQL" }
func (mysqlDialect) DSN(raw string, _ bool) string { return strings.TrimSpace(raw) }
func (mysqlDialect) ReadOnlyStatements() []string { return nil }
func (mysqlDialect) ResetStatements() []string { return nil }

func (mysqlDialect) TxOptions() *sql.TxOptions {
	return &sql.TxOptions{ReadOnly: true}
}

func (mysqlDialect) ListTablesQuery(schemaName string) (string, []any) {
	return `SELECT table_name AS table_name FROM information_schema.tables
WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE()) AND table_type = 'BASE TABLE'
ORDER BY table_name`, []any{schemaName}
}

func (mysqlDialect) ColumnsQuery(schemaName, table string) (string, []any) {
	return informationSchemaColumns + `
WHERE c.table_schema = COALESCE(NULLIF(?, ''), DATABASE()) AND c.table_name = ?
ORDER BY c.ordinal_position`, []any{schemaName, table}
}

// duckdb rejects read-only transaction options, so read-only mode comes from
// opening the database with access_mode=READ_ONLY.
type duckdbDialect struct{}

func (duckdbDialect) Name() string { return DriverDuckDB }
func (duckdbDialect) DriverName() string { return "duckdb" }
func (duckdbDialect) DisplayName() string { return "DuckDB" }
func (duckdbDialect) TxOptions() *sql.TxOptions { return nil }
func (duckdbDialect) ReadOnlyStatements() []string { return nil }
func (duckdbDialect) ResetStatements() []string { return nil }

func (duckdbDialect) DSN(raw string, readOnly bool) string {
	raw = strings.TrimSpace(raw)
	if !readOnly || raw == "" || strings.Contains(raw, "access_mode=") {
		return raw
	}
	separator := "?"
	if strings.Contains(raw, "?") {
		separator = "&"
	}
	return raw + separator + "access_mode=READ_ONLY"
}

func (duckdbDialect) ListTablesQuery(schemaName string) (string, []any) {
	return `SELECT table_name FROM information_schema.tables
WHERE table_schema = ? AND table_type = 'BASE TABLE'
ORDER BY table_name`, []any{orDefault(schemaName, "main")}
}

func (duckdbDialect) ColumnsQuery(schemaName, table string) (string, []any) {
	return `SELECT c.column_name, c.data_type,
	CASE WHEN c.is_nullable = 'YES' THEN 1 ELSE 0 END AS is_nullable,
	CASE WHEN EXISTS (
		SELECT 1 FROM duckdb_constraints() k
		WHERE k.schema_name = c.table_schema AND k.table_name = c.table_name
			AND k.constraint_type = 'PRIMARY KEY'
			AND list_contains(k.constraint_column_names, c.column_name)
	) THEN 1 ELSE 0 END AS is_primary_key
FROM information_schema.columns c
WHERE c.table_schema = ? AND c.table_name = ?
ORDER BY c.ordinal_position`, []any{orDefault(schemaName, "main"), table}
}

const informationSchemaColumns = `SELECT c.column_name AS column_name, c.data_type AS data_type,
	CASE WHEN c.is_nullable = 'YES' THEN 1 ELSE 0 END AS is_nullable,
	CASE WHEN pk.column_name IS NOT NULL THEN 1 ELSE 0 END AS is_primary_key
FROM information_schema.columns c
LEFT JOIN (
	SELECT kcu.table_schema, kcu.table_name, kcu.column_name
	FROM information_schema.table_constraints tc
	JOIN information_schema.key_column_usage kcu
		ON tc.constraint_name = kcu.constraint_name
		AND tc.table_schema = kcu.table_schema
		AND tc.table_name = kcu.table_name
	WHERE tc.constraint_type = 'PRIMARY KEY'
) pk ON pk.table_schema = c.table_schema AND pk.table_name = c.table_name AND pk.column_name = c.column_name`

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}
