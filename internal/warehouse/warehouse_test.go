package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/salesquery/salesquery/internal/query"
)

func TestListTablesPostgresUsesDollarPlaceholders(t *testing.T) {
	db, mock := newSQLMock(t)
	wh, err := New(db, "postgres", time.Second)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE table_schema = $1 AND table_type = 'BASE TABLE'`)).
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("customers").AddRow("orders"))

	tables, err := wh.ListTables(context.Background())
	if err != nil {
		t.Fatalf("ListTables() error = %v", err)
	}
	if len(tables) != 2 || tables[0] != "customers" || tables[1] != "orders" {
		t.Fatalf("tables = %v", tables)
	}
	assertSQLMock(t, mock)
}

func TestDescribeTableMapsFlags(t *testing.T) {
	db, mock := newSQLMock(t)
	wh, err := New(db, "sqlite", time.Second)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`FROM pragma_table_info(?)`)).
		WithArgs("customers").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "is_primary_key"}).
			AddRow("id", "INTEGER", int64(1), int64(1)).
			AddRow("name", "TEXT", int64(0), int64(0)))

	columns, err := wh.DescribeTable(context.Background(), "customers")
	if err != nil {
		t.Fatalf("DescribeTable() error = %v", err)
	}
	if len(columns) != 2 {
		t.Fatalf("columns = %d", len(columns))
	}
	if !columns[0].PrimaryKey || !columns[0].Nullable || columns[0].Type != "INTEGER" {
		t.Fatalf("id column = %+v", columns[0])
	}
	if columns[1].PrimaryKey || columns[1].Nullable {
		t.Fatalf("name column = %+v", columns[1])
	}
	assertSQLMock(t, mock)
}

func TestDescribeTableUnknownTable(t *testing.T) {
	db, mock := newSQLMock(t)
	wh, err := New(db, "mysql", time.Second)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`c.table_schema = COALESCE(NULLIF(?, ''), DATABASE()) AND c.table_name = ?`)).
		WithArgs("", "missing").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "is_primary_key"}))

	_, err = wh.DescribeTable(context.Background(), "missing")
	if !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("DescribeTable() error = %v, want ErrTableNotFound", err)
	}
	assertSQLMock(t, mock)
}

func TestExecuteSQLiteEnforcesQueryOnlyPerCall(t *testing.T) {
	db, mock := newSQLMock(t)
	wh, err := New(db, "sqlite", time.Second)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta(`PRAGMA query_only = ON`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name, total FROM t`)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "total"}).AddRow("a", int64(3)).AddRow([]byte("b"), nil))
	mock.ExpectRollback()
	mock.ExpectExec(regexp.QuoteMeta(`PRAGMA query_only = OFF`)).WillReturnResult(sqlmock.NewResult(0, 0))

	result, err := wh.Execute(context.Background(), "SELECT name, total FROM t")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("rows = %d", len(result.Rows))
	}
	if v, _ := result.Rows[1].Get("name"); v != "b" {
		t.Fatalf("name = %#v, want normalized string", v)
	}
	if v, _ := result.Rows[1].Get("total"); v != nil {
		t.Fatalf("total = %#v", v)
	}
	assertSQLMock(t, mock)
}

func TestExecuteWrapsStatementFailure(t *testing.T) {
	db, mock := newSQLMock(t)
	wh, err := New(db, "postgres", time.Second)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT nope FROM customers`)).
		WillReturnError(errors.New(`column "nope" does not exist`))
	mock.ExpectRollback()

	_, err = wh.Execute(context.Background(), "SELECT nope FROM customers")
	var execErr *query.ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("Execute() error = %v, want ExecutionError", err)
	}
	if execErr.SQL != "SELECT nope FROM customers" {
		t.Fatalf("SQL = %q", execErr.SQL)
	}
	assertSQLMock(t, mock)
}

func TestExecuteBeginFailureIsNotExecutionError(t *testing.T) {
	db, mock := newSQLMock(t)
	wh, err := New(db, "postgres", time.Second)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	mock.ExpectBegin().WillReturnError(errors.New("connection reset"))

	_, err = wh.Execute(context.Background(), "SELECT 1")
	if err == nil {
		t.Fatal("expected error")
	}
	var execErr *query.ExecutionError
	if errors.As(err, &execErr) {
		t.Fatalf("begin failure should not be an ExecutionError: %v", err)
	}
	assertSQLMock(t, mock)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	db, _ := newSQLMock(t)
	if _, err := New(db, "oracle", 0); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}
