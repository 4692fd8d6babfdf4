package warehouse

import (
	"strings"
	"testing"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		raw    string
		driver string
		dsn    string
	}{
		{raw: "sqlite:///data/sales.db", driver: "sqlite", dsn: "data/sales.db"},
		{raw: "sqlite:////var/lib/sales.db", driver: "sqlite", dsn: "/var/lib/sales.db"},
		{raw: "duckdb:///data/sales.duckdb", driver: "duckdb", dsn: "data/sales.duckdb"},
		{raw: "postgres://u:p@db:5432/sales?sslmode=disable", driver: "postgres", dsn: "postgres://u:p@db:5432/sales?sslmode=disable"},
	}
	for _, tc := range tests {
		driver, dsn, err := ParseURL(tc.raw)
		if err != nil {
			t.Fatalf("ParseURL(%q) error = %v", tc.raw, err)
		}
		if driver != tc.driver || dsn != tc.dsn {
			t.Fatalf("ParseURL(%q) = %q, %q", tc.raw, driver, dsn)
		}
	}
}

func TestParseURLMySQL(t *testing.T) {
	driver, dsn, err := ParseURL("mysql://reader:secret@db:3306/sales")
	if err != nil {
		t.Fatalf("ParseURL() error = %v", err)
	}
	if driver != "mysql" {
		t.Fatalf("driver = %q", driver)
	}
	if !strings.HasPrefix(dsn, "reader:secret@tcp(db:3306)/sales") {
		t.Fatalf("dsn = %q", dsn)
	}
}

func TestParseURLRejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "data/sales.db", "oracle://x"} {
		if _, _, err := ParseURL(raw); err == nil {
			t.Fatalf("ParseURL(%q) expected error", raw)
		}
	}
}

func TestDialectDSN(t *testing.T) {
	sqlite, _ := DialectFor("sqlite")
	if got := sqlite.DSN("data/sales.db", true); got != "file:data/sales.db?mode=ro" {
		t.Fatalf("sqlite read-only dsn = %q", got)
	}
	if got := sqlite.DSN("file:x.db?cache=shared", true); got != "file:x.db?cache=shared&mode=ro" {
		t.Fatalf("sqlite read-only dsn = %q", got)
	}
	if got := sqlite.DSN("data/sales.db", false); got != "data/sales.db" {
		t.Fatalf("sqlite writer dsn = %q", got)
	}
	duck, _ := DialectFor("duckdb")
	if got := duck.DSN("sales.duckdb", true); got != "sales.duckdb?access_mode=READ_ONLY" {
		t.Fatalf("duckdb read-only dsn = %q", got)
	}
	if duck.TxOptions() != nil {
		t.Fatal("duckdb should not request read-only tx options")
	}
}
