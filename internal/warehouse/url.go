package warehouse

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ParseURL maps a DATABASE_URL style location onto a driver and DSN.
//
//	sqlite:///data/sales.db        -> sqlite, data/sales.db
//	sqlite:////var/lib/sales.db    -> sqlite, /var/lib/sales.db
//	postgres://u:p@host/db         -> postgres, unchanged
//	mysql://u:p@host:3306/db       -> mysql, u:p@tcp(host:3306)/db
//	duckdb:///data/sales.duckdb    -> duckdb, data/sales.duckdb
func ParseURL(raw string) (driver, dsn string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", fmt.Errorf("database url is required")
	}
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return "", "", fmt.Errorf("database url %q has no scheme", raw)
	}

	switch strings.ToLower(scheme) {
	case "sqlite", "sqlite3":
		return DriverSQLite, filePath(rest), nil
	case "duckdb":
		return DriverDuckDB, filePath(rest), nil
	case "postgres", "postgresql":
		return DriverPostgres, raw, nil
	case "mysql", "mariadb":
		dsn, err := mysqlDSN(raw)
		if err != nil {
			return "", "", err
		}
		return DriverMySQL, dsn, nil
	default:
		return "", "", fmt.Errorf("unsupported database url scheme %q", scheme)
	}
}

// filePath follows the SQLAlchemy convention: three slashes mean a relative
// path and four an absolute one.
func filePath(rest string) string {
	if !strings.HasPrefix(rest, "/") {
		return rest
	}
	return strings.TrimPrefix(rest, "/")
}

func mysqlDSN(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse mysql url: %w", err)
	}
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = parsed.Host
	cfg.DBName = strings.TrimPrefix(parsed.Path, "/")
	if parsed.User != nil {
		cfg.User = parsed.User.Username()
		cfg.Passwd, _ = parsed.User.Password()
	}
	return cfg.FormatDSN(), nil
}
