package seed

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed ddl/*.sql
var ddlFS embed.FS

// Tables in dependency order. Drops run in reverse.
var Tables = []string{"customers", "products", "orders", "order_items"}

const insertBatchSize = 250

// Schema returns the DDL statements for a dialect name (sqlite, postgres,
// mysql, duckdb).
func Schema(dialect string) ([]string, error) {
	raw, err := ddlFS.ReadFile("ddl/" + dialect + ".sql")
	if err != nil {
		return nil, fmt.Errorf("no schema for dialect %q: %w", dialect, err)
	}
	var statements []string
	for _, part := range strings.Split(string(raw), ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements, nil
}

type LoadOptions struct {
	Reset bool
}

// Load creates the sales tables and inserts the dataset in one transaction.
func Load(ctx context.Context, db *sqlx.DB, dialect string, data Dataset, opts LoadOptions) error {
	statements, err := Schema(dialect)
	if err != nil {
		return err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if opts.Reset {
		for i := len(Tables) - 1; i >= 0; i-- {
			if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+Tables[i]); err != nil {
				return fmt.Errorf("drop table %s: %w", Tables[i], err)
			}
		}
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	if err := insertBatches(ctx, tx, `INSERT INTO customers (id, name, region, segment) VALUES (:id, :name, :region, :segment)`, data.Customers); err != nil {
		return fmt.Errorf("insert customers: %w", err)
	}
	if err := insertBatches(ctx, tx, `INSERT INTO products (id, name, category, price) VALUES (:id, :name, :category, :price)`, data.Products); err != nil {
		return fmt.Errorf("insert products: %w", err)
	}
	if err := insertBatches(ctx, tx, `INSERT INTO orders (id, customer_id, amount, order_date) VALUES (:id, :customer_id, :amount, :order_date)`, data.Orders); err != nil {
		return fmt.Errorf("insert orders: %w", err)
	}
	if err := insertBatches(ctx, tx, `INSERT INTO order_items (order_id, product_id, quantity) VALUES (:order_id, :product_id, :quantity)`, data.OrderItems); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}

func insertBatches[T any](ctx context.Context, tx *sqlx.Tx, stmt string, rows []T) error {
	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))
		if _, err := tx.NamedExecContext(ctx, stmt, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of rows in each seeded table.
func Count(ctx context.Context, db *sqlx.DB) (map[string]int, error) {
	counts := make(map[string]int, len(Tables))
	for _, table := range Tables {
		var n int
		if err := db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+table); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}
