package query

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"
)

// Row is one result row. Columns keep the projection order of the query.
type Row struct {
	columns []string
	values  []any
}

// NewRow pairs columns with values. A repeated column name keeps its first
// position and takes the last value.
func NewRow(columns []string, values []any) Row {
	row := Row{
		columns: make([]string, 0, len(columns)),
		values:  make([]any, 0, len(columns)),
	}
	index := make(map[string]int, len(columns))
	for i, column := range columns {
		var value any
		if i < len(values) {
			value = values[i]
		}
		if at, ok := index[column]; ok {
			row.values[at] = value
			continue
		}
		index[column] = len(row.columns)
		row.columns = append(row.columns, column)
		row.values = append(row.values, value)
	}
	return row
}

func (r Row) Columns() []string {
	return append([]string(nil), r.columns...)
}

func (r Row) Values() []any {
	return append([]any(nil), r.values...)
}

func (r Row) Len() int {
	return len(r.columns)
}

func (r Row) Get(column string) (any, bool) {
	for i, name := range r.columns {
		if name == column {
			return r.values[i], true
		}
	}
	return nil, false
}

// Map drops ordering; use it only where order does not matter.
func (r Row) Map() map[string]any {
	out := make(map[string]any, len(r.columns))
	for i, name := range r.columns {
		out[name] = r.values[i]
	}
	return out
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, fmt.Errorf("marshal column %q: %w", name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, fmt.Errorf("marshal column %q: %w", name, err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Result is a materialized query result.
type Result struct {
	Columns  []string
	Rows     []Row
	Duration time.Duration
}

// Executor runs a statement that has already passed the safety gate. It
// still applies its own read-only execution mode.
type Executor interface {
	Execute(ctx context.Context, sqlText string) (Result, error)
}

// ExecutionError reports that an accepted statement failed against the data.
type ExecutionError struct {
	SQL string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("query execution failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// NormalizeValues converts driver values into JSON-friendly scalars.
func NormalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		normalized[i] = normalizeValue(value)
	}
	return normalized
}

func normalizeValue(value any) any {
	switch typed := value.(type) {
	case []byte:
		return string(typed)
	case *big.Int:
		if typed == nil {
			return nil
		}
		if typed.IsInt64() {
			return typed.Int64()
		}
		f, _ := new(big.Float).SetInt(typed).Float64()
		return f
	case interface{ Float64() float64 }:
		return typed.Float64()
	default:
		return typed
	}
}
