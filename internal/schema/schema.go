package schema

import "strings"

type Column struct {
	Name       string `json:"column_name"`
	Type       string `json:"column_type"`
	Nullable   bool   `json:"nullable"`
	PrimaryKey bool   `json:"primary_key"`
}

type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Format renders tables as prompt context. Table and column order is kept.
func Format(tables []Table) string {
	parts := make([]string, 0, len(tables))
	for _, table := range tables {
		var b strings.Builder
		b.WriteString("### Table: ")
		b.WriteString(table.Name)
		for _, column := range table.Columns {
			b.WriteString("\n    - ")
			b.WriteString(column.Name)
			b.WriteString(": ")
			b.WriteString(column.Type)
			if column.PrimaryKey {
				b.WriteString(" (PRIMARY KEY)")
			}
			if !column.Nullable {
				b.WriteString(" NOT NULL")
			}
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n\n")
}

// Names returns the table names in order.
func Names(tables []Table) []string {
	names := make([]string, 0, len(tables))
	for _, table := range tables {
		names = append(names, table.Name)
	}
	return names
}
