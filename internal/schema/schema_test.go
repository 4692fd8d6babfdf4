package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tables := []Table{
		{
			Name: "customers",
			Columns: []Column{
				{Name: "id", Type: "INTEGER", PrimaryKey: true, Nullable: true},
				{Name: "name", Type: "TEXT", Nullable: false},
				{Name: "region", Type: "TEXT", Nullable: true},
			},
		},
		{
			Name:    "orders",
			Columns: []Column{{Name: "id", Type: "INTEGER", PrimaryKey: true}},
		},
	}

	want := "### Table: customers\n" +
		"    - id: INTEGER (PRIMARY KEY)\n" +
		"    - name: TEXT NOT NULL\n" +
		"    - region: TEXT\n" +
		"\n" +
		"### Table: orders\n" +
		"    - id: INTEGER (PRIMARY KEY) NOT NULL"
	assert.Equal(t, want, Format(tables))
}

func TestFormatEmpty(t *testing.T) {
	assert.Equal(t, "", Format(nil))
	assert.Equal(t, "### Table: empty", Format([]Table{{Name: "empty"}}))
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Names([]Table{{Name: "a"}, {Name: "b"}}))
	assert.Empty(t, Names(nil))
}
