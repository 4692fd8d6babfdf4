package nl2sql

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultExamples(t *testing.T) {
	examples := DefaultExamples()
	require.NotEmpty(t, examples)

	var sawUnanswerable bool
	for _, example := range examples {
		if !example.Answer.IsAnswerable {
			sawUnanswerable = true
			assert.Empty(t, example.Answer.SQL)
			assert.NotEmpty(t, example.Answer.Explanation)
		}
	}
	assert.True(t, sawUnanswerable)
}

func TestSystemPromptIncludesSchemaDialectAndExamples(t *testing.T) {
	prompt := SystemPrompt(Request{SchemaContext: "### Table: orders", Dialect: "PostgreSQL"}, DefaultExamples())

	assert.Contains(t, prompt, "precise PostgreSQL SQL queries")
	assert.Contains(t, prompt, "## Database Schema\n### Table: orders")
	assert.Contains(t, prompt, "date_trunc()")
	assert.Contains(t, prompt, `Answer: {"is_answerable":false,"sql":"","explanation":"The database schema does not contain weather-related data."}`)
	assert.True(t, strings.HasSuffix(prompt, "\n"))
}

func TestSystemPromptDefaultsToSQLite(t *testing.T) {
	prompt := SystemPrompt(Request{SchemaContext: "x"}, nil)
	assert.Contains(t, prompt, "precise SQLite SQL queries")
	assert.Contains(t, prompt, "strftime()")
	assert.NotContains(t, prompt, "## Examples")
}

func TestLoadExamplesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "examples.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- question: Revenue by month
  answer:
    is_answerable: true
    sql: SELECT 1
`), 0o644))

	examples, err := LoadExamples(path)
	require.NoError(t, err)
	require.Len(t, examples, 1)
	assert.Equal(t, "Revenue by month", examples[0].Question)
	assert.Equal(t, Candidate{IsAnswerable: true, SQL: "SELECT 1"}, examples[0].Answer)

	defaults, err := LoadExamples("")
	require.NoError(t, err)
	assert.Equal(t, DefaultExamples(), defaults)
}

func TestParseExamplesRejectsMissingQuestion(t *testing.T) {
	_, err := ParseExamples([]byte("- answer:\n    sql: SELECT 1\n"))
	require.Error(t, err)
}
