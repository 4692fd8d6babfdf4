package nl2sql

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed examples.yaml
var defaultExamplesYAML []byte

type Example struct {
	Question string    `yaml:"question"`
	Answer   Candidate `yaml:"answer"`
}

// DefaultExamples returns the built-in few-shot examples.
func DefaultExamples() []Example {
	examples, err := ParseExamples(defaultExamplesYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded examples: %v", err))
	}
	return examples
}

// LoadExamples reads examples from path, or returns the defaults when path
// is empty.
func LoadExamples(path string) ([]Example, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultExamples(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read examples file: %w", err)
	}
	return ParseExamples(raw)
}

func ParseExamples(raw []byte) ([]Example, error) {
	var examples []Example
	if err := yaml.Unmarshal(raw, &examples); err != nil {
		return nil, fmt.Errorf("decode examples: %w", err)
	}
	for i, example := range examples {
		if strings.TrimSpace(example.Question) == "" {
			return nil, fmt.Errorf("example %d: question is required", i)
		}
	}
	return examples, nil
}

const systemPromptHeader = `You are an expert SQL analyst. Your job is to translate natural language questions
into precise %[1]s SQL queries based on the database schema provided below.

## Database Schema
%[2]s

## How to Analyze the Schema
1. Study the table names and column names to understand what data is available.
2. Identify relationships by looking for columns that reference other tables (e.g., a column named ` + "`user_id`" + ` likely references an ` + "`id`" + ` column in a ` + "`users`" + ` table).
3. Identify junction tables that exist primarily to link two other tables.
4. Understand which columns are numeric (for SUM, AVG, COUNT) vs text (for filtering, grouping).
5. Look for date/time columns for any time-based analysis.

## Rules
1. ONLY use tables and columns that exist in the schema above. Never invent tables or columns.
2. Infer table relationships from column names (foreign keys) and use appropriate JOINs.
3. Use aliases for readability (e.g., COUNT(*) AS total_count).
4. Use ROUND() for decimal results to 2 decimal places.
5. %[3]s
6. If a question asks for "top N", use ORDER BY ... DESC LIMIT N.
7. Prefer LEFT JOIN when looking for records that DON'T have matches (e.g., "items that were never...").
8. When computing totals that span a junction table, multiply price × quantity at the line-item level.
9. Produce exactly one SELECT statement. Never modify data.
10. If the question CANNOT be answered using the given schema, set is_answerable to false.

## Output Format
Respond with only a JSON object containing:
- is_answerable: true/false
- sql: the SELECT query (empty string if unanswerable)
- explanation: why it's unanswerable (empty string if answerable)
`

// SystemPrompt renders the instructions sent ahead of the user's question.
func SystemPrompt(req Request, examples []Example) string {
	dialect := strings.TrimSpace(req.Dialect)
	if dialect == "" {
		dialect = "SQLite"
	}

	var b strings.Builder
	fmt.Fprintf(&b, systemPromptHeader, dialect, req.SchemaContext, dateRule(dialect))
	if len(examples) > 0 {
		b.WriteString("\n## Examples (generic patterns)\n")
		for _, example := range examples {
			answer, err := json.Marshal(example.Answer)
			if err != nil {
				continue
			}
			fmt.Fprintf(&b, "Question: %s\nAnswer: %s\n\n", example.Question, answer)
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func dateRule(dialect string) string {
	switch dialect {
	case "PostgreSQL":
		return "For date filters in PostgreSQL, use date_trunc(), EXTRACT() or BETWEEN on DATE values."
	case "MySQL":
		return "For date filters in MySQL, use DATE_FORMAT(), YEAR(), MONTH() or BETWEEN on DATE values."
	case "DuckDB":
		return "For date filters in DuckDB, use strftime(), date_trunc() or BETWEEN on DATE values."
	default:
		return "For date filters in SQLite, use strftime() or BETWEEN with string comparison."
	}
}
