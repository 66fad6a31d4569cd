package prompt

import (
	"fmt"
	"strings"

	"github.com/bhanuprasadthota/AskDB/internal/backend"
)

const template = `Convert this natural language query into a SQL query:
User Query: %s
Table Name: %s
Available Columns: %s
Use only these columns in the SQL query.`

// Build renders the translation prompt. Matched column names take
// precedence; when none matched the full schema is listed as
// "name (type)" pairs so the model still sees every column.
func Build(question, table string, schema []backend.Column, matched []string) string {
	var listing string
	if len(matched) > 0 {
		listing = strings.Join(matched, ", ")
	} else {
		pairs := make([]string, 0, len(schema))
		for _, column := range schema {
			pairs = append(pairs, fmt.Sprintf("%s (%s)", column.Name, column.Type))
		}
		listing = strings.Join(pairs, ", ")
	}
	return fmt.Sprintf(template, question, table, listing)
}

// Direct renders a bare translation prompt with no schema context.
func Direct(question string) string {
	return "Convert to SQL: " + question
}
