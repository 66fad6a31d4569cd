package nl2sql

import "strings"

func cleanSQL(raw string) string {
	value := stripMarkdownSQL(raw)
	value = stripStructuredOutput(value)
	return strings.TrimSpace(value)
}

func stripMarkdownSQL(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```sql")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		return strings.TrimSpace(trimmed)
	}
	return trimmed
}

// stripStructuredOutput unwraps dict-shaped completions some SQL models
// emit, like {'human_readable': 'SELECT ...', 'sel': ...}. Only the
// human_readable query survives.
func stripStructuredOutput(value string) string {
	if !strings.Contains(value, "'human_readable':") {
		return value
	}
	parts := strings.Split(value, "'human_readable':")
	candidate := parts[len(parts)-1]
	if idx := strings.Index(candidate, "', 'sel'"); idx >= 0 {
		candidate = candidate[:idx]
	} else if idx := strings.Index(candidate, "'sel'"); idx >= 0 {
		candidate = candidate[:idx]
	}
	return strings.Trim(candidate, " '\"{},\n")
}
