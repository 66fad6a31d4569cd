package match

import (
	"sort"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Scorer rates the similarity of two strings on a 0..100 scale.
type Scorer func(a, b string) int

// DefaultThreshold is the lowest score that still counts as a match.
const DefaultThreshold = 61

type Matcher struct {
	scorer    Scorer
	threshold int
}

func New() *Matcher {
	return NewWithScorer(fuzzy.Ratio, DefaultThreshold)
}

func NewWithScorer(scorer Scorer, threshold int) *Matcher {
	return &Matcher{scorer: scorer, threshold: threshold}
}

// Match returns the column names the question plausibly refers to. Each
// question token is scored against every column and the best-scoring
// column is kept when it clears the threshold. The result is a sorted
// set and always a subset of columns.
func (m *Matcher) Match(question string, columns []string) []string {
	if len(columns) == 0 {
		return nil
	}

	seen := make(map[string]struct{})
	for _, token := range strings.Fields(strings.ToLower(question)) {
		best := ""
		bestScore := 0
		for _, column := range columns {
			score := m.scorer(token, column)
			if score > bestScore {
				best = column
				bestScore = score
			}
		}
		if bestScore >= m.threshold {
			seen[best] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return nil
	}
	matched := make([]string, 0, len(seen))
	for column := range seen {
		matched = append(matched, column)
	}
	sort.Strings(matched)
	return matched
}
