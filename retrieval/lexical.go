package retrieval

import (
	"regexp"
	"strings"

	"github.com/poiesic/readgye/core"
)

// Tokens are case-folded runs of alphanumeric or Hangul characters. Single
// characters and punctuation carry no signal and are dropped.
var tokenPattern = regexp.MustCompile(`[0-9A-Za-z가-힣]{2,}`)

func tokenize(text string) map[string]struct{} {
	matches := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		tokens[m] = struct{}{}
	}
	return tokens
}

// lexicalScore measures token overlap between the query and the clause's
// descriptive text. The clause body contributes only its first 500
// characters; summaries and titles carry most of the signal anyway.
func lexicalScore(queryText string, row core.AnalyzedRow) float64 {
	queryTokens := tokenize(queryText)
	if len(queryTokens) == 0 {
		return 0.0
	}

	target := strings.Join([]string{
		row.Clause.ClauseNumber,
		row.Clause.Title,
		row.Analysis.Summary,
		row.Analysis.Suggestion,
		truncateRunes(row.Clause.Body, 500),
	}, " ")
	targetTokens := tokenize(target)
	if len(targetTokens) == 0 {
		return 0.0
	}

	overlap := 0
	for token := range queryTokens {
		if _, ok := targetTokens[token]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(max(len(queryTokens), 1))
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
