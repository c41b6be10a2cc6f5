package retrieval

import (
	"math"

	"github.com/poiesic/readgye/core"
)

// Default citation fields for clauses missing descriptive metadata.
const (
	unclassifiedClauseNumber = "미분류"
	untitledClause           = "제목 없음"
)

// buildCitations maps ranked rows to citation records in the same order the
// context formatter renders them.
func buildCitations(ranked []core.RankedRow) []core.Citation {
	citations := make([]core.Citation, 0, len(ranked))
	for _, r := range ranked {
		number := r.Row.Clause.ClauseNumber
		if number == "" {
			number = unclassifiedClauseNumber
		}
		title := r.Row.Clause.Title
		if title == "" {
			title = untitledClause
		}
		risk := r.Row.Analysis.RiskLevel
		if risk == "" {
			risk = core.RiskUnknown
		}

		citations = append(citations, core.Citation{
			ClauseID:         r.Row.Clause.ID,
			DocumentID:       r.Row.Document.ID,
			DocumentFilename: r.Row.Document.Filename,
			ClauseNumber:     number,
			ClauseTitle:      title,
			RiskLevel:        risk,
			Score:            math.Round(r.Score*10000) / 10000,
		})
	}
	return citations
}
