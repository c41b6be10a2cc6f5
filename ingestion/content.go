package ingestion

import (
	"fmt"
	"strings"

	"github.com/poiesic/readgye/core"
)

// BuildEmbeddingText renders a clause and its analysis into the labeled text
// that gets embedded. The same string is stored alongside the vector as the
// content snapshot, so re-analysis produces a visibly different snapshot.
func BuildEmbeddingText(clause core.Clause, analysis core.ClauseAnalysis) string {
	risk := analysis.RiskLevel
	if risk == "" {
		risk = core.RiskUnknown
	}

	parts := []string{
		fmt.Sprintf("조항번호: %s", clause.ClauseNumber),
		fmt.Sprintf("제목: %s", clause.Title),
		fmt.Sprintf("위험도: %s", risk),
		fmt.Sprintf("요약: %s", analysis.Summary),
		fmt.Sprintf("수정제안: %s", analysis.Suggestion),
		fmt.Sprintf("원문: %s", clause.Body),
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
