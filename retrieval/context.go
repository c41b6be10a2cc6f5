package retrieval

import (
	"fmt"
	"strings"

	"github.com/poiesic/readgye/core"
)

// NoDataContext is returned whenever there is nothing to ground an answer
// on. It is a real message, not an empty string, so the generation step can
// still respond.
const NoDataContext = "아직 분석된 계약서 데이터가 없습니다."

func riskLabel(level core.RiskLevel) string {
	switch level {
	case core.RiskHigh:
		return "🔴 위험"
	case core.RiskMedium:
		return "🟡 주의"
	case core.RiskLow:
		return "🟢 안전"
	default:
		return "미분류"
	}
}

// FormatContext renders analyzed rows into one text blob in input order. A
// document header is inserted whenever the document changes from the
// previous row; rows are not regrouped, so rerank order wins over document
// grouping.
func FormatContext(rows []core.AnalyzedRow) string {
	if len(rows) == 0 {
		return NoDataContext
	}

	parts := make([]string, 0, len(rows)*2)
	currentDoc := ""

	for _, row := range rows {
		if currentDoc != row.Document.ID {
			currentDoc = row.Document.ID
			parts = append(parts, fmt.Sprintf("\n=== 문서: %s ===", row.Document.Filename))
		}

		var block strings.Builder
		fmt.Fprintf(&block, "\n[%s - %s]\n", row.Clause.ClauseNumber, row.Clause.Title)
		fmt.Fprintf(&block, "- 위험도: %s (%s)\n", row.Analysis.RiskLevel, riskLabel(row.Analysis.RiskLevel))
		fmt.Fprintf(&block, "- 분석 요약: %s\n", row.Analysis.Summary)
		fmt.Fprintf(&block, "- 수정 제안: %s", row.Analysis.Suggestion)

		if row.Clause.Body != "" {
			fmt.Fprintf(&block, "\n- 원문: %s", truncateRunes(row.Clause.Body, 500))
		}

		parts = append(parts, block.String())
	}

	return strings.Join(parts, "\n")
}
