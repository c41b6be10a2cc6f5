package retrieval

import (
	"strings"
	"testing"

	"github.com/poiesic/readgye/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyzedRow(docID, filename, clauseID, number, title, body string, risk core.RiskLevel) core.AnalyzedRow {
	return core.AnalyzedRow{
		Clause: core.Clause{
			ID:           clauseID,
			DocumentID:   docID,
			ClauseNumber: number,
			Title:        title,
			Body:         body,
		},
		Analysis: core.ClauseAnalysis{
			ClauseID:   clauseID,
			RiskLevel:  risk,
			Summary:    "요약입니다",
			Suggestion: "제안입니다",
		},
		Document: core.Document{
			ID:       docID,
			Filename: filename,
			Status:   core.DocumentStatusDone,
		},
	}
}

func TestFormatContext(t *testing.T) {
	t.Run("empty input yields sentinel", func(t *testing.T) {
		assert.Equal(t, NoDataContext, FormatContext(nil))
		assert.Equal(t, NoDataContext, FormatContext([]core.AnalyzedRow{}))
	})

	t.Run("headers follow document changes in iteration order", func(t *testing.T) {
		rows := []core.AnalyzedRow{
			analyzedRow("d1", "lease.pdf", "c1", "제1조", "목적", "", core.RiskLow),
			analyzedRow("d2", "loan.pdf", "c2", "제2조", "이자", "", core.RiskHigh),
			analyzedRow("d1", "lease.pdf", "c3", "제3조", "해지", "", core.RiskMedium),
		}

		got := FormatContext(rows)

		// d1 appears before and after d2, so its header repeats. Rows are
		// never regrouped behind the ranking's back.
		assert.Equal(t, 2, strings.Count(got, "=== 문서: lease.pdf ==="))
		assert.Equal(t, 1, strings.Count(got, "=== 문서: loan.pdf ==="))
	})

	t.Run("block carries risk label and analysis fields", func(t *testing.T) {
		got := FormatContext([]core.AnalyzedRow{
			analyzedRow("d1", "lease.pdf", "c1", "제5조", "해지", "본문", core.RiskHigh),
		})

		assert.Contains(t, got, "[제5조 - 해지]")
		assert.Contains(t, got, "- 위험도: HIGH (🔴 위험)")
		assert.Contains(t, got, "- 분석 요약: 요약입니다")
		assert.Contains(t, got, "- 수정 제안: 제안입니다")
		assert.Contains(t, got, "- 원문: 본문")
	})

	t.Run("unrecognized risk level gets unclassified label", func(t *testing.T) {
		got := FormatContext([]core.AnalyzedRow{
			analyzedRow("d1", "lease.pdf", "c1", "제1조", "목적", "", ""),
		})
		assert.Contains(t, got, "(미분류)")
	})

	t.Run("body truncated at 500 characters", func(t *testing.T) {
		body := strings.Repeat("가", 600)
		got := FormatContext([]core.AnalyzedRow{
			analyzedRow("d1", "lease.pdf", "c1", "제1조", "목적", body, core.RiskLow),
		})

		assert.Contains(t, got, strings.Repeat("가", 500))
		assert.NotContains(t, got, strings.Repeat("가", 501))
	})

	t.Run("empty body emits no source line", func(t *testing.T) {
		got := FormatContext([]core.AnalyzedRow{
			analyzedRow("d1", "lease.pdf", "c1", "제1조", "목적", "", core.RiskLow),
		})
		assert.NotContains(t, got, "원문")
	})
}

func TestBuildCitations(t *testing.T) {
	t.Run("fields and rounding", func(t *testing.T) {
		row := analyzedRow("d1", "lease.pdf", "c1", "제5조", "해지", "", core.RiskHigh)
		got := buildCitations([]core.RankedRow{{Row: row, Score: 0.123456}})

		require.Len(t, got, 1)
		assert.Equal(t, "c1", got[0].ClauseID)
		assert.Equal(t, "d1", got[0].DocumentID)
		assert.Equal(t, "lease.pdf", got[0].DocumentFilename)
		assert.Equal(t, "제5조", got[0].ClauseNumber)
		assert.Equal(t, "해지", got[0].ClauseTitle)
		assert.Equal(t, core.RiskHigh, got[0].RiskLevel)
		assert.Equal(t, 0.1235, got[0].Score)
	})

	t.Run("defaults for missing metadata", func(t *testing.T) {
		row := analyzedRow("d1", "lease.pdf", "c1", "", "", "", "")
		got := buildCitations([]core.RankedRow{{Row: row, Score: 0.5}})

		require.Len(t, got, 1)
		assert.Equal(t, "미분류", got[0].ClauseNumber)
		assert.Equal(t, "제목 없음", got[0].ClauseTitle)
		assert.Equal(t, core.RiskUnknown, got[0].RiskLevel)
	})

	t.Run("order matches input order", func(t *testing.T) {
		rows := []core.RankedRow{
			{Row: analyzedRow("d1", "a.pdf", "c2", "제2조", "b", "", core.RiskLow), Score: 0.9},
			{Row: analyzedRow("d1", "a.pdf", "c1", "제1조", "a", "", core.RiskLow), Score: 0.8},
		}
		got := buildCitations(rows)

		require.Len(t, got, 2)
		assert.Equal(t, "c2", got[0].ClauseID)
		assert.Equal(t, "c1", got[1].ClauseID)
	})
}
