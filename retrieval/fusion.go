// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package retrieval

import (
	"sort"

	"github.com/poiesic/readgye/core"
)

const (
	vectorWeight  = 0.75
	lexicalWeight = 0.20

	highRiskBoost   = 0.05
	mediumRiskBoost = 0.02
)

func riskBoost(level core.RiskLevel) float64 {
	switch level {
	case core.RiskHigh:
		return highRiskBoost
	case core.RiskMedium:
		return mediumRiskBoost
	default:
		return 0.0
	}
}

// rankRows fuses each row's vector score with its lexical overlap and risk
// boost, then orders descending. The sort is stable so exact ties keep their
// fetch order. With rerank off the fused score is the raw vector score and
// the ordering collapses to descending vector similarity.
func rankRows(queryText string, rows []core.AnalyzedRow, vectorScores map[string]float64, rerank bool) []core.RankedRow {
	ranked := make([]core.RankedRow, 0, len(rows))
	for _, row := range rows {
		// Missing entries shouldn't happen since candidates produced the
		// clause ids; default to 0.0 rather than dropping the row.
		vScore := vectorScores[row.Clause.ID]

		score := vScore
		if rerank {
			lScore := lexicalScore(queryText, row)
			score = vectorWeight*vScore + lexicalWeight*lScore + riskBoost(row.Analysis.RiskLevel)
		}
		ranked = append(ranked, core.RankedRow{Row: row, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
