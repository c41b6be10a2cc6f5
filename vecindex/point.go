package vecindex

import (
	"encoding/json"

	"github.com/poiesic/readgye/core"
)

// Point is an indexed clause embedding with its clause payload. Owner and
// document ids scope candidate generation; the descriptive fields keep the
// stored point self-describing. The relational store remains the source of
// truth for all of them.
type Point struct {
	ClauseID     string         `json:"clause_id"`
	OwnerID      string         `json:"owner_id"`
	DocumentID   string         `json:"document_id"`
	ClauseNumber string         `json:"clause_number"`
	Title        string         `json:"title"`
	RiskLevel    core.RiskLevel `json:"risk_level"`
	Summary      string         `json:"summary"`
	Suggestion   string         `json:"suggestion"`
	Content      string         `json:"content"`
	Vector       []float32      `json:"vector"`
}

func encodePoint(p *Point) ([]byte, error) {
	return json.Marshal(p)
}

func decodePoint(data []byte) (*Point, error) {
	var p Point
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Query scopes a similarity search. OwnerID is mandatory; a search without
// an owner scope returns nothing.
type Query struct {
	OwnerID        string
	DocumentID     string
	Limit          int
	ScoreThreshold float64
}
