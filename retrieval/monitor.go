package retrieval

import "github.com/poiesic/readgye/core"

// RetrievalMonitor provides hooks to observe the tiered retrieval protocol.
// Implement this interface to track which tier produced candidates and what
// survived the relational re-fetch.
type RetrievalMonitor interface {
	Start(query string)
	AfterEmbed(dims int)
	AfterIndexSearch(candidates []core.Candidate)
	AfterFallbackSearch(candidates []core.Candidate)
	AfterRowFetch(rows []core.AnalyzedRow)
	Finish(result *core.RetrievalResult)
}

// noopMonitor is a no-op implementation of RetrievalMonitor
type noopMonitor struct{}

var _ RetrievalMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                         {}
func (n *noopMonitor) AfterEmbed(_ int)                       {}
func (n *noopMonitor) AfterIndexSearch(_ []core.Candidate)    {}
func (n *noopMonitor) AfterFallbackSearch(_ []core.Candidate) {}
func (n *noopMonitor) AfterRowFetch(_ []core.AnalyzedRow)     {}
func (n *noopMonitor) Finish(_ *core.RetrievalResult)         {}
