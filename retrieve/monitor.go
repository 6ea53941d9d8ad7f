package retrieve

import (
	"github.com/appsage/appsage/core"
	"github.com/appsage/appsage/index"
)

// RetrievalMonitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps during retrieval,
// for example to show the raw index matches in a debugging UI.
type RetrievalMonitor interface {
	Start(query string)
	AfterQueryEmbedding(vector []float32)
	AfterIndexSearch(matches []index.Match)
	BelowThreshold(match index.Match)
	AfterHydration(insights []*core.Insight)
	Finish(qc *QueryContext)
}

// noopMonitor is a no-op implementation of RetrievalMonitor
type noopMonitor struct{}

var _ RetrievalMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                   {}
func (n *noopMonitor) AfterQueryEmbedding(_ []float32)  {}
func (n *noopMonitor) AfterIndexSearch(_ []index.Match) {}
func (n *noopMonitor) BelowThreshold(_ index.Match)     {}
func (n *noopMonitor) AfterHydration(_ []*core.Insight) {}
func (n *noopMonitor) Finish(_ *QueryContext)           {}
