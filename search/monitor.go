package search

import "github.com/tmc/langchaingo/schema"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(fileName, query string)
	AfterSimilaritySearch(docs []schema.Document)
	VerbatimHit(result *Result)
	SemanticHit(result *Result)
	Finish(results []*Result)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_, _ string)                        {}
func (n *noopMonitor) AfterSimilaritySearch(_ []schema.Document) {}
func (n *noopMonitor) VerbatimHit(_ *Result)                     {}
func (n *noopMonitor) SemanticHit(_ *Result)                     {}
func (n *noopMonitor) Finish(_ []*Result)                        {}
