package search

import (
	"github.com/poiesic/docqa/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	SideDegraded(side string, err error)
	AfterSemanticSearch(matches []core.ChunkMatch)
	AfterKeywordSearch(matches []core.ChunkMatch)
	Finish(results []*core.RankedChunk)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                          {}
func (n *noopMonitor) SideDegraded(_ string, _ error)          {}
func (n *noopMonitor) AfterSemanticSearch(_ []core.ChunkMatch) {}
func (n *noopMonitor) AfterKeywordSearch(_ []core.ChunkMatch)  {}
func (n *noopMonitor) Finish(_ []*core.RankedChunk)            {}
