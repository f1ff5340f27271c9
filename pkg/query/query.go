package query

import (
	"sort"

	"github.com/doctrace/citegraph/pkg/common"
)

// Engine is the read-only query surface over a finished citation graph.
// The graph is frozen after construction, so an Engine may be shared by
// arbitrarily many concurrent readers without locking.
type Engine struct {
	graph *common.CitationGraph
}

// NewEngine creates a query engine over the given graph.
func NewEngine(g *common.CitationGraph) *Engine {
	return &Engine{graph: g}
}

// CoCitation is one co-citation result: another chunk together with the
// number of entities it shares with the queried chunk.
type CoCitation struct {
	ChunkID        string `json:"chunk_id"`
	SharedEntities int    `json:"shared_entities"`
}

// ChunksCiting returns the chunks citing the given entity in first-seen
// chunk order. An entity that was never cited yields an empty result, not
// an error.
func (e *Engine) ChunksCiting(t common.EntityType, entityID string) []string {
	return e.graph.ChunksCiting(t, entityID)
}

// CoCitedChunks ranks every other chunk by the number of cited entities
// shared with the given chunk, as (type, id) pairs. Only chunks meeting
// minOverlap are kept. The result is sorted descending by overlap with a
// stable ascending tie-break on chunk id, so rankings are deterministic.
func (e *Engine) CoCitedChunks(chunkID string, minOverlap int) []CoCitation {
	own := make(map[common.EntityRef]struct{})
	for _, ref := range e.graph.EntityRefs(chunkID) {
		own[ref] = struct{}{}
	}

	results := make([]CoCitation, 0)
	for _, other := range e.graph.ChunkIDs {
		if other == chunkID {
			continue
		}

		shared := 0
		for _, ref := range e.graph.EntityRefs(other) {
			if _, ok := own[ref]; ok {
				shared++
			}
		}

		if shared >= minOverlap {
			results = append(results, CoCitation{ChunkID: other, SharedEntities: shared})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].SharedEntities != results[j].SharedEntities {
			return results[i].SharedEntities > results[j].SharedEntities
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	return results
}

// CitationDensity returns the number of distinct (type, id) pairs cited by
// the chunk, regardless of how often each was mentioned.
func (e *Engine) CitationDensity(chunkID string) int {
	return len(e.graph.EntityRefs(chunkID))
}

// IsDense reports whether the chunk cites more distinct entities than the
// caller-supplied threshold.
func (e *Engine) IsDense(chunkID string, threshold int) bool {
	return e.CitationDensity(chunkID) > threshold
}
