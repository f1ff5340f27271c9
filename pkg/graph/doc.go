package graph

import (
	"github.com/doctrace/citegraph/pkg/common"
)

// NewGraphDocument projects a finished graph onto the serializable output
// contract handed to the downstream storage stage. Running it twice over
// the same graph yields byte-identical JSON: list ordering comes from the
// graph's explicit insertion order and map keys are sorted by the encoder.
func NewGraphDocument(g *common.CitationGraph) common.GraphDocument {
	byType := make(map[common.EntityType]int, len(common.EntityTypes()))
	uniqueByType := make(map[common.EntityType]int, len(common.EntityTypes()))
	for _, t := range common.EntityTypes() {
		byType[t] = 0
		uniqueByType[t] = len(g.Entities[t])
	}
	for _, e := range g.Edges {
		byType[e.Type]++
	}

	return common.GraphDocument{
		DocumentID:  g.DocumentID,
		TotalChunks: len(g.ChunkIDs),
		CitationStats: common.CitationStats{
			TotalCitations:      len(g.Edges),
			ByType:              byType,
			UniqueObjectsByType: uniqueByType,
		},
		CitationsByChunk:  g.Forward,
		CitationsByObject: g.Reverse,
		CrossReferences:   g.Edges,
		Validation:        g.Validation,
	}
}

// FromDocument rebuilds an in-memory graph from a stored document. The
// chunk id list must be the original input order (it also carries the
// chunks that cited nothing, which the output contract omits). The edge
// list is replayed through a fresh builder so all insertion orders match
// the original build.
func FromDocument(doc common.GraphDocument, chunkIDs []string) *common.CitationGraph {
	perChunk := make(map[string][]common.Citation, len(chunkIDs))
	for _, e := range doc.CrossReferences {
		perChunk[e.ChunkID] = append(perChunk[e.ChunkID], e)
	}

	b := NewBuilder(doc.DocumentID)
	for _, id := range chunkIDs {
		b.AddChunk(id, perChunk[id])
	}

	g := b.Finish(nil)
	g.Validation = doc.Validation
	return g
}
