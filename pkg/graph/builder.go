package graph

import (
	"github.com/doctrace/citegraph/pkg/common"
)

// Builder accumulates per-chunk citations into the forward and reverse
// indices of a citation graph. It is the single owner of the indices during
// construction: callers feed it chunks serially (in input order) and take
// the finished, immutable graph from Finish.
//
// Insertion order is explicit everywhere. Id lists follow first-seen order,
// never map iteration order, so the same input always produces the same
// graph.
type Builder struct {
	documentID string
	chunkIDs   []string
	forward    map[string]map[common.EntityType][]string
	reverse    map[common.EntityType]map[string][]string
	entities   map[common.EntityType][]string
	edges      []common.Citation
}

// NewBuilder creates an empty builder for one document run.
func NewBuilder(documentID string) *Builder {
	return &Builder{
		documentID: documentID,
		chunkIDs:   make([]string, 0),
		forward:    make(map[string]map[common.EntityType][]string),
		reverse:    make(map[common.EntityType]map[string][]string),
		entities:   make(map[common.EntityType][]string),
		edges:      make([]common.Citation, 0),
	}
}

// AddChunk records a processed chunk and its aggregated citations. The
// chunk is registered even when it cited nothing, so that queries can tell
// "no citations" apart from "unknown chunk". The structure only grows; no
// entity id is ever removed.
func (b *Builder) AddChunk(chunkID string, citations []common.Citation) {
	b.chunkIDs = append(b.chunkIDs, chunkID)

	for _, c := range citations {
		byType, ok := b.forward[chunkID]
		if !ok {
			byType = make(map[common.EntityType][]string)
			b.forward[chunkID] = byType
		}
		if !contains(byType[c.Type], c.EntityID) {
			byType[c.Type] = append(byType[c.Type], c.EntityID)
		}

		byID, ok := b.reverse[c.Type]
		if !ok {
			byID = make(map[string][]string)
			b.reverse[c.Type] = byID
		}
		if _, seen := byID[c.EntityID]; !seen {
			b.entities[c.Type] = append(b.entities[c.Type], c.EntityID)
		}
		if !contains(byID[c.EntityID], chunkID) {
			byID[c.EntityID] = append(byID[c.EntityID], chunkID)
		}

		b.edges = append(b.edges, common.Citation{
			ChunkID:      chunkID,
			Type:         c.Type,
			EntityID:     c.EntityID,
			MentionCount: c.MentionCount,
		})
	}
}

// Finish validates the accumulated indices against the inventory and hands
// off the finished graph. The builder must not be reused afterwards.
func (b *Builder) Finish(inventory common.EntityInventory) *common.CitationGraph {
	g := &common.CitationGraph{
		DocumentID: b.documentID,
		ChunkIDs:   b.chunkIDs,
		Forward:    b.forward,
		Reverse:    b.reverse,
		Entities:   b.entities,
		Edges:      b.edges,
	}
	g.Validation = ValidateInventory(g, inventory)
	return g
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
