package enrich

import (
	"github.com/doctrace/citegraph/pkg/common"
	"github.com/doctrace/citegraph/pkg/query"
)

// Metadata is the flat, storage-ready projection of one chunk's place in
// the citation graph. It is meant to be merged into whatever metadata
// schema the downstream indexing system uses; this package only fixes the
// field names.
type Metadata struct {
	ChunkID string `json:"chunk_id"`

	CitedFigures    []string `json:"cited_figures"`
	CitedTables     []string `json:"cited_tables"`
	CitedEquations  []string `json:"cited_equations"`
	CitedChapters   []string `json:"cited_chapters"`
	CitedReferences []string `json:"cited_references"`

	TotalCitations int `json:"total_citations"`

	HasFigures    bool `json:"has_figures"`
	HasTables     bool `json:"has_tables"`
	HasEquations  bool `json:"has_equations"`
	HasChapters   bool `json:"has_chapters"`
	HasReferences bool `json:"has_references"`

	IsDense bool `json:"is_dense"`
}

// Enricher projects query results onto per-chunk metadata records. The
// density threshold is caller configuration, not a constant of the system.
type Enricher struct {
	engine           *query.Engine
	graph            *common.CitationGraph
	densityThreshold int
}

// NewEnricher creates an enricher over a finished graph.
func NewEnricher(g *common.CitationGraph, densityThreshold int) *Enricher {
	return &Enricher{
		engine:           query.NewEngine(g),
		graph:            g,
		densityThreshold: densityThreshold,
	}
}

// Enrich builds the metadata record for one chunk. A chunk with zero
// citations yields a record with empty lists and false flags; it never
// fails.
func (e *Enricher) Enrich(chunkID string) Metadata {
	m := Metadata{
		ChunkID:         chunkID,
		CitedFigures:    idsOf(e.graph, chunkID, common.EntityFigure),
		CitedTables:     idsOf(e.graph, chunkID, common.EntityTable),
		CitedEquations:  idsOf(e.graph, chunkID, common.EntityEquation),
		CitedChapters:   idsOf(e.graph, chunkID, common.EntityChapter),
		CitedReferences: idsOf(e.graph, chunkID, common.EntityReference),
	}

	m.TotalCitations = e.engine.CitationDensity(chunkID)
	m.HasFigures = len(m.CitedFigures) > 0
	m.HasTables = len(m.CitedTables) > 0
	m.HasEquations = len(m.CitedEquations) > 0
	m.HasChapters = len(m.CitedChapters) > 0
	m.HasReferences = len(m.CitedReferences) > 0
	m.IsDense = e.engine.IsDense(chunkID, e.densityThreshold)

	return m
}

// EnrichAll builds the metadata side channel for every processed chunk,
// keyed by chunk id.
func (e *Enricher) EnrichAll() map[string]Metadata {
	records := make(map[string]Metadata, len(e.graph.ChunkIDs))
	for _, chunkID := range e.graph.ChunkIDs {
		records[chunkID] = e.Enrich(chunkID)
	}
	return records
}

func idsOf(g *common.CitationGraph, chunkID string, t common.EntityType) []string {
	ids := g.Forward[chunkID][t]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
