package common

// EntityType identifies one of the structural entity kinds catalogued by the
// upstream extraction stage. The enumeration is closed: new kinds are added
// by defining a new constant together with an extraction rule, never inferred
// at runtime.
type EntityType string

const (
	EntityFigure    EntityType = "figure"
	EntityTable     EntityType = "table"
	EntityEquation  EntityType = "equation"
	EntityChapter   EntityType = "chapter"
	EntityReference EntityType = "reference"
)

// EntityTypes returns all entity types in their canonical order. The order is
// fixed and used wherever per-type output has to be deterministic.
func EntityTypes() []EntityType {
	return []EntityType{
		EntityFigure,
		EntityTable,
		EntityEquation,
		EntityChapter,
		EntityReference,
	}
}

// Valid reports whether t is one of the known entity types.
func (t EntityType) Valid() bool {
	switch t {
	case EntityFigure, EntityTable, EntityEquation, EntityChapter, EntityReference:
		return true
	}
	return false
}

// Chunk is an opaque unit of document text produced by the upstream chunking
// stage. It is owned by the caller and never mutated by this module.
type Chunk struct {
	ID       string         `json:"id" validate:"required"`
	Text     string         `json:"text"`
	Page     int            `json:"page"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// EntityInventory maps each entity type to the identifiers known to exist in
// the document. It is a read-only input to validation.
type EntityInventory map[EntityType][]string

// Citation is one aggregated reference from a chunk to an entity.
// MentionCount is the number of times the (type, id) pair was matched inside
// the chunk's text.
type Citation struct {
	ChunkID      string     `json:"from_chunk"`
	Type         EntityType `json:"entity_type"`
	EntityID     string     `json:"entity_id"`
	MentionCount int        `json:"mention_count"`
}

// EntityRef is a (type, id) pair identifying one entity.
type EntityRef struct {
	Type EntityType `json:"entity_type"`
	ID   string     `json:"entity_id"`
}

// CitationGraph is the finished bidirectional citation index for one
// document. It is built once by the graph builder and must be treated as
// read-only afterwards; concurrent readers need no locking.
//
// All slices preserve first-seen insertion order so that repeated runs over
// the same input produce byte-identical serialized output.
type CitationGraph struct {
	DocumentID string `json:"document_id"`

	// ChunkIDs lists every processed chunk in input order, including chunks
	// that produced no citations.
	ChunkIDs []string `json:"chunk_ids"`

	// Forward maps chunk id -> entity type -> cited entity ids.
	Forward map[string]map[EntityType][]string `json:"forward"`

	// Reverse maps entity type -> entity id -> citing chunk ids.
	Reverse map[EntityType]map[string][]string `json:"reverse"`

	// Entities lists the cited entity ids per type in first-seen order.
	Entities map[EntityType][]string `json:"entities"`

	// Edges is the flat edge list, one record per (chunk, type, id) with its
	// mention count, in aggregation order.
	Edges []Citation `json:"edges"`

	Validation ValidationReport `json:"validation"`
}

// ChunksCiting returns the chunk ids citing the given entity, in first-seen
// chunk order. The result is nil-safe for unknown entities.
func (g *CitationGraph) ChunksCiting(t EntityType, entityID string) []string {
	byID, ok := g.Reverse[t]
	if !ok {
		return nil
	}
	return byID[entityID]
}

// EntityRefs returns the distinct entities cited by a chunk as (type, id)
// pairs, ordered by canonical entity type and then first-seen id.
func (g *CitationGraph) EntityRefs(chunkID string) []EntityRef {
	byType, ok := g.Forward[chunkID]
	if !ok {
		return nil
	}

	var refs []EntityRef
	for _, t := range EntityTypes() {
		for _, id := range byType[t] {
			refs = append(refs, EntityRef{Type: t, ID: id})
		}
	}
	return refs
}

// HasChunk reports whether the chunk id was part of the processed input.
func (g *CitationGraph) HasChunk(chunkID string) bool {
	for _, id := range g.ChunkIDs {
		if id == chunkID {
			return true
		}
	}
	return false
}

// TypeValidation holds the inventory cross-check result for one entity type.
// Orphaned ids point at an upstream extraction defect or a pattern
// false positive; unused ids are expected whenever the inventory spans
// document sections outside the current chunk set.
type TypeValidation struct {
	Matched   []string `json:"matched"`
	Orphaned  []string `json:"orphaned"`
	Unused    []string `json:"unused"`
	MatchRate float64  `json:"match_rate"`
}

// ValidationReport maps each entity type to its validation result. Every
// known entity type has an entry, even when nothing was cited or inventoried.
type ValidationReport map[EntityType]TypeValidation

// CitationStats summarizes a graph's edge list for the output document.
type CitationStats struct {
	TotalCitations      int                `json:"total_citations"`
	ByType              map[EntityType]int `json:"by_type"`
	UniqueObjectsByType map[EntityType]int `json:"unique_objects_by_type"`
}

// GraphDocument is the serializable output contract handed to the downstream
// storage and indexing stage.
type GraphDocument struct {
	DocumentID        string                             `json:"document_id"`
	TotalChunks       int                                `json:"total_chunks"`
	CitationStats     CitationStats                      `json:"citation_stats"`
	CitationsByChunk  map[string]map[EntityType][]string `json:"citations_by_chunk"`
	CitationsByObject map[EntityType]map[string][]string `json:"citations_by_object"`
	CrossReferences   []Citation                         `json:"cross_references"`
	Validation        ValidationReport                   `json:"validation"`
}

// ChunkSet is the input contract from the upstream chunking and extraction
// stage: the ordered chunk list plus the known entity inventory.
type ChunkSet struct {
	DocumentID string          `json:"document_id" validate:"required"`
	Chunks     []Chunk         `json:"chunks"`
	Inventory  EntityInventory `json:"inventory"`
}
