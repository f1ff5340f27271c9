package store

import (
	"context"
	"errors"

	"github.com/doctrace/citegraph/pkg/common"
	"github.com/doctrace/citegraph/pkg/enrich"
)

// ErrNotFound is returned when no stored graph exists for a document.
var ErrNotFound = errors.New("graph not found")

// GraphRecord is one stored graph plus the chunk id list needed to rebuild
// the in-memory indices in their original order.
type GraphRecord struct {
	Document common.GraphDocument
	ChunkIDs []string
}

// GraphStore defines the interface for persisting and querying finished
// citation graphs. A rebuild of the same document replaces the previous
// graph atomically; readers never observe a partially written graph.
type GraphStore interface {
	SaveGraph(ctx context.Context, g *common.CitationGraph, enrichment map[string]enrich.Metadata) error

	GetGraph(ctx context.Context, documentID string) (*GraphRecord, error)
	GetValidation(ctx context.Context, documentID string) (common.ValidationReport, error)
	GetEnrichment(ctx context.Context, documentID string, chunkID string) (*enrich.Metadata, error)
	GetEntityChunks(ctx context.Context, documentID string, entityType common.EntityType, entityID string) ([]string, error)

	DeleteGraph(ctx context.Context, documentID string) error
	ListDocuments(ctx context.Context) ([]DocumentInfo, error)
}

// DocumentInfo is the summary row returned when listing stored graphs.
type DocumentInfo struct {
	DocumentID     string `json:"document_id"`
	TotalChunks    int    `json:"total_chunks"`
	TotalCitations int    `json:"total_citations"`
	BuiltAt        string `json:"built_at"`
}
