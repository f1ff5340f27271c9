package graph

import (
	"context"
	"fmt"

	"github.com/doctrace/citegraph/pkg/cite"
	"github.com/doctrace/citegraph/pkg/common"
	"github.com/doctrace/citegraph/pkg/logger"

	"github.com/go-playground/validator"
	"golang.org/x/sync/errgroup"
)

// Client is the main entry point for building citation graphs. It manages
// the citation extractor and the extraction parallelism.
//
// A Client should be created using NewClient.
type Client struct {
	parallelChunks int
	extractor      *cite.Extractor
	validate       *validator.Validate
}

// NewClientParams defines the configuration parameters for creating a
// new Client.
//
// ParallelChunks controls how many chunks are scanned concurrently during
// extraction; aggregation is always serial. ExtractorConfig overrides the
// default lexical-cue tables of the extractor when set.
type NewClientParams struct {
	ParallelChunks  int
	ExtractorConfig *cite.Config
}

// NewClient creates and returns a new Client configured with the provided
// parameters.
//
// Example:
//
//	client, err := graph.NewClient(graph.NewClientParams{
//		ParallelChunks: 4,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
func NewClient(params NewClientParams) (*Client, error) {
	parallel := params.ParallelChunks
	if parallel <= 0 {
		parallel = 1
	}

	cfg := cite.DefaultConfig()
	if params.ExtractorConfig != nil {
		cfg = *params.ExtractorConfig
	}

	extractor, err := cite.NewExtractor(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create citation extractor: %w", err)
	}

	return &Client{
		parallelChunks: parallel,
		extractor:      extractor,
		validate:       validator.New(),
	}, nil
}

// BuildGraph runs the full pipeline for one document: it validates the
// input contract, extracts citations from every chunk, aggregates them into
// the bidirectional indices, and validates the result against the
// inventory. The returned graph is immutable; a new document run produces a
// wholly new graph.
//
// Extraction runs in parallel across chunks. Each worker writes only its
// own result slot, and a single aggregation pass merges the slots in input
// order, so the output is deterministic regardless of scheduling.
func (c *Client) BuildGraph(
	ctx context.Context,
	documentID string,
	chunks []common.Chunk,
	inventory common.EntityInventory,
) (*common.CitationGraph, error) {
	if err := c.checkInput(documentID, chunks, inventory); err != nil {
		return nil, err
	}

	logger.Info("[Graph] Building citation graph", "document_id", documentID, "total_chunks", len(chunks))

	results := make([][]common.Citation, len(chunks))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(c.parallelChunks)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		eg.Go(func() error {
			select {
			case <-gCtx.Done():
				return gCtx.Err()
			default:
				results[i] = c.extractor.Citations(chunk)
				return nil
			}
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to extract citations: %w", err)
	}

	builder := NewBuilder(documentID)
	for i, chunk := range chunks {
		builder.AddChunk(chunk.ID, results[i])
	}

	g := builder.Finish(inventory)

	for _, t := range common.EntityTypes() {
		if n := len(g.Validation[t].Orphaned); n > 0 {
			logger.Warn("[Graph] Orphaned citations found", "document_id", documentID, "entity_type", t, "orphaned", n)
		}
	}
	logger.Info("[Graph] Citation graph built", "document_id", documentID, "edges", len(g.Edges))

	return g, nil
}

// checkInput enforces the structural input contract before any processing.
// A violation is a fatal configuration error: the pipeline never produces a
// partially-built graph from invalid input.
func (c *Client) checkInput(documentID string, chunks []common.Chunk, inventory common.EntityInventory) error {
	if documentID == "" {
		return fmt.Errorf("document id is required")
	}

	seen := make(map[string]struct{}, len(chunks))
	for i, chunk := range chunks {
		if err := c.validate.Struct(chunk); err != nil {
			return fmt.Errorf("chunk at index %d violates the input contract: %w", i, err)
		}
		if _, dup := seen[chunk.ID]; dup {
			return fmt.Errorf("duplicate chunk id %q at index %d", chunk.ID, i)
		}
		seen[chunk.ID] = struct{}{}
	}

	for t := range inventory {
		if !t.Valid() {
			return fmt.Errorf("unknown entity type %q in inventory", t)
		}
	}

	return nil
}
