package routes

import (
	"errors"
	"net/http"

	"github.com/doctrace/citegraph/internal/server/middleware"
	"github.com/doctrace/citegraph/pkg/common"
	"github.com/doctrace/citegraph/pkg/enrich"
	"github.com/doctrace/citegraph/pkg/graph"
	"github.com/doctrace/citegraph/pkg/query"
	"github.com/doctrace/citegraph/pkg/store"

	"github.com/labstack/echo/v4"
)

func GetEntityChunksHandler(c echo.Context) error {
	type getEntityChunksParams struct {
		DocumentID string `param:"id" validate:"required"`
		EntityType string `param:"type" validate:"required"`
		EntityID   string `param:"entity_id" validate:"required"`
	}

	type getEntityChunksResponse struct {
		DocumentID string   `json:"document_id"`
		EntityType string   `json:"entity_type"`
		EntityID   string   `json:"entity_id"`
		ChunkIDs   []string `json:"chunk_ids"`
	}

	params := new(getEntityChunksParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	entityType := common.EntityType(params.EntityType)
	if !entityType.Valid() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown entity type: " + params.EntityType})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	chunkIDs, err := app.Store.GetEntityChunks(ctx, params.DocumentID, entityType, params.EntityID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	if len(chunkIDs) == 0 {
		// Distinguish an unknown document from an uncited entity.
		if _, err := app.Store.GetGraph(ctx, params.DocumentID); errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Graph not found"})
		} else if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		}
	}

	return c.JSON(http.StatusOK, getEntityChunksResponse{
		DocumentID: params.DocumentID,
		EntityType: params.EntityType,
		EntityID:   params.EntityID,
		ChunkIDs:   chunkIDs,
	})
}

func GetCoCitedHandler(c echo.Context) error {
	type getCoCitedParams struct {
		DocumentID string `param:"id" validate:"required"`
		ChunkID    string `param:"chunk_id" validate:"required"`
		MinOverlap int    `query:"min_overlap"`
	}

	type getCoCitedResponse struct {
		DocumentID string             `json:"document_id"`
		ChunkID    string             `json:"chunk_id"`
		MinOverlap int                `json:"min_overlap"`
		CoCited    []query.CoCitation `json:"co_cited"`
	}

	params := new(getCoCitedParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if params.MinOverlap <= 0 {
		params.MinOverlap = 1
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	record, err := app.Store.GetGraph(ctx, params.DocumentID)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Graph not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	g := graph.FromDocument(record.Document, record.ChunkIDs)
	if !g.HasChunk(params.ChunkID) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Chunk not found"})
	}

	engine := query.NewEngine(g)
	coCited := engine.CoCitedChunks(params.ChunkID, params.MinOverlap)

	return c.JSON(http.StatusOK, getCoCitedResponse{
		DocumentID: params.DocumentID,
		ChunkID:    params.ChunkID,
		MinOverlap: params.MinOverlap,
		CoCited:    coCited,
	})
}

func GetEnrichmentHandler(c echo.Context) error {
	type getEnrichmentParams struct {
		DocumentID string `param:"id" validate:"required"`
		ChunkID    string `param:"chunk_id" validate:"required"`
		Threshold  int    `query:"threshold"`
	}

	params := new(getEnrichmentParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	// A custom density threshold needs the record recomputed from the
	// stored graph; otherwise the precomputed record is served as is.
	if params.Threshold > 0 {
		record, err := app.Store.GetGraph(ctx, params.DocumentID)
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Graph not found"})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		}

		g := graph.FromDocument(record.Document, record.ChunkIDs)
		if !g.HasChunk(params.ChunkID) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Chunk not found"})
		}

		meta := enrich.NewEnricher(g, params.Threshold).Enrich(params.ChunkID)
		return c.JSON(http.StatusOK, meta)
	}

	meta, err := app.Store.GetEnrichment(ctx, params.DocumentID, params.ChunkID)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Enrichment not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, meta)
}
