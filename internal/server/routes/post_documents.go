package routes

import (
	"encoding/json"
	"net/http"

	"github.com/doctrace/citegraph/internal/queue"
	"github.com/doctrace/citegraph/internal/server/middleware"
	"github.com/doctrace/citegraph/internal/storage"
	"github.com/doctrace/citegraph/internal/util"
	"github.com/doctrace/citegraph/pkg/common"
	"github.com/doctrace/citegraph/pkg/enrich"
	"github.com/doctrace/citegraph/pkg/graph"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// BuildDocumentHandler accepts a chunk set for a document, uploads it to
// object storage, and enqueues an asynchronous graph build. With sync=true
// the graph is built and stored inline instead. A rebuild of an already
// built document replaces the stored graph.
func BuildDocumentHandler(c echo.Context) error {
	type buildDocumentParams struct {
		DocumentID string                 `param:"id" validate:"required"`
		Sync       bool                   `query:"sync"`
		Chunks     []common.Chunk         `json:"chunks"`
		Inventory  common.EntityInventory `json:"inventory"`
	}

	type buildDocumentResponse struct {
		Message     string `json:"message"`
		RunID       string `json:"run_id,omitempty"`
		DocumentID  string `json:"document_id,omitempty"`
		ChunkSetKey string `json:"chunk_set_key,omitempty"`
	}

	params := new(buildDocumentParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, buildDocumentResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, buildDocumentResponse{
			Message: "Invalid request params",
		})
	}

	for t := range params.Inventory {
		if !t.Valid() {
			return c.JSON(http.StatusBadRequest, buildDocumentResponse{
				Message: "Unknown entity type in inventory: " + string(t),
			})
		}
	}
	seen := make(map[string]struct{}, len(params.Chunks))
	for _, chunk := range params.Chunks {
		if chunk.ID == "" {
			return c.JSON(http.StatusBadRequest, buildDocumentResponse{
				Message: "Chunk with empty id",
			})
		}
		if _, dup := seen[chunk.ID]; dup {
			return c.JSON(http.StatusBadRequest, buildDocumentResponse{
				Message: "Duplicate chunk id: " + chunk.ID,
			})
		}
		seen[chunk.ID] = struct{}{}
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	runID, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, buildDocumentResponse{
			Message: "Internal server error",
		})
	}

	if params.Sync {
		client, err := graph.NewClient(graph.NewClientParams{
			ParallelChunks: int(util.GetEnvNumeric("BUILD_PARALLEL", 4)),
		})
		if err != nil {
			return c.JSON(http.StatusInternalServerError, buildDocumentResponse{
				Message: "Internal server error",
			})
		}

		g, err := client.BuildGraph(ctx, params.DocumentID, params.Chunks, params.Inventory)
		if err != nil {
			return c.JSON(http.StatusBadRequest, buildDocumentResponse{
				Message: err.Error(),
			})
		}

		threshold := int(util.GetEnvNumeric("DENSITY_THRESHOLD", 3))
		metadata := enrich.NewEnricher(g, threshold).EnrichAll()
		if err := app.Store.SaveGraph(ctx, g, metadata); err != nil {
			return c.JSON(http.StatusInternalServerError, buildDocumentResponse{
				Message: "Failed to store graph",
			})
		}

		return c.JSON(http.StatusOK, buildDocumentResponse{
			Message:    "Graph built",
			RunID:      runID,
			DocumentID: params.DocumentID,
		})
	}

	set := common.ChunkSet{
		DocumentID: params.DocumentID,
		Chunks:     params.Chunks,
		Inventory:  params.Inventory,
	}
	key, err := util.Retry(3, func() (string, error) {
		return storage.PutChunkSet(ctx, app.S3, &set)
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, buildDocumentResponse{
			Message: "Failed to store chunk set",
		})
	}

	msg, err := json.Marshal(queue.QueueBuildMsg{
		DocumentID:  params.DocumentID,
		ChunkSetKey: key,
		RunID:       runID,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, buildDocumentResponse{
			Message: "Internal server error",
		})
	}
	if err := queue.PublishFIFO(app.Queue, "build_queue", msg); err != nil {
		return c.JSON(http.StatusInternalServerError, buildDocumentResponse{
			Message: "Failed to enqueue build",
		})
	}

	return c.JSON(http.StatusAccepted, buildDocumentResponse{
		Message:     "Build queued",
		RunID:       runID,
		DocumentID:  params.DocumentID,
		ChunkSetKey: key,
	})
}
