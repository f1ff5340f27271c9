package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/doctrace/citegraph/internal/queue"
	"github.com/doctrace/citegraph/internal/server/middleware"
	"github.com/doctrace/citegraph/pkg/store"

	"github.com/labstack/echo/v4"
)

func DeleteDocumentHandler(c echo.Context) error {
	type deleteDocumentParams struct {
		DocumentID string `param:"id" validate:"required"`
	}

	type deleteDocumentResponse struct {
		Message string `json:"message"`
	}

	params := new(deleteDocumentParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, deleteDocumentResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, deleteDocumentResponse{
			Message: "Invalid request params",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	if _, err := app.Store.GetGraph(ctx, params.DocumentID); errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, deleteDocumentResponse{
			Message: "Graph not found",
		})
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, deleteDocumentResponse{
			Message: "Internal server error",
		})
	}

	msg, err := json.Marshal(queue.QueueDeleteMsg{
		DocumentID:  params.DocumentID,
		ChunkSetKey: fmt.Sprintf("chunksets/%s.json", params.DocumentID),
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, deleteDocumentResponse{
			Message: "Internal server error",
		})
	}
	if err := queue.PublishFIFO(app.Queue, "delete_queue", msg); err != nil {
		return c.JSON(http.StatusInternalServerError, deleteDocumentResponse{
			Message: "Failed to enqueue delete",
		})
	}

	return c.JSON(http.StatusAccepted, deleteDocumentResponse{
		Message: "Delete queued",
	})
}
