package routes

import (
	"errors"
	"net/http"

	"github.com/doctrace/citegraph/internal/server/middleware"
	"github.com/doctrace/citegraph/pkg/common"
	"github.com/doctrace/citegraph/pkg/store"

	"github.com/labstack/echo/v4"
)

func GetDocumentsHandler(c echo.Context) error {
	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	docs, err := app.Store.ListDocuments(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, docs)
}

func GetGraphHandler(c echo.Context) error {
	type getGraphParams struct {
		DocumentID string `param:"id" validate:"required"`
	}

	params := new(getGraphParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
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

	return c.JSON(http.StatusOK, record.Document)
}

func GetValidationHandler(c echo.Context) error {
	type getValidationParams struct {
		DocumentID string `param:"id" validate:"required"`
	}

	type getValidationResponse struct {
		DocumentID string                  `json:"document_id"`
		Validation common.ValidationReport `json:"validation"`
	}

	params := new(getValidationParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	report, err := app.Store.GetValidation(ctx, params.DocumentID)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Graph not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, getValidationResponse{
		DocumentID: params.DocumentID,
		Validation: report,
	})
}
