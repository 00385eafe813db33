// ABOUTME: Echo handlers serving a record store over the hosted record API
// ABOUTME: Lets one instance act as the remote backend for another

package remote

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/harperreed/dealdeck/recordstore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type handler struct {
	store recordstore.Store
}

// RegisterRoutes mounts the record API on g, for example under /api/v1.
// Every request must carry "Authorization: Bearer <token>". An empty token
// refuses all requests.
func RegisterRoutes(g *echo.Group, store recordstore.Store, token string) {
	h := &handler{store: store}
	records := g.Group("/records", middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		Validator: func(key string, c echo.Context) (bool, error) {
			return token != "" && subtle.ConstantTimeCompare([]byte(key), []byte(token)) == 1, nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			return fail(c, http.StatusUnauthorized, CodeUnauthorized, "missing or invalid token")
		},
	}))
	records.POST("/:table/fetch", h.fetch)
	records.GET("/:table/:id", h.get)
	records.POST("/:table", h.create)
	records.PUT("/:table", h.update)
	records.DELETE("/:table", h.delete)
}

func fail(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, envelope{Success: false, Code: code, Message: msg})
}

func storeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, recordstore.ErrUnknownTable):
		return fail(c, http.StatusBadRequest, CodeUnknownTable, err.Error())
	case errors.Is(err, recordstore.ErrRecordNotFound):
		return fail(c, http.StatusNotFound, recordstore.CodeNotFound, err.Error())
	case errors.Is(err, recordstore.ErrInvalidRecord):
		return fail(c, http.StatusBadRequest, recordstore.CodeInvalid, err.Error())
	}
	return fail(c, http.StatusInternalServerError, recordstore.CodeFailed, err.Error())
}

func (h *handler) fetch(c echo.Context) error {
	var q recordstore.Query
	if err := (&echo.DefaultBinder{}).BindBody(c, &q); err != nil {
		return fail(c, http.StatusBadRequest, CodeBadRequest, "invalid query body")
	}
	records, err := h.store.FetchRecords(c.Request().Context(), c.Param("table"), q)
	if err != nil {
		return storeError(c, err)
	}
	if records == nil {
		records = []recordstore.Record{}
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "data": records})
}

func (h *handler) get(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, CodeBadRequest, "invalid id")
	}
	var q recordstore.Query
	if fields := c.QueryParam("fields"); fields != "" {
		q.Fields = strings.Split(fields, ",")
	}
	record, err := h.store.GetRecordByID(c.Request().Context(), c.Param("table"), id, q)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "data": record})
}

func (h *handler) create(c echo.Context) error {
	var body recordsBody
	if err := (&echo.DefaultBinder{}).BindBody(c, &body); err != nil {
		return fail(c, http.StatusBadRequest, CodeBadRequest, "invalid records body")
	}
	result, err := h.store.CreateRecords(c.Request().Context(), c.Param("table"), body.Records)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, envelope{Success: true, Results: result.Outcomes})
}

func (h *handler) update(c echo.Context) error {
	var body recordsBody
	if err := (&echo.DefaultBinder{}).BindBody(c, &body); err != nil {
		return fail(c, http.StatusBadRequest, CodeBadRequest, "invalid records body")
	}
	result, err := h.store.UpdateRecords(c.Request().Context(), c.Param("table"), body.Records)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, envelope{Success: true, Results: result.Outcomes})
}

func (h *handler) delete(c echo.Context) error {
	var body idsBody
	if err := (&echo.DefaultBinder{}).BindBody(c, &body); err != nil {
		return fail(c, http.StatusBadRequest, CodeBadRequest, "invalid recordIds body")
	}
	result, err := h.store.DeleteRecords(c.Request().Context(), c.Param("table"), body.RecordIDs)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, envelope{Success: true, Results: result.Outcomes})
}
