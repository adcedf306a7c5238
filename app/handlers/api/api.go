// Package api serves the bearer-token JSON API mounted under /api/v1.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Rakhulsr/go-portal/app/repositories"
	"github.com/Rakhulsr/go-portal/app/services"
	"github.com/rs/zerolog/hlog"
	"github.com/unrolled/render"
)

const (
	MaxLimit = 100

	msgPermissionDenied = "You do not have permission to perform this action."
	msgNotFound         = "Not Found"
	msgServerError      = "Internal Server Error"
)

type Handler struct {
	render   *render.Render
	blog     *services.BlogService
	tasks    *services.TaskService
	catalog  *services.CatalogService
	pageSize int
}

func NewHandler(r *render.Render, blog *services.BlogService, tasks *services.TaskService, catalog *services.CatalogService, pageSize int) *Handler {
	return &Handler{render: r, blog: blog, tasks: tasks, catalog: catalog, pageSize: pageSize}
}

type Message struct {
	Message string `json:"message"`
}

type Success struct {
	Success bool `json:"success"`
}

// Page is the envelope of every list response. Count is the number of
// matching rows before limit and offset are applied.
type Page[T any] struct {
	Items []T   `json:"items"`
	Count int64 `json:"count"`
}

func (h *Handler) message(w http.ResponseWriter, status int, msg string) {
	h.render.JSON(w, status, Message{Message: msg})
}

// fail writes the response for a failed request. loc prefixes the field
// name of validation errors raised by the service layer.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, where string, err error, loc ...string) {
	var details Details
	var verrs services.ValidationErrors
	var refErr *services.ReferenceError

	switch {
	case errors.As(err, &details):
		h.render.JSON(w, http.StatusUnprocessableEntity, ValidationBody{Detail: details})
	case errors.As(err, &verrs):
		h.render.JSON(w, http.StatusUnprocessableEntity, ValidationBody{Detail: fromValidation(verrs, loc)})
	case errors.As(err, &refErr), errors.Is(err, services.ErrNotFound):
		h.message(w, http.StatusNotFound, msgNotFound)
	case errors.Is(err, services.ErrPermissionDenied), errors.Is(err, services.ErrNotOwner):
		h.message(w, http.StatusUnauthorized, msgPermissionDenied)
	case errors.Is(err, repositories.ErrInvalidSort):
		h.render.JSON(w, http.StatusUnprocessableEntity, ValidationBody{Detail: Details{{
			Type: "value_error",
			Loc:  []string{"query", "sort"},
			Msg:  "Value error, " + err.Error(),
		}}})
	default:
		hlog.FromRequest(r).Error().Err(err).Msg(where + ": request failed")
		h.message(w, http.StatusInternalServerError, msgServerError)
	}
}

// NotFound answers unknown API paths with the JSON not found body.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.message(w, http.StatusNotFound, msgNotFound)
}

// listQuery reads sort, limit and offset plus the named filters. A query
// key differing from its filter key is written as "param=filter".
func (h *Handler) listQuery(r *http.Request, filters map[string]string) (repositories.ListQuery, error) {
	q := r.URL.Query()
	lq := repositories.ListQuery{
		Sort:    q.Get("sort"),
		Limit:   h.pageSize,
		Filters: make(map[string]string, len(filters)),
	}
	if lq.Sort == "" {
		lq.Sort = "id"
	}

	var details Details
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			details = append(details, intParsing("query", "limit"))
		case limit < 1:
			details = append(details, Detail{
				Type: "greater_than_equal",
				Loc:  []string{"query", "limit"},
				Msg:  "Input should be greater than or equal to 1",
			})
		default:
			lq.Limit = min(limit, MaxLimit)
		}
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			details = append(details, intParsing("query", "offset"))
		case offset < 0:
			details = append(details, Detail{
				Type: "greater_than_equal",
				Loc:  []string{"query", "offset"},
				Msg:  "Input should be greater than or equal to 0",
			})
		default:
			lq.Offset = offset
		}
	}
	if len(details) > 0 {
		return lq, details
	}

	for param, filter := range filters {
		if v := q.Get(param); v != "" {
			lq.Filters[filter] = v
		}
	}
	return lq, nil
}
