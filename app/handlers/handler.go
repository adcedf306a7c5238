package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Rakhulsr/go-portal/app/helpers"
	"github.com/Rakhulsr/go-portal/app/middlewares"
	"github.com/Rakhulsr/go-portal/app/models"
	"github.com/Rakhulsr/go-portal/app/models/other"
	"github.com/Rakhulsr/go-portal/app/repositories"
	"github.com/Rakhulsr/go-portal/app/services"
	"github.com/Rakhulsr/go-portal/app/utils/renderer"
	"github.com/rs/zerolog/hlog"
	"github.com/samber/lo"
	"github.com/unrolled/render"
)

const (
	invalidChoiceMessage = "Select a valid choice. That choice is not one of the available choices."
	multipartMemory      = services.MaxUploadSize + 1<<20
)

// idFilters name the list filters that select by primary key.
var idFilters = map[string]bool{"topic": true, "parent_topic": true, "manufacturer": true}

// listRequest reads search, filters, sort and page from the query string.
func listRequest(r *http.Request, pageSize int, defaultSort string, filters ...string) (repositories.ListQuery, int) {
	q := r.URL.Query()
	page := helpers.PageFromRequest(r)
	lq := repositories.ListQuery{
		Search:  strings.TrimSpace(q.Get("search")),
		Filters: make(map[string]string, len(filters)),
		Sort:    q.Get("sort"),
		Limit:   pageSize,
		Offset:  helpers.PageOffset(page, pageSize),
	}
	if lq.Sort == "" {
		lq.Sort = defaultSort
	}
	for _, f := range filters {
		v := strings.TrimSpace(q.Get(f))
		if v == "" {
			continue
		}
		if idFilters[f] {
			id, err := helpers.ParseOptionalUint(v)
			if err != nil {
				continue
			}
			v = idString(*id)
		}
		lq.Filters[f] = v
	}
	return lq, page
}

// runList retries with the default ordering when the requested sort key
// is not allowed, and moves back to the last page when page is too far.
func runList[T any](r *http.Request, lq repositories.ListQuery, page int, defaultSort string, fetch func(repositories.ListQuery) ([]T, int64, error)) ([]T, other.Pagination, error) {
	items, total, err := fetch(lq)
	if errors.Is(err, repositories.ErrInvalidSort) {
		lq.Sort = defaultSort
		items, total, err = fetch(lq)
	}
	if err != nil {
		return nil, other.Pagination{}, err
	}
	pagination := helpers.NewPagination(page, lq.Limit, total)
	if pagination.Page != page {
		lq.Offset = helpers.PageOffset(pagination.Page, lq.Limit)
		if items, _, err = fetch(lq); err != nil {
			return nil, other.Pagination{}, err
		}
	}
	return items, pagination, nil
}

// renderList renders the table fragment for htmx requests and the full
// page otherwise.
func renderList(rnd *render.Render, w http.ResponseWriter, r *http.Request, page, fragment string, data any) {
	if helpers.IsPartialRequest(r) {
		rnd.HTML(w, http.StatusOK, fragment, data, render.HTMLOptions{Layout: renderer.PartialLayout})
		return
	}
	rnd.HTML(w, http.StatusOK, page, data)
}

// renderServiceError answers a failed service call with the matching
// error page.
func renderServiceError(rnd *render.Render, w http.ResponseWriter, r *http.Request, where string, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrReferenceNotFound):
		middlewares.NotFound(rnd, w, r)
	case errors.Is(err, services.ErrPermissionDenied), errors.Is(err, services.ErrNotOwner):
		middlewares.Forbidden(rnd, w, r)
	default:
		hlog.FromRequest(r).Error().Err(err).Msg(where + ": request failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// formErrors extracts per-field messages from err. It reports false for
// errors that are not about the submitted input.
func formErrors(err error) (map[string]string, bool) {
	var verrs services.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs.ByField(), true
	}
	var refErr *services.ReferenceError
	if errors.As(err, &refErr) {
		return map[string]string{refErr.Field: invalidChoiceMessage}, true
	}
	return nil, false
}

// optionalID parses a select value, recording a field error when it is
// not a valid id.
func optionalID(raw, field string, errs map[string]string) *uint {
	id, err := helpers.ParseOptionalUint(raw)
	if err != nil {
		errs[field] = invalidChoiceMessage
		return nil
	}
	return id
}

func idString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func optionalIDString(id *uint) string {
	if id == nil {
		return ""
	}
	return idString(*id)
}

func topicOptions(topics []models.Topic, selected string, exclude uint) []other.SelectOption {
	topics = lo.Filter(topics, func(t models.Topic, _ int) bool { return t.ID != exclude })
	return lo.Map(topics, func(t models.Topic, _ int) other.SelectOption {
		return other.SelectOption{Value: idString(t.ID), Label: t.Name, Selected: idString(t.ID) == selected}
	})
}

func postOptions(posts []models.BlogPost, selected string, exclude uint) []other.SelectOption {
	posts = lo.Filter(posts, func(p models.BlogPost, _ int) bool { return p.ID != exclude })
	return lo.Map(posts, func(p models.BlogPost, _ int) other.SelectOption {
		return other.SelectOption{Value: idString(p.ID), Label: p.Title, Selected: idString(p.ID) == selected}
	})
}

func manufacturerOptions(manufacturers []models.Manufacturer, selected string) []other.SelectOption {
	return lo.Map(manufacturers, func(m models.Manufacturer, _ int) other.SelectOption {
		return other.SelectOption{Value: idString(m.ID), Label: m.Name, Selected: idString(m.ID) == selected}
	})
}

func statusOptions(selected string) []other.SelectOption {
	return lo.Map(models.TaskStatusChoices, func(s models.TaskStatus, _ int) other.SelectOption {
		return other.SelectOption{Value: string(s), Label: s.Label(), Selected: string(s) == selected}
	})
}

// formUpload returns the uploaded file for field, or nil when none was sent.
func formUpload(r *http.Request, field string) (*services.Upload, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, nil
	}
	fh := r.MultipartForm.File[field][0]
	if fh.Size == 0 && fh.Filename == "" {
		return nil, nil
	}
	return services.UploadFromFileHeader(fh)
}

// parseForm accepts both urlencoded and multipart submissions.
func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(multipartMemory)
	}
	return r.ParseForm()
}

// uploadError converts a failed upload read into a form error.
func uploadError(err error, field string, errs map[string]string) error {
	if errors.Is(err, services.ErrUploadTooLarge) {
		errs[field] = "The uploaded file is too large."
		return nil
	}
	return err
}
