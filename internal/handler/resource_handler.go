package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "carservice/internal/errors"
	"carservice/internal/model"
	"carservice/internal/pagination"
	"carservice/internal/render"
	"carservice/internal/resource"
	"carservice/internal/service"
)

// ResourceHandler serves list, add, update and delete pages for any schema.
type ResourceHandler struct {
	base
	pageSize int
}

// NewResourceHandler creates a new resource handler.
func NewResourceHandler(api API, authService service.AuthService, pageSize int, cookieName string, logger *slog.Logger) *ResourceHandler {
	return &ResourceHandler{base: newBase(api, authService, cookieName, logger), pageSize: pageSize}
}

// ListData is the list template model.
type ListData struct {
	Schema        *resource.Schema
	View          pagination.View
	Filter        string
	FilterOptions []model.Option
}

// PageURL links to page n of the same list.
func (d ListData) PageURL(n int) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(n))
	if d.Filter != "" {
		q.Set("filter", d.Filter)
	}
	return d.Schema.BasePath() + "?" + q.Encode()
}

// FormField is one rendered input.
type FormField struct {
	Field   resource.Field
	Value   string
	Options []model.Option
}

// FormData is the add/update template model.
type FormData struct {
	Schema *resource.Schema
	Create bool
	Action string
	Cancel string
	Fields []FormField
}

// ConfirmData is the delete confirmation template model.
type ConfirmData struct {
	Schema *resource.Schema
	ID     string
	Action string
	Cancel string
}

// List renders one page of s. Only AuthExpired leaves the page; any other failure
// renders the table in its error state.
func (h *ResourceHandler) List(s *resource.Schema) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		tok := token(c)
		filter := c.QueryParam("filter")

		coll := pagination.NewCollection(s.Fetcher(h.api, tok), h.pageSize).
			Seed(pageParam(c)).
			Filter(filter)
		defer coll.Close()

		err := coll.Load(ctx)
		if apperrors.IsAuthExpired(err) {
			return h.expired(c)
		}

		data := ListData{Schema: s, View: coll.View(s.Columns, s.Actions()), Filter: filter}
		if s.Filter != nil {
			opts, optErr := h.api.Options(ctx, tok, s.Filter.Path, s.Filter.ValueKey, s.Filter.LabelKey)
			if apperrors.IsAuthExpired(optErr) {
				return h.expired(c)
			}
			data.FilterOptions = opts
		}
		return h.render(c, statusFor(err), "list.html", render.Page{Title: s.Title, Data: data})
	}
}

// New renders the add form.
func (h *ResourceHandler) New(s *resource.Schema) echo.HandlerFunc {
	return func(c echo.Context) error {
		return h.form(c, s, true, "", nil, http.StatusOK, "")
	}
}

// Create validates the form, then posts it. Validation failures never reach the backend.
func (h *ResourceHandler) Create(s *resource.Schema) echo.HandlerFunc {
	return func(c echo.Context) error {
		values := formValues(c, s, true)
		payload, err := s.Payload(values, true)
		if err != nil {
			return h.form(c, s, true, "", values, statusFor(err), apperrors.UserMessage(err))
		}
		msg, err := h.api.Create(c.Request().Context(), token(c), s.CreatePath, "add "+s.Singular, payload)
		if err != nil {
			if apperrors.IsAuthExpired(err) {
				return h.expired(c)
			}
			return h.form(c, s, true, "", values, statusFor(err), apperrors.UserMessage(err))
		}
		return c.Redirect(http.StatusSeeOther, withNotice(s.BasePath(), msg))
	}
}

// Edit renders the update form prefilled from the backend record.
func (h *ResourceHandler) Edit(s *resource.Schema) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		rec, err := h.api.Get(c.Request().Context(), token(c), s.GetURL(id), "load "+s.Singular)
		if err != nil {
			if apperrors.IsAuthExpired(err) {
				return h.expired(c)
			}
			return h.form(c, s, false, id, nil, statusFor(err), apperrors.UserMessage(err))
		}
		return h.form(c, s, false, id, s.Prefill(rec), http.StatusOK, "")
	}
}

// Update validates the form, then puts it.
func (h *ResourceHandler) Update(s *resource.Schema) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		values := formValues(c, s, false)
		payload, err := s.Payload(values, false)
		if err != nil {
			return h.form(c, s, false, id, values, statusFor(err), apperrors.UserMessage(err))
		}
		msg, err := h.api.Update(c.Request().Context(), token(c), s.UpdateURL(id), "update "+s.Singular, payload)
		if err != nil {
			if apperrors.IsAuthExpired(err) {
				return h.expired(c)
			}
			return h.form(c, s, false, id, values, statusFor(err), apperrors.UserMessage(err))
		}
		return c.Redirect(http.StatusSeeOther, withNotice(s.BasePath(), msg))
	}
}

// ConfirmDelete asks before deleting.
func (h *ResourceHandler) ConfirmDelete(s *resource.Schema) echo.HandlerFunc {
	return func(c echo.Context) error {
		return h.confirm(c, s, http.StatusOK, "")
	}
}

// Delete removes the record and returns to the list.
func (h *ResourceHandler) Delete(s *resource.Schema) echo.HandlerFunc {
	return func(c echo.Context) error {
		msg, err := h.api.Delete(c.Request().Context(), token(c), s.DeleteURL(c.Param("id")), "delete "+s.Singular)
		if err != nil {
			if apperrors.IsAuthExpired(err) {
				return h.expired(c)
			}
			return h.confirm(c, s, statusFor(err), apperrors.UserMessage(err))
		}
		return c.Redirect(http.StatusSeeOther, withNotice(s.BasePath(), msg))
	}
}

func (h *ResourceHandler) confirm(c echo.Context, s *resource.Schema, status int, errMsg string) error {
	id := c.Param("id")
	data := ConfirmData{
		Schema: s,
		ID:     id,
		Action: s.BasePath() + "/" + url.PathEscape(id) + "/delete",
		Cancel: s.BasePath(),
	}
	return h.render(c, status, "confirm.html", render.Page{Title: "Delete " + s.Singular, Error: errMsg, Data: data})
}

func (h *ResourceHandler) form(c echo.Context, s *resource.Schema, create bool, id string, values map[string]string, status int, errMsg string) error {
	ctx := c.Request().Context()
	data := FormData{Schema: s, Create: create, Cancel: s.BasePath()}
	title := "Update " + s.Singular
	if create {
		title = "Add " + s.Singular
		data.Action = s.BasePath() + "/new"
	} else {
		data.Action = s.BasePath() + "/" + url.PathEscape(id) + "/edit"
	}

	for _, f := range s.FormFields(create) {
		ff := FormField{Field: f, Value: values[f.Name], Options: f.Choices}
		if f.Options != nil {
			opts, err := h.api.Options(ctx, token(c), f.Options.Path, f.Options.ValueKey, f.Options.LabelKey)
			if err != nil {
				if apperrors.IsAuthExpired(err) {
					return h.expired(c)
				}
				if errMsg == "" {
					errMsg = apperrors.UserMessage(err)
				}
			}
			ff.Options = opts
		}
		if f.BlankOnEdit {
			ff.Value = ""
		}
		data.Fields = append(data.Fields, ff)
	}
	return h.render(c, status, "form.html", render.Page{Title: title, Error: errMsg, Data: data})
}

func formValues(c echo.Context, s *resource.Schema, create bool) map[string]string {
	values := make(map[string]string)
	for _, f := range s.FormFields(create) {
		values[f.Name] = c.FormValue(f.Name)
	}
	return values
}
