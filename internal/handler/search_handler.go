package handler

import (
	"context"
	"log/slog"
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

var searchGroups = []string{"users", "cars", "services"}

// SearchHandler runs the cross-entity search of one scope.
type SearchHandler struct {
	base
	registry *resource.Registry
	pageSize int
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(api API, authService service.AuthService, registry *resource.Registry, pageSize int, cookieName string, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{base: newBase(api, authService, cookieName, logger), registry: registry, pageSize: pageSize}
}

// SearchData is the search template model.
type SearchData struct {
	Action string
	Query  string
	Group  string
	View   pagination.View
}

// PageURL links to page n of the same search and group.
func (d SearchData) PageURL(n int) string {
	q := url.Values{}
	q.Set("query", d.Query)
	q.Set("group", d.Group)
	q.Set("page", strconv.Itoa(n))
	return d.Action + "?" + q.Encode()
}

// Show renders one group of results. Without ?group= the first non-empty group wins.
func (h *SearchHandler) Show(scope string) echo.HandlerFunc {
	return func(c echo.Context) error {
		data := SearchData{
			Action: "/" + scope + "/search",
			Query:  c.QueryParam("query"),
			Group:  c.QueryParam("group"),
		}
		if data.Query == "" {
			return h.render(c, statusFor(nil), "search.html", render.Page{Title: "Search", Data: data})
		}

		tok := token(c)
		group := data.Group
		fetch := func(ctx context.Context, req pagination.PageRequest) (pagination.PageResult[model.Record], error) {
			res, err := h.api.Search(ctx, tok, data.Action, req)
			if err != nil {
				return pagination.PageResult[model.Record]{}, err
			}
			if group == "" {
				group = h.firstGroup(scope, res)
			}
			return res[group], nil
		}

		coll := pagination.NewCollection(fetch, h.pageSize).Seed(pageParam(c)).Filter(data.Query)
		defer coll.Close()

		err := coll.Load(c.Request().Context())
		if apperrors.IsAuthExpired(err) {
			return h.expired(c)
		}

		s, ok := h.registry.Lookup(scope, group)
		if !ok {
			data.Group = ""
			if err != nil {
				return h.render(c, statusFor(err), "search.html", render.Page{Title: "Search", Error: apperrors.UserMessage(err), Data: data})
			}
			return h.render(c, statusFor(nil), "search.html", render.Page{Title: "Search", Data: data})
		}
		data.Group = group
		data.View = coll.View(s.Columns, s.Actions())
		return h.render(c, statusFor(err), "search.html", render.Page{Title: "Search", Data: data})
	}
}

// firstGroup prefers a group with rows on the requested page, then any group with pages.
func (h *SearchHandler) firstGroup(scope string, res map[string]pagination.PageResult[model.Record]) string {
	paged := ""
	for _, g := range searchGroups {
		if _, ok := h.registry.Lookup(scope, g); !ok {
			continue
		}
		if len(res[g].Items) > 0 {
			return g
		}
		if paged == "" && res[g].TotalPages > 0 {
			paged = g
		}
	}
	return paged
}
