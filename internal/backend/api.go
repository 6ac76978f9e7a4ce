package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	apperrors "carservice/internal/errors"
	"carservice/internal/model"
	"carservice/internal/pagination"
)

// Login exchanges credentials for a token. It is the only unauthenticated call.
func (c *Client) Login(ctx context.Context, username, password string) (model.LoginResponse, error) {
	var out model.LoginResponse
	err := c.Do(ctx, Call{
		Method: http.MethodPost,
		Path:   "/",
		Body:   map[string]string{"username": username, "password": password},
		Action: "log in",
	}, &out)
	return out, err
}

// Logout invalidates the token on the backend.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.Do(ctx, Call{Method: http.MethodPost, Path: "/logout", Token: token, Action: "log out"}, nil)
}

// ListSpec names a paged endpoint and how to read it.
type ListSpec struct {
	Path   string
	Key    string // rows key in the response, e.g. "cars"; "items" is also accepted
	Action string
	// FilterParam is the query parameter carrying PageRequest.Filter. Defaults to "query".
	FilterParam string
}

// List fetches one page from a paged endpoint. The backend answers an empty
// collection with 404; that is an empty page.
func (c *Client) List(ctx context.Context, token string, spec ListSpec, req pagination.PageRequest) (pagination.PageResult[model.Record], error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(req.Page))
	q.Set("per_page", strconv.Itoa(req.PerPage))
	if req.Filter != "" {
		param := spec.FilterParam
		if param == "" {
			param = "query"
		}
		q.Set(param, req.Filter)
	}
	action := spec.Action

	var body map[string]json.RawMessage
	err := c.Do(ctx, Call{Method: http.MethodGet, Path: spec.Path, Token: token, Query: q, Action: action}, &body)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindRejected && apperrors.StatusOf(err) == http.StatusNotFound {
			return pagination.PageResult[model.Record]{Items: []model.Record{}}, nil
		}
		return pagination.PageResult[model.Record]{}, err
	}

	rows, ok := body[spec.Key]
	if !ok {
		rows = body["items"]
	}
	items, err := decodeRecords(rows)
	if err != nil {
		return pagination.PageResult[model.Record]{}, apperrors.Rejected(http.StatusOK, action, "")
	}

	var total int
	if raw, ok := body["total_pages"]; ok {
		_ = json.Unmarshal(raw, &total)
	}
	return pagination.PageResult[model.Record]{Items: items, TotalPages: total}, nil
}

// Get fetches a single record.
func (c *Client) Get(ctx context.Context, token, path, action string) (model.Record, error) {
	var out model.Record
	err := c.Do(ctx, Call{Method: http.MethodGet, Path: path, Token: token, Action: action}, &out)
	return out, err
}

// Create posts payload and returns the backend's confirmation message.
func (c *Client) Create(ctx context.Context, token, path, action string, payload any) (string, error) {
	return c.mutate(ctx, http.MethodPost, token, path, action, payload)
}

// Update puts payload and returns the backend's confirmation message.
func (c *Client) Update(ctx context.Context, token, path, action string, payload any) (string, error) {
	return c.mutate(ctx, http.MethodPut, token, path, action, payload)
}

// Delete removes a record and returns the backend's confirmation message.
func (c *Client) Delete(ctx context.Context, token, path, action string) (string, error) {
	return c.mutate(ctx, http.MethodDelete, token, path, action, nil)
}

func (c *Client) mutate(ctx context.Context, method, token, path, action string, payload any) (string, error) {
	var out messageBody
	err := c.Do(ctx, Call{Method: method, Path: path, Token: token, Body: payload, Action: action}, &out)
	return out.Message, err
}

// Options fetches an id/name list for a select input.
func (c *Client) Options(ctx context.Context, token, path, valueKey, labelKey string) ([]model.Option, error) {
	var rows []model.Record
	err := c.Do(ctx, Call{Method: http.MethodGet, Path: path, Token: token, Action: "load options"}, &rows)
	if err != nil {
		// 404 here only means there is nothing to choose from yet.
		if apperrors.KindOf(err) == apperrors.KindRejected && apperrors.StatusOf(err) == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	opts := make([]model.Option, 0, len(rows))
	for _, r := range rows {
		id := r.String(valueKey)
		opts = append(opts, model.Option{Value: id, Label: id + " - " + r.String(labelKey)})
	}
	return opts, nil
}

// Stats fetches the dashboard counters.
func (c *Client) Stats(ctx context.Context, token, path string) (model.DashboardStats, error) {
	var out model.DashboardStats
	err := c.Do(ctx, Call{Method: http.MethodGet, Path: path, Token: token, Action: "load dashboard"}, &out)
	return out, err
}

// Profile fetches the caller's own user record.
func (c *Client) Profile(ctx context.Context, token string) (model.Profile, error) {
	var out model.Profile
	err := c.Do(ctx, Call{Method: http.MethodGet, Path: "/user/profile", Token: token, Action: "load profile"}, &out)
	return out, err
}

// UpdateProfile changes the caller's username, email and, when set, password.
func (c *Client) UpdateProfile(ctx context.Context, token string, payload map[string]string) (string, error) {
	return c.Update(ctx, token, "/user/update_profile", "update profile", payload)
}

// SearchResult groups search hits by entity ("users", "cars", "services").
type SearchResult map[string]pagination.PageResult[model.Record]

// Search runs a cross-entity search. An empty query short-circuits to no results.
func (c *Client) Search(ctx context.Context, token, path string, req pagination.PageRequest) (SearchResult, error) {
	if req.Filter == "" {
		return SearchResult{}, nil
	}
	q := url.Values{}
	q.Set("query", req.Filter)
	q.Set("page", strconv.Itoa(req.Page))
	q.Set("per_page", strconv.Itoa(req.PerPage))

	var body map[string]json.RawMessage
	if err := c.Do(ctx, Call{Method: http.MethodGet, Path: path, Token: token, Query: q, Action: "search"}, &body); err != nil {
		return nil, err
	}

	out := SearchResult{}
	for group, raw := range body {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			continue
		}
		// An empty group is sent as [], a populated one as {data, total_pages}.
		if raw[0] == '[' {
			items, err := decodeRecords(raw)
			if err != nil {
				continue
			}
			out[group] = pagination.PageResult[model.Record]{Items: items}
			continue
		}
		var page struct {
			Data       json.RawMessage `json:"data"`
			TotalPages int             `json:"total_pages"`
		}
		if err := json.Unmarshal(raw, &page); err != nil {
			continue
		}
		items, err := decodeRecords(page.Data)
		if err != nil {
			continue
		}
		out[group] = pagination.PageResult[model.Record]{Items: items, TotalPages: page.TotalPages}
	}
	return out, nil
}

func decodeRecords(raw json.RawMessage) ([]model.Record, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return []model.Record{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out []model.Record
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Record{}
	}
	return out, nil
}
