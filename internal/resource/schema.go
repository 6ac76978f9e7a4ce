// Package resource describes the entities the dashboard manages: their endpoints,
// table columns and form fields. One generic set of handlers serves every schema.
package resource

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"carservice/internal/backend"
	apperrors "carservice/internal/errors"
	"carservice/internal/model"
	"carservice/internal/pagination"
)

// Kind selects the form control for a field.
type Kind int

const (
	Text Kind = iota
	Email
	Password
	Number
	Date
	Select
	TextArea
)

// OptionSource is a backend endpoint returning id/name pairs for a select.
type OptionSource struct {
	Path     string
	ValueKey string
	LabelKey string
}

// Field is one form input. Name is both the form field and the payload key.
type Field struct {
	Name  string
	Label string
	Kind  Kind
	// RecordKey is the record attribute used to prefill the edit form. Defaults to Name.
	RecordKey string
	Required  bool
	// CreateOnly fields are shown on the add form only.
	CreateOnly bool
	// BlankOnEdit fields are never prefilled and are omitted from updates when left empty.
	BlankOnEdit bool
	Options     *OptionSource
	Choices     []model.Option
	Check       func(string) error
	// Encode converts the validated text into the payload value. Defaults to the trimmed string.
	Encode func(string) (any, error)
}

// InputType is the HTML input type for text-like kinds.
func (f Field) InputType() string {
	switch f.Kind {
	case Email:
		return "email"
	case Password:
		return "password"
	case Number:
		return "number"
	case Date:
		return "date"
	default:
		return "text"
	}
}

// IsSelect reports whether the field renders as a select.
func (f Field) IsSelect() bool { return f.Kind == Select }

// IsTextArea reports whether the field renders as a textarea.
func (f Field) IsTextArea() bool { return f.Kind == TextArea }

func (f Field) recordKey() string {
	if f.RecordKey != "" {
		return f.RecordKey
	}
	return f.Name
}

// Schema describes one entity in one scope.
type Schema struct {
	Scope    string // "admin" or "user"
	Name     string // URL segment, e.g. "cars"
	Singular string // e.g. "car"
	Title    string
	IDKey    string
	List     backend.ListSpec
	// Filter, when set, renders a select above the table whose value is sent as
	// List.FilterParam.
	Filter   *OptionSource
	ReadOnly bool // no add or edit, delete only

	GetPath    string // fmt pattern with one %s for the id
	CreatePath string
	UpdatePath string // fmt pattern
	DeletePath string // fmt pattern

	Columns []pagination.Column[model.Record]
	Fields  []Field
}

// BasePath is the dashboard route of the list page.
func (s *Schema) BasePath() string {
	return "/" + s.Scope + "/" + s.Name
}

// Actions returns the navigation targets for the list view.
func (s *Schema) Actions() pagination.Actions[model.Record] {
	base := s.BasePath()
	a := pagination.Actions[model.Record]{
		Delete: func(r model.Record) string { return base + "/" + url.PathEscape(r.ID(s.IDKey)) + "/delete" },
	}
	if !s.ReadOnly {
		a.Add = func() string { return base + "/new" }
		a.Edit = func(r model.Record) string { return base + "/" + url.PathEscape(r.ID(s.IDKey)) + "/edit" }
	}
	return a
}

// Lister is the backend call a list view pages through.
type Lister interface {
	List(ctx context.Context, token string, spec backend.ListSpec, req pagination.PageRequest) (pagination.PageResult[model.Record], error)
}

// Fetcher pages through the list endpoint of s on behalf of token.
func (s *Schema) Fetcher(api Lister, token string) pagination.Fetcher[model.Record] {
	return func(ctx context.Context, req pagination.PageRequest) (pagination.PageResult[model.Record], error) {
		return api.List(ctx, token, s.List, req)
	}
}

// FormFields returns the fields shown on the add (create=true) or edit form.
func (s *Schema) FormFields(create bool) []Field {
	out := make([]Field, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.CreateOnly && !create {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Validate runs every field check in form order and returns the first failure.
// No request is made when it returns an error.
func (s *Schema) Validate(values map[string]string, create bool) error {
	for _, f := range s.FormFields(create) {
		v := strings.TrimSpace(values[f.Name])
		if v == "" {
			if f.Required && !(f.BlankOnEdit && !create) {
				return apperrors.Validation(f.Label + " is required.")
			}
			continue
		}
		if len(f.Choices) > 0 && !hasChoice(f.Choices, v) {
			return apperrors.Validation(f.Label + " is invalid.")
		}
		if f.Check != nil {
			if err := f.Check(v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Payload validates values and builds the JSON body for a create or update.
func (s *Schema) Payload(values map[string]string, create bool) (map[string]any, error) {
	if err := s.Validate(values, create); err != nil {
		return nil, err
	}
	out := make(map[string]any, len(s.Fields))
	for _, f := range s.FormFields(create) {
		v := strings.TrimSpace(values[f.Name])
		if v == "" {
			if f.BlankOnEdit && !create {
				continue
			}
			if !f.Required {
				out[f.Name] = nil
				continue
			}
		}
		if f.Encode == nil {
			out[f.Name] = v
			continue
		}
		enc, err := f.Encode(v)
		if err != nil {
			return nil, err
		}
		out[f.Name] = enc
	}
	return out, nil
}

// Prefill maps a fetched record onto edit form values.
func (s *Schema) Prefill(r model.Record) map[string]string {
	out := make(map[string]string, len(s.Fields))
	for _, f := range s.FormFields(false) {
		if f.BlankOnEdit {
			continue
		}
		v := r.String(f.recordKey())
		if f.Kind == Date {
			v = ISODate(v)
		}
		out[f.Name] = v
	}
	return out
}

func (s *Schema) GetURL(id string) string    { return fmt.Sprintf(s.GetPath, url.PathEscape(id)) }
func (s *Schema) UpdateURL(id string) string { return fmt.Sprintf(s.UpdatePath, url.PathEscape(id)) }
func (s *Schema) DeleteURL(id string) string { return fmt.Sprintf(s.DeletePath, url.PathEscape(id)) }

func hasChoice(choices []model.Option, v string) bool {
	for _, c := range choices {
		if c.Value == v {
			return true
		}
	}
	return false
}

// Registry indexes schemas by scope and name.
type Registry struct {
	schemas map[string]*Schema
	order   map[string][]*Schema
}

// NewRegistry builds a registry from schemas.
func NewRegistry(schemas ...*Schema) *Registry {
	r := &Registry{schemas: map[string]*Schema{}, order: map[string][]*Schema{}}
	for _, s := range schemas {
		r.schemas[s.Scope+"/"+s.Name] = s
		r.order[s.Scope] = append(r.order[s.Scope], s)
	}
	return r
}

// Lookup returns the schema for scope/name.
func (r *Registry) Lookup(scope, name string) (*Schema, bool) {
	s, ok := r.schemas[scope+"/"+name]
	return s, ok
}

// Scope returns the schemas of scope in registration order.
func (r *Registry) Scope(scope string) []*Schema {
	return r.order[scope]
}
