package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"carservice/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	layoutName    = "layout.html"
	partialPrefix = "partial_"
)

// Page is the data every template receives.
type Page struct {
	Title   string
	Session *model.Session
	CSRF    string
	Notice  string
	Error   string
	Data    any
}

// Renderer implements echo.Renderer over the embedded templates. Each page is parsed
// together with the layout once at startup.
type Renderer struct {
	pages map[string]*template.Template
}

// Funcs are available to every template.
var Funcs = template.FuncMap{
	"markdown": Markdown,
	"cell": func(text string, html bool) template.HTML {
		if html {
			return template.HTML(text)
		}
		return template.HTML(template.HTMLEscapeString(text))
	},
	"title": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
}

// New parses every page template with the layout and the shared partials
// (files named partial_*.html).
func New() (*Renderer, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	shared := []string{"templates/" + layoutName}
	for _, name := range names {
		if strings.HasPrefix(path.Base(name), partialPrefix) {
			shared = append(shared, name)
		}
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(names))}
	for _, name := range names {
		base := path.Base(name)
		if base == layoutName || strings.HasPrefix(base, partialPrefix) {
			continue
		}
		files := append(append([]string{}, shared...), name)
		tpl, err := template.New(layoutName).Funcs(Funcs).ParseFS(templateFS, files...)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", base, err)
		}
		r.pages[base] = tpl
	}
	return r, nil
}

// Render executes the named page inside the layout.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	tpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return tpl.ExecuteTemplate(w, layoutName, data)
}
