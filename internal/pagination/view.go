package pagination

import (
	apperrors "carservice/internal/errors"
)

// Column renders one cell per row, in declaration order.
type Column[T any] struct {
	Name  string
	Value func(T) string
	// HTML marks Value's output as pre-rendered, escaped markup.
	HTML bool
}

// Actions turn add/edit/delete intents into navigation targets. The view never performs
// the mutation itself; a nil func hides the action.
type Actions[T any] struct {
	Add    func() string
	Edit   func(T) string
	Delete func(T) string
}

// Cell is one rendered table cell.
type Cell struct {
	Text string
	HTML bool
}

// Row is one rendered table row with its action targets.
type Row struct {
	Cells     []Cell
	EditURL   string
	DeleteURL string
}

// View is a render snapshot of a collection.
type View struct {
	Headers    []string
	Rows       []Row
	AddURL     string
	HasActions bool
	Empty      bool
	Error      string
	Page       int
	TotalPages int
	HasPrev    bool
	HasNext    bool
	PrevPage   int
	NextPage   int
}

// ColumnCount is the number of table columns including the actions column.
func (v View) ColumnCount() int {
	if v.HasActions {
		return len(v.Headers) + 1
	}
	return len(v.Headers)
}

// View snapshots the collection's last accepted state.
// In the error state the table is empty and both navigation controls are disabled.
func (c *Collection[T]) View(columns []Column[T], actions Actions[T]) View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Headers:    make([]string, 0, len(columns)),
		Page:       c.pager.Page(),
		TotalPages: c.pager.TotalPages(),
		HasActions: actions.Edit != nil || actions.Delete != nil,
	}
	for _, col := range columns {
		v.Headers = append(v.Headers, col.Name)
	}
	if actions.Add != nil {
		v.AddURL = actions.Add()
	}

	if c.err != nil {
		v.Error = apperrors.UserMessage(c.err)
		v.Empty = true
		v.TotalPages = 0
		return v
	}

	v.Rows = make([]Row, 0, len(c.items))
	for _, item := range c.items {
		row := Row{Cells: make([]Cell, 0, len(columns))}
		for _, col := range columns {
			row.Cells = append(row.Cells, Cell{Text: col.Value(item), HTML: col.HTML})
		}
		if actions.Edit != nil {
			row.EditURL = actions.Edit(item)
		}
		if actions.Delete != nil {
			row.DeleteURL = actions.Delete(item)
		}
		v.Rows = append(v.Rows, row)
	}
	v.Empty = len(v.Rows) == 0
	if !v.Empty {
		v.HasPrev = c.pager.HasPrev()
		v.HasNext = c.pager.HasNext()
	}
	if v.HasPrev {
		v.PrevPage = v.Page - 1
	}
	if v.HasNext {
		v.NextPage = v.Page + 1
	}
	return v
}
