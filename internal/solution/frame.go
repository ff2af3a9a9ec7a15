package solution

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
)

// Column is one named, typed column of a Frame.
type Column interface {
	Name() string
	Len() int
	// Value returns the cell at row i, or nil when the cell is missing.
	Value(i int) any
}

type Int64Column struct {
	name   string
	Values []int64
}

func (c *Int64Column) Name() string    { return c.name }
func (c *Int64Column) Len() int        { return len(c.Values) }
func (c *Int64Column) Value(i int) any { return c.Values[i] }

// NullInt64Column is an integer column whose cells may be missing.
type NullInt64Column struct {
	name   string
	Values []int64
	Valid  []bool
}

func (c *NullInt64Column) Name() string { return c.name }
func (c *NullInt64Column) Len() int     { return len(c.Values) }

func (c *NullInt64Column) Value(i int) any {
	if !c.Valid[i] {
		return nil
	}
	return c.Values[i]
}

// CategoricalColumn stores codes into a fixed, ordered category list.
type CategoricalColumn struct {
	name       string
	Categories []string
	Codes      []StepType
}

func (c *CategoricalColumn) Name() string    { return c.name }
func (c *CategoricalColumn) Len() int        { return len(c.Codes) }
func (c *CategoricalColumn) Value(i int) any { return c.Codes[i].String() }

type StringColumn struct {
	name   string
	Values []string
}

func (c *StringColumn) Name() string    { return c.name }
func (c *StringColumn) Len() int        { return len(c.Values) }
func (c *StringColumn) Value(i int) any { return c.Values[i] }

// Frame is an ordered set of equal length columns.
type Frame struct {
	columns []Column
	rows    int
}

func (f *Frame) Len() int { return f.rows }

func (f *Frame) Columns() []Column { return f.columns }

func (f *Frame) Names() []string {
	out := make([]string, len(f.columns))
	for i, c := range f.columns {
		out[i] = c.Name()
	}
	return out
}

func (f *Frame) Column(name string) (Column, bool) {
	for _, c := range f.columns {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

func (f *Frame) Has(name string) bool {
	_, ok := f.Column(name)
	return ok
}

// Row returns row i keyed by column name; missing cells are nil.
func (f *Frame) Row(i int) map[string]any {
	out := make(map[string]any, len(f.columns))
	for _, c := range f.columns {
		out[c.Name()] = c.Value(i)
	}
	return out
}

// WriteCSV writes a header line followed by one line per row. Missing cells
// are written as empty fields.
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Names()); err != nil {
		return err
	}
	line := make([]string, len(f.columns))
	for i := 0; i < f.rows; i++ {
		for j, c := range f.columns {
			line[j] = formatCell(c.Value(i))
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(x, 10)
	case string:
		return x
	}
	return ""
}

type frameJSON struct {
	Columns    []string `json:"columns"`
	Categories []string `json:"categories,omitempty"`
	Data       [][]any  `json:"data"`
}

// MarshalJSON encodes the frame as {"columns": [...], "data": [[...], ...]}
// with null for missing cells.
func (f *Frame) MarshalJSON() ([]byte, error) {
	doc := frameJSON{Columns: f.Names(), Data: make([][]any, 0, f.rows)}
	for _, c := range f.columns {
		if cat, ok := c.(*CategoricalColumn); ok {
			doc.Categories = cat.Categories
		}
	}
	for i := 0; i < f.rows; i++ {
		row := make([]any, len(f.columns))
		for j, c := range f.columns {
			row[j] = c.Value(i)
		}
		doc.Data = append(doc.Data, row)
	}
	return json.Marshal(doc)
}
