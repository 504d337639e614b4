// Package table provides the in-memory columnar table that all survey
// analyses operate on. A table is an ordered list of named columns; every
// column holds one cell per source row, in insertion order. Row position is
// significant: the positional convention (category column first, total
// response count second, choice counts after) is resolved by index, not name.
package table

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Kind classifies a column's inferred semantic type.
type Kind string

const (
	// KindNumeric means every non-null cell parses as a number.
	KindNumeric Kind = "numeric"
	// KindCategorical is everything else.
	KindCategorical Kind = "categorical"
)

// Column is one named column. Cells are kept as raw text; the empty string
// represents a null cell.
type Column struct {
	Name   string
	Values []string
}

// Table is an ordered collection of equal-length columns parsed from a
// delimited file or spreadsheet.
type Table struct {
	Name    string
	Columns []Column
}

// New creates an empty table with the given header.
func New(name string, headers []string) *Table {
	cols := make([]Column, len(headers))
	for i, h := range headers {
		cols[i] = Column{Name: strings.TrimSpace(h)}
	}
	return &Table{Name: name, Columns: cols}
}

// AppendRow adds one row of cells. Short rows are padded with nulls, long
// rows are truncated to the header width.
func (t *Table) AppendRow(cells []string) {
	for i := range t.Columns {
		v := ""
		if i < len(cells) {
			v = strings.TrimSpace(cells[i])
		}
		t.Columns[i].Values = append(t.Columns[i].Values, v)
	}
}

// NumRows returns the row count (zero for a header-only table).
func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// NumColumns returns the column count.
func (t *Table) NumColumns() int { return len(t.Columns) }

// ColumnNames returns the header in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnAt returns the column at index i.
func (t *Table) ColumnAt(i int) *Column { return &t.Columns[i] }

// IsNull reports whether cell i of the column is null.
func (c *Column) IsNull(i int) bool { return c.Values[i] == "" }

// FloatAt parses cell i as a number. The second return is false for null or
// unparseable cells.
func (c *Column) FloatAt(i int) (float64, bool) {
	if c.IsNull(i) {
		return 0, false
	}
	v, err := strconv.ParseFloat(c.Values[i], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Floats returns all non-null cells that parse as numbers, in row order.
func (c *Column) Floats() []float64 {
	out := make([]float64, 0, len(c.Values))
	for i := range c.Values {
		if v, ok := c.FloatAt(i); ok {
			out = append(out, v)
		}
	}
	return out
}

// Kind infers the column's semantic type: numeric when all non-null cells
// parse as numbers (an all-null column counts as numeric and fails later at
// the statistics stage), categorical otherwise.
func (c *Column) Kind() Kind {
	for i, raw := range c.Values {
		if c.IsNull(i) {
			continue
		}
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return KindCategorical
		}
	}
	return KindNumeric
}

// Row is a single table row with column order preserved through JSON
// marshalling, so sample rows embed losslessly into model prompts.
type Row struct {
	Keys  []string
	Cells []json.RawMessage
}

// MarshalJSON emits an object whose keys appear in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(r.Cells[i])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// SampleRows returns up to n leading rows. Numeric-column cells are emitted
// as JSON numbers, categorical cells as strings, nulls as JSON null.
func (t *Table) SampleRows(n int) []Row {
	if n > t.NumRows() {
		n = t.NumRows()
	}
	kinds := make([]Kind, len(t.Columns))
	for i := range t.Columns {
		kinds[i] = t.Columns[i].Kind()
	}
	rows := make([]Row, 0, n)
	for i := 0; i < n; i++ {
		row := Row{Keys: t.ColumnNames(), Cells: make([]json.RawMessage, len(t.Columns))}
		for j := range t.Columns {
			row.Cells[j] = cellJSON(&t.Columns[j], kinds[j], i)
		}
		rows = append(rows, row)
	}
	return rows
}

func cellJSON(c *Column, kind Kind, i int) json.RawMessage {
	if c.IsNull(i) {
		return json.RawMessage("null")
	}
	if kind == KindNumeric {
		if _, ok := c.FloatAt(i); ok {
			return json.RawMessage(c.Values[i])
		}
	}
	b, err := json.Marshal(c.Values[i])
	if err != nil {
		return json.RawMessage("null")
	}
	return json.RawMessage(b)
}
