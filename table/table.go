// Package table owns the ordered collection of expense rows of one form session.
package table

import (
	"errors"
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tbxark/expenseform/schema"
)

var ErrNilSchema = errors.New("table: nil schema")

type Row struct {
	ID     int               `json:"id"`
	Values map[string]string `json:"values"`
}

// Get returns the value at key and whether the row has it set.
func (r Row) Get(key string) (string, bool) {
	v, ok := r.Values[key]
	return v, ok
}

func (r Row) clone() Row {
	return Row{ID: r.ID, Values: maps.Clone(r.Values)}
}

// Model is the row table of a single session. It is not safe for concurrent use; the owning
// session serializes access.
type Model struct {
	schema *schema.FormSchema
	rows   []Row
	// lastID is the highest id handed out since the last reset.
	lastID int
}

func New(s *schema.FormSchema) (*Model, error) {
	if s == nil {
		return nil, ErrNilSchema
	}
	m := &Model{schema: s}
	m.Reset()
	return m, nil
}

func (m *Model) Schema() *schema.FormSchema {
	return m.schema
}

// Reset replaces every row with a single initial row numbered 1.
func (m *Model) Reset() {
	m.rows = []Row{{ID: 1, Values: m.schema.NewRow()}}
	m.lastID = 1
}

func (m *Model) Len() int {
	return len(m.rows)
}

// Rows returns a copy of the rows in display order.
func (m *Model) Rows() []Row {
	out := make([]Row, len(m.rows))
	for i, r := range m.rows {
		out[i] = r.clone()
	}
	return out
}

func (m *Model) Row(id int) (Row, bool) {
	idx := m.index(id)
	if idx < 0 {
		return Row{}, false
	}
	return m.rows[idx].clone(), true
}

func (m *Model) index(id int) int {
	return slices.IndexFunc(m.rows, func(r Row) bool { return r.ID == id })
}

// UpdateField writes value into one cell and reruns derived computation when key is a
// trigger field. Unknown rows, undeclared keys and computed fields are left alone and
// reported as false.
func (m *Model) UpdateField(id int, key, value string) bool {
	idx := m.index(id)
	if idx < 0 {
		return false
	}
	f, ok := m.schema.Field(key)
	if !ok || !f.Editable() {
		return false
	}
	row := m.rows[idx].clone()
	row.Values[key] = f.Normalize(value)
	if m.schema.Triggers(key) {
		row.Values = m.schema.Compute(row.Values)
	}
	m.rows[idx] = row
	return true
}

// AddRow appends a row built from the schema's initial row. Ids keep increasing even after
// the highest row was removed.
func (m *Model) AddRow() Row {
	for _, r := range m.rows {
		m.lastID = max(m.lastID, r.ID)
	}
	m.lastID++
	row := Row{ID: m.lastID, Values: m.schema.NewRow()}
	m.rows = append(m.rows, row)
	return row.clone()
}

// RemoveRow deletes the row with id. The last remaining row is never removed.
func (m *Model) RemoveRow(id int) bool {
	if len(m.rows) <= 1 {
		return false
	}
	idx := m.index(id)
	if idx < 0 {
		return false
	}
	m.rows = slices.Delete(m.rows, idx, idx+1)
	return true
}

// Migrate re-keys every row for the schema to. Values of keys declared by to and already set
// on a row are kept, other keys are dropped, and missing keys take their initial value. The
// new rows replace the old ones in one step.
func (m *Model) Migrate(to *schema.FormSchema) error {
	if to == nil {
		return ErrNilSchema
	}
	_, computed := to.ComputedField()
	rows := make([]Row, 0, len(m.rows))
	for _, old := range m.rows {
		values := to.NewRow()
		for _, f := range to.Fields {
			if v, ok := old.Values[f.Key]; ok {
				values[f.Key] = v
			}
		}
		if computed {
			values = to.Compute(values)
		}
		rows = append(rows, Row{ID: old.ID, Values: values})
	}
	m.rows = rows
	m.schema = to
	return nil
}

func (m *Model) amountKey() string {
	if m.schema.AmountField != "" {
		return m.schema.AmountField
	}
	return "amount"
}

// HasPricedRow reports whether at least one row has an amount greater than zero.
func (m *Model) HasPricedRow() bool {
	key := m.amountKey()
	for _, r := range m.rows {
		n, err := decimal.NewFromString(strings.TrimSpace(r.Values[key]))
		if err == nil && n.IsPositive() {
			return true
		}
	}
	return false
}

// Total sums the computed amount of every row, falling back to the raw amount. Unparseable
// amounts count as zero.
func (m *Model) Total() decimal.Decimal {
	total := decimal.Zero
	for _, r := range m.rows {
		n, err := decimal.NewFromString(strings.TrimSpace(m.schema.Amount(r.Values)))
		if err != nil {
			continue
		}
		total = total.Add(n)
	}
	return total
}
