package table

import (
	"fmt"

	"github.com/bytedance/sonic"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Projection is a row reduced to its id plus the keys declared by the active schema, in
// schema order.
type Projection = *orderedmap.OrderedMap[string, any]

// FilteredForSubmission projects every row onto the active schema so that values left over
// from a previous form type never reach the payload.
func (m *Model) FilteredForSubmission() []Projection {
	out := make([]Projection, 0, len(m.rows))
	for _, r := range m.rows {
		p := orderedmap.New[string, any]()
		p.Set("id", r.ID)
		for _, f := range m.schema.Fields {
			if v, ok := r.Values[f.Key]; ok {
				p.Set(f.Key, v)
			}
		}
		out = append(out, p)
	}
	return out
}

// ExpensesJSON serializes FilteredForSubmission as a JSON array.
func (m *Model) ExpensesJSON() (string, error) {
	data, err := sonic.Marshal(m.FilteredForSubmission())
	if err != nil {
		return "", fmt.Errorf("failed to marshal expenses: %w", err)
	}
	return string(data), nil
}
