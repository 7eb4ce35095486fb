package table

import (
	"errors"
	"fmt"

	"github.com/tbxark/expenseform/schema"
	"github.com/tbxark/expenseform/types"
)

// Issues checks every cell against its field definition. Empty required cells are reported
// as missing, everything else that fails as invalid.
func (m *Model) Issues() (missing, invalid []types.FieldInfo) {
	for i, r := range m.rows {
		for _, f := range m.schema.Fields {
			err := f.Validate(r.Values[f.Key])
			if err == nil {
				continue
			}
			info := types.FieldInfo{
				JSONPointer: fmt.Sprintf("/expenses/%d/%s", i, f.Key),
				DisplayName: fmt.Sprintf("%s (row %d)", f.Label, r.ID),
				Required:    f.Required,
			}
			if errors.Is(err, schema.ErrRequired) {
				missing = append(missing, info)
				continue
			}
			info.Description = fmt.Sprintf("%s: %v", f.Label, err)
			invalid = append(invalid, info)
		}
	}
	return missing, invalid
}
