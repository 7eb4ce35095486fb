package assistant

import (
	"math"
	"strconv"

	"github.com/tbxark/expenseform"
	"github.com/tbxark/expenseform/patch"
	"github.com/tbxark/expenseform/schema"
)

// Changes summarizes what a patch did to a session.
type Changes struct {
	Identity []expenseform.IdentityField `json:"identity,omitempty"`
	Updated  int                         `json:"updated"`
	Added    int                         `json:"added"`
	Removed  int                         `json:"removed"`
}

func (c Changes) Empty() bool {
	return len(c.Identity) == 0 && c.Updated == 0 && c.Added == 0 && c.Removed == 0
}

// ApplyPatch applies ops to the session document of s and replays the result through the
// session, so rows keep their ids and computed fields are derived by the form.
func ApplyPatch(s *expenseform.Session, fs *schema.FormSchema, ops []patch.Operation) (Changes, error) {
	doc := BuildDocument(s.Snapshot(), fs)
	patched, err := patch.ApplyRFC6902(doc, ops)
	if err != nil {
		return Changes{}, err
	}
	return Reconcile(s, fs, patched)
}

// Reconcile makes s match doc. Rows are matched by id; objects without a known id become new
// rows and rows missing from doc are removed, except that the last row is never removed.
// A declared member missing from a known row clears that cell.
func Reconcile(s *expenseform.Session, fs *schema.FormSchema, doc map[string]any) (Changes, error) {
	var changes Changes
	current := s.Identity()
	for _, f := range []struct {
		field expenseform.IdentityField
		value string
	}{
		{expenseform.FieldFirstName, current.FirstName},
		{expenseform.FieldLastName, current.LastName},
		{expenseform.FieldEmail, current.Email},
		{expenseform.FieldComments, current.Comments},
	} {
		next, ok := stringValue(doc[string(f.field)])
		if !ok || next == f.value {
			continue
		}
		if err := s.SetIdentity(f.field, next); err != nil {
			return changes, err
		}
		changes.Identity = append(changes.Identity, f.field)
	}

	rows := s.Rows()
	known := make(map[int]map[string]string, len(rows))
	for _, r := range rows {
		known[r.ID] = r.Values
	}
	items, _ := doc["expenses"].([]any)
	seen := make(map[int]bool, len(items))
	var added []map[string]any
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, hasID := rowID(obj["id"])
		values, exists := known[id]
		if !hasID || !exists || seen[id] {
			added = append(added, obj)
			continue
		}
		seen[id] = true
		for _, f := range fs.Fields {
			if !f.Editable() {
				continue
			}
			next, ok := stringValue(obj[f.Key])
			if _, present := obj[f.Key]; !present {
				next, ok = "", true
			}
			if !ok || next == values[f.Key] {
				continue
			}
			if s.UpdateField(id, f.Key, next) {
				changes.Updated++
			}
		}
	}
	for _, obj := range added {
		row := s.AddRow()
		changes.Added++
		for _, f := range fs.Fields {
			if !f.Editable() {
				continue
			}
			if next, ok := stringValue(obj[f.Key]); ok {
				s.UpdateField(row.ID, f.Key, next)
			}
		}
	}
	for _, r := range rows {
		if !seen[r.ID] && s.RemoveRow(r.ID) {
			changes.Removed++
		}
	}
	return changes, nil
}

func stringValue(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	default:
		return "", false
	}
}

func rowID(v any) (int, bool) {
	switch val := v.(type) {
	case float64:
		if val != math.Trunc(val) {
			return 0, false
		}
		return int(val), true
	case int:
		return val, true
	case int64:
		return int(val), true
	default:
		return 0, false
	}
}
