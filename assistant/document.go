// Package assistant fills an expense form session from a conversation.
package assistant

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/eino-contrib/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/tbxark/expenseform"
	"github.com/tbxark/expenseform/schema"
)

// BuildDocument renders the session as the JSON document the patch generator edits:
// the identity fields plus an "expenses" array holding each row's id and declared fields.
func BuildDocument(snap expenseform.Snapshot, fs *schema.FormSchema) map[string]any {
	expenses := make([]any, 0, len(snap.Rows))
	for _, r := range snap.Rows {
		row := map[string]any{"id": r.ID}
		for _, key := range fs.Keys() {
			row[key] = r.Values[key]
		}
		expenses = append(expenses, row)
	}
	return map[string]any{
		string(expenseform.FieldFirstName): snap.Identity.FirstName,
		string(expenseform.FieldLastName):  snap.Identity.LastName,
		string(expenseform.FieldEmail):     snap.Identity.Email,
		string(expenseform.FieldComments):  snap.Identity.Comments,
		"expenses":                         expenses,
	}
}

// IdentityPaths lists the JSON pointers of the identity members of the document.
func IdentityPaths() []string {
	typ := reflect.TypeOf(expenseform.Identity{})
	paths := make([]string, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name := jsonFieldName(field)
		if name == "" || name == "-" {
			continue
		}
		paths = append(paths, "/"+name)
	}
	return paths
}

func jsonFieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name
	}
	return field.Name
}

// AllowedPaths is every pointer a generated patch may touch for fs. Row ids and computed
// fields are left out.
func AllowedPaths(fs *schema.FormSchema) []string {
	paths := IdentityPaths()
	paths = append(paths, "/expenses/-", "/expenses/*")
	for _, f := range fs.Fields {
		if f.Editable() {
			paths = append(paths, "/expenses/*/"+f.Key)
		}
	}
	return paths
}

func FieldGuidance(fs *schema.FormSchema) map[string]string {
	guidance := map[string]string{
		"/email":    "Email address the receipt confirmation goes to",
		"/comments": fmt.Sprintf("Free text, at most %d characters", expenseform.MaxCommentLength),
	}
	for _, f := range fs.Fields {
		path := "/expenses/*/" + f.Key
		switch f.Kind {
		case schema.KindSelect:
			guidance[path] = "One of: " + strings.Join(f.Options, ", ")
		case schema.KindNumber:
			guidance[path] = "Decimal number as a string, e.g. \"12.50\""
		}
	}
	return guidance
}

// DocumentSchema describes the document of fs as JSON Schema.
func DocumentSchema(fs *schema.FormSchema) (string, error) {
	row := &jsonschema.Schema{
		Type:       "object",
		Properties: orderedmap.New[string, *jsonschema.Schema](),
	}
	row.Properties.Set("id", &jsonschema.Schema{Type: "integer", Description: "Row id, maintained by the form"})
	for _, f := range fs.Fields {
		prop := &jsonschema.Schema{Type: "string", Title: f.Label}
		switch f.Kind {
		case schema.KindSelect:
			for _, opt := range f.Options {
				prop.Enum = append(prop.Enum, opt)
			}
		case schema.KindNumber:
			prop.Description = "Decimal number"
		case schema.KindComputedNumber:
			prop.Description = "Computed by the form, read only"
		}
		row.Properties.Set(f.Key, prop)
		if f.Required {
			row.Required = append(row.Required, f.Key)
		}
	}

	doc := &jsonschema.Schema{
		Type:        "object",
		Title:       fs.Title,
		Description: fs.Blurb,
		Properties:  orderedmap.New[string, *jsonschema.Schema](),
		Required: []string{
			string(expenseform.FieldFirstName),
			string(expenseform.FieldLastName),
			string(expenseform.FieldEmail),
		},
	}
	doc.Properties.Set(string(expenseform.FieldFirstName), &jsonschema.Schema{Type: "string", Title: "First Name"})
	doc.Properties.Set(string(expenseform.FieldLastName), &jsonschema.Schema{Type: "string", Title: "Last Name"})
	doc.Properties.Set(string(expenseform.FieldEmail), &jsonschema.Schema{Type: "string", Title: "Email", Format: "email"})
	doc.Properties.Set(string(expenseform.FieldComments), &jsonschema.Schema{Type: "string", Title: "Comments"})
	doc.Properties.Set("expenses", &jsonschema.Schema{Type: "array", Title: "Expenses", Items: row})

	data, err := sonic.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON schema: %w", err)
	}
	return string(data), nil
}
