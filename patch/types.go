// Package patch turns natural-language answers into RFC6902 operations over the session
// document and applies them.
package patch

import (
	"context"

	"github.com/tbxark/expenseform/types"
)

const (
	OperationAdd     = "add"
	OperationReplace = "replace"
	OperationRemove  = "remove"
)

type Operation struct {
	Op    string `json:"op" jsonschema:"required,enum=add,enum=replace,enum=remove,description=RFC6902 operation"`
	Path  string `json:"path" jsonschema:"required,description=JSON pointer of the target field"`
	Value any    `json:"value,omitempty" jsonschema:"description=New value for add and replace"`
}

type UpdateFormArgs struct {
	Ops []Operation `json:"ops" jsonschema:"required,description=Operations to apply in order; empty when the input carries no form data"`
}

type Request struct {
	*types.ToolRequest
	// AllowedPaths are JSON pointers, where "*" stands for any single segment.
	AllowedPaths  []string
	FieldGuidance map[string]string
}

type Generator interface {
	GeneratePatch(ctx context.Context, req *Request) (*UpdateFormArgs, error)
}
