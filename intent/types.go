// Package intent classifies a user's chat message against the form session.
package intent

import (
	"context"

	"github.com/tbxark/expenseform/types"
)

type Intent string

const (
	Submit    Intent = "submit"
	Reset     Intent = "reset"
	Edit      Intent = "edit"
	DoNothing Intent = "do_nothing"
)

func (i Intent) Valid() bool {
	switch i {
	case Submit, Reset, Edit, DoNothing:
		return true
	default:
		return false
	}
}

type Recognizer interface {
	RecognizeIntent(ctx context.Context, req *types.ToolRequest) (Intent, error)
}
