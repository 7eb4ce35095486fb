// Package dialogue phrases the assistant's next message from what the form still lacks.
package dialogue

import (
	"context"

	"github.com/tbxark/expenseform/types"
)

type Generator interface {
	GenerateDialogue(ctx context.Context, req *types.ToolRequest) (string, error)
}
