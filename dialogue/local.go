package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tbxark/expenseform/types"
)

// LocalDialogueGenerator asks for one missing or invalid field at a time, or for all of them
// when MergeAllUnvalidatedFields is set.
type LocalDialogueGenerator struct {
	MergeAllUnvalidatedFields bool
}

func (g *LocalDialogueGenerator) GenerateDialogue(ctx context.Context, req *types.ToolRequest) (string, error) {
	switch req.Status {
	case types.StatusSucceeded:
		return "Your form was submitted. Anything else?", nil
	case types.StatusSubmitting, types.StatusValidating:
		return "Your form is being submitted, please wait.", nil
	}
	var lines []string
	for _, issue := range req.ValidationErrors {
		if issue.Description != "" {
			lines = append(lines, fmt.Sprintf("%s: %s.", issue.DisplayName, issue.Description))
		} else {
			lines = append(lines, fmt.Sprintf("Please check %s.", issue.DisplayName))
		}
		if !g.MergeAllUnvalidatedFields {
			return lines[0], nil
		}
	}
	for _, field := range req.MissingFields {
		lines = append(lines, fmt.Sprintf("Please provide %s.", field.DisplayName))
		if !g.MergeAllUnvalidatedFields {
			return lines[0], nil
		}
	}
	if len(lines) == 0 {
		return "Everything looks complete. Say \"submit\" to send the form.", nil
	}
	return strings.Join(lines, "\n"), nil
}

type FailbackDialogueGenerator struct {
	generators []Generator
}

func NewFailbackDialogueGenerator(generators ...Generator) *FailbackDialogueGenerator {
	return &FailbackDialogueGenerator{generators: generators}
}

func (g *FailbackDialogueGenerator) GenerateDialogue(ctx context.Context, req *types.ToolRequest) (string, error) {
	lastErr := errors.New("no dialogue generator configured")
	for _, generator := range g.generators {
		message, err := generator.GenerateDialogue(ctx, req)
		if err == nil {
			return message, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("all dialogue generators failed: %w", lastErr)
}
