package patch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/tbxark/expenseform/structured"
)

const (
	updateFormToolName        = "update_form"
	updateFormToolDescription = "Generate RFC6902 JSON Patch operations to update the expense form based on user input. Only include operations for information explicitly provided by the user."
)

type ToolBasedPatchGenerator struct {
	chain *structured.Chain[*Request, UpdateFormArgs]
}

type GeneratorOption func(*generatorOptions)

type generatorOptions struct {
	systemPromptTemplate string
}

// WithPatchSystemPromptTemplate overrides the system prompt. A "%s" in the template is
// replaced with the tool name.
func WithPatchSystemPromptTemplate(tpl string) GeneratorOption {
	return func(o *generatorOptions) {
		o.systemPromptTemplate = tpl
	}
}

func NewToolBasedPatchGenerator(chatModel model.ToolCallingChatModel, opts ...GeneratorOption) (*ToolBasedPatchGenerator, error) {
	options := generatorOptions{systemPromptTemplate: DefaultPatchSystemPromptTemplate}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	chain, err := structured.NewChain[*Request, UpdateFormArgs](
		chatModel,
		buildPatchPrompt(fmt.Sprintf(options.systemPromptTemplate, updateFormToolName)),
		updateFormToolName,
		updateFormToolDescription,
	)
	if err != nil {
		return nil, err
	}
	return &ToolBasedPatchGenerator{chain: chain}, nil
}

func (g *ToolBasedPatchGenerator) GeneratePatch(ctx context.Context, req *Request) (*UpdateFormArgs, error) {
	result, err := g.chain.Invoke(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("LLM call failed: %w", err)
	}
	if err := ValidatePatchOperations(result.Ops, req.AllowedPaths); err != nil {
		return nil, fmt.Errorf("generated patches failed validation: %w", err)
	}
	slog.Debug("Generated patch", "ops", len(result.Ops))
	return result, nil
}
