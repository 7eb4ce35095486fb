package intent

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/expenseform/structured"
	"github.com/tbxark/expenseform/types"
)

const (
	parseIntentToolName        = "parse_intent"
	parseIntentToolDescription = "Analyze user input and determine the intent: submit, reset, edit or do_nothing."
)

// DefaultIntentSystemPromptTemplate may contain a single "%s" placeholder for the tool name.
const DefaultIntentSystemPromptTemplate = `
You help a user fill in an expense intake form (identity, itemized expenses, comments).

Analyze the latest exchange between the user and the assistant to determine the user's intent.
Always read the user's answer together with the assistant's question; isolated words such as "yes" or "no" mean nothing without it.

Choose exactly one intent:
- submit: the user explicitly asks to send or submit the form (e.g. "submit it", "send the form", or "yes" to a question asking whether to submit).
- reset: the user explicitly asks to discard everything and start over.
- edit: the user provides or corrects information for the form, adds or removes an expense, or changes a field.
- do_nothing: greetings, thanks, questions about the process, or anything unrelated to the form data.

Call the '%s' tool with the result.
`

type PromptBuilder func(systemPrompt string) structured.PromptBuilder[*types.ToolRequest]

type recognizerOptions struct {
	systemPromptTemplate string
	promptBuilder        PromptBuilder
}

type RecognizerOption func(*recognizerOptions)

func WithIntentSystemPromptTemplate(systemPromptTemplate string) RecognizerOption {
	return func(o *recognizerOptions) {
		o.systemPromptTemplate = systemPromptTemplate
	}
}

func WithIntentPromptBuilder(promptBuilder PromptBuilder) RecognizerOption {
	return func(o *recognizerOptions) {
		o.promptBuilder = promptBuilder
	}
}

func defaultPromptBuilder(systemPrompt string) structured.PromptBuilder[*types.ToolRequest] {
	return func(ctx context.Context, req *types.ToolRequest) ([]*schema.Message, error) {
		message, err := types.FormatToolRequest(req)
		if err != nil {
			return nil, fmt.Errorf("convert to prompt message failed: %w", err)
		}
		return []*schema.Message{
			schema.SystemMessage(systemPrompt),
			schema.UserMessage(message),
		}, nil
	}
}

type parseIntentInput struct {
	Intent Intent `json:"intent" jsonschema:"required,enum=submit,enum=reset,enum=edit,enum=do_nothing,description=The user's intent"`
}

type ToolBasedRecognizer struct {
	chain *structured.Chain[*types.ToolRequest, parseIntentInput]
}

func NewToolBasedRecognizer(chatModel model.ToolCallingChatModel, opts ...RecognizerOption) (*ToolBasedRecognizer, error) {
	options := recognizerOptions{
		systemPromptTemplate: DefaultIntentSystemPromptTemplate,
		promptBuilder:        defaultPromptBuilder,
	}
	for _, o := range opts {
		if o != nil {
			o(&options)
		}
	}
	chain, err := structured.NewChain[*types.ToolRequest, parseIntentInput](
		chatModel,
		options.promptBuilder(fmt.Sprintf(options.systemPromptTemplate, parseIntentToolName)),
		parseIntentToolName,
		parseIntentToolDescription,
	)
	if err != nil {
		return nil, err
	}
	return &ToolBasedRecognizer{chain: chain}, nil
}

func (r *ToolBasedRecognizer) RecognizeIntent(ctx context.Context, req *types.ToolRequest) (Intent, error) {
	result, err := r.chain.Invoke(ctx, req)
	if err != nil {
		return DoNothing, err
	}
	if !result.Intent.Valid() {
		return DoNothing, fmt.Errorf("invalid intent %q returned by %s", result.Intent, parseIntentToolName)
	}
	return result.Intent, nil
}
