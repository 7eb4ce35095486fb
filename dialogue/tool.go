package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/expenseform/types"
)

// DefaultDialogueSystemPromptTemplate may contain a single "%s" placeholder for the language.
const DefaultDialogueSystemPromptTemplate = `You are a friendly assistant helping someone fill in an expense intake form.

Respond as if chatting with a colleague:
- If required fields are missing, mention one or two of them and ask for the information. Do not list everything at once.
- If values are invalid, point them out plainly and suggest a correction.
- Briefly acknowledge what was just filled in.
- If nothing is missing and the submission status is not success, ask whether to submit the form.
- If the last submission failed, relay the reason and offer to retry.
- Avoid lists or bullet points.
- Reply in %s.
`

type ToolBasedDialogueGenerator struct {
	lang         string
	systemPrompt string
	chatModel    model.ToolCallingChatModel
}

type dialogueGeneratorOptions struct {
	lang                 string
	systemPrompt         string
	systemPromptTemplate string
}

type GeneratorOption func(*dialogueGeneratorOptions)

func WithDialogueLang(lang string) GeneratorOption {
	return func(o *dialogueGeneratorOptions) {
		o.lang = lang
	}
}

// WithDialogueSystemPrompt replaces the system prompt entirely.
func WithDialogueSystemPrompt(systemPrompt string) GeneratorOption {
	return func(o *dialogueGeneratorOptions) {
		o.systemPrompt = systemPrompt
	}
}

func WithDialogueSystemPromptTemplate(systemPromptTemplate string) GeneratorOption {
	return func(o *dialogueGeneratorOptions) {
		o.systemPromptTemplate = systemPromptTemplate
	}
}

func NewToolBasedDialogueGenerator(chatModel model.ToolCallingChatModel, opts ...GeneratorOption) *ToolBasedDialogueGenerator {
	options := dialogueGeneratorOptions{
		lang:                 "English",
		systemPromptTemplate: DefaultDialogueSystemPromptTemplate,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if options.lang == "" {
		options.lang = "English"
	}
	systemPrompt := options.systemPrompt
	if systemPrompt == "" {
		systemPrompt = options.systemPromptTemplate
		if strings.Contains(systemPrompt, "%s") {
			systemPrompt = fmt.Sprintf(systemPrompt, options.lang)
		}
	}
	return &ToolBasedDialogueGenerator{
		lang:         options.lang,
		systemPrompt: systemPrompt,
		chatModel:    chatModel,
	}
}

func (g *ToolBasedDialogueGenerator) GenerateDialogue(ctx context.Context, req *types.ToolRequest) (string, error) {
	message, err := types.FormatToolRequest(req)
	if err != nil {
		return "", fmt.Errorf("build dialogue prompt: %w", err)
	}
	response, err := g.chatModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage(g.systemPrompt),
		schema.UserMessage(message),
	})
	if err != nil {
		return "", fmt.Errorf("LLM call failed: %w", err)
	}
	if strings.TrimSpace(response.Content) == "" {
		return "", fmt.Errorf("LLM returned an empty reply")
	}
	return response.Content, nil
}
