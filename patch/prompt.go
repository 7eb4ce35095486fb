package patch

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/expenseform/types"
)

const DefaultPatchSystemPromptTemplate = `You are an assistant filling an expense intake form from the user's messages.
Call %s with RFC6902 JSON Patch operations over the form document.

Rules:
- Only use information the user stated explicitly.
- Use replace for fields that already exist and add for new members.
- Add a new expense with op add on /expenses/- and an object holding the expense fields.
- Never set "id" or computed fields; they are maintained by the form.
- Amounts are plain decimal numbers written as strings, without currency symbols.
- Only use the allowed paths. If nothing can be extracted, return an empty ops list.`

func formatAllowedPaths(paths []string) string {
	var sb strings.Builder
	sb.WriteString("# Allowed paths:\n")
	for _, path := range paths {
		sb.WriteString("- ")
		sb.WriteString(path)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatFieldGuidanceSection(guidance map[string]string) string {
	if len(guidance) == 0 {
		return ""
	}
	keys := make([]string, 0, len(guidance))
	for path := range guidance {
		keys = append(keys, path)
	}
	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteString("# Field guidance:\n")
	for _, path := range keys {
		fmt.Fprintf(&sb, "- %s: %s\n", path, guidance[path])
	}
	return strings.TrimRight(sb.String(), "\n")
}

func buildPatchPrompt(systemPrompt string) func(ctx context.Context, req *Request) ([]*schema.Message, error) {
	return func(ctx context.Context, req *Request) ([]*schema.Message, error) {
		message, err := types.FormatToolRequest(req.ToolRequest)
		if err != nil {
			return nil, fmt.Errorf("convert to prompt message failed: %w", err)
		}
		sections := []string{message, formatAllowedPaths(req.AllowedPaths)}
		if s := formatFieldGuidanceSection(req.FieldGuidance); s != "" {
			sections = append(sections, s)
		}
		return []*schema.Message{
			schema.SystemMessage(systemPrompt),
			schema.UserMessage(strings.Join(sections, "\n\n")),
		}, nil
	}
}
