// Package fakemodel provides a scripted chat model for tests of the LLM-backed generators.
package fakemodel

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ChatModel answers forced tool calls with scripted arguments, keyed by tool name, and plain
// generations with Reply.
type ChatModel struct {
	mu    sync.Mutex
	tools map[string][]string
	Reply string
	Err   error
	calls []Call
}

type Call struct {
	Tool     string
	Messages []*schema.Message
}

var _ model.ToolCallingChatModel = (*ChatModel)(nil)

func New() *ChatModel {
	return &ChatModel{tools: map[string][]string{}}
}

// Script queues argument payloads returned, in order, for calls forced onto tool.
func (m *ChatModel) Script(tool string, arguments ...string) *ChatModel {
	m.mu.Lock()
	m.tools[tool] = append(m.tools[tool], arguments...)
	m.mu.Unlock()
	return m
}

func (m *ChatModel) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := model.GetCommonOptions(nil, opts...)
	m.mu.Lock()
	defer m.mu.Unlock()
	tool := ""
	if len(options.Tools) > 0 {
		tool = options.Tools[0].Name
	}
	m.calls = append(m.calls, Call{Tool: tool, Messages: input})
	if m.Err != nil {
		return nil, m.Err
	}
	if tool == "" {
		return schema.AssistantMessage(m.Reply, nil), nil
	}
	queue := m.tools[tool]
	if len(queue) == 0 {
		return nil, fmt.Errorf("fakemodel: nothing scripted for %s", tool)
	}
	args := queue[0]
	m.tools[tool] = queue[1:]
	return schema.AssistantMessage("", []schema.ToolCall{{
		ID:       fmt.Sprintf("call_%d", len(m.calls)),
		Function: schema.FunctionCall{Name: tool, Arguments: args},
	}}), nil
}

func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *ChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}
