package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/expenseform/store"
)

var _ adk.Agent = (*Agent)(nil)

// Agent exposes a Flow as an adk agent. The session and the last question asked are looked
// up by the routing key of the run context.
type Agent struct {
	name        string
	description string
	flow        *Flow
	sessions    *store.Sessions
	questions   *store.Store[string]
}

func NewAgent(name, description string, flow *Flow, sessions *store.Sessions) *Agent {
	return &Agent{
		name:        name,
		description: description,
		flow:        flow,
		sessions:    sessions,
		questions:   store.NewStore[string](nil, "assistant:question", store.KeyOrDefault),
	}
}

func (a *Agent) Name(ctx context.Context) string {
	return a.name
}

func (a *Agent) Description(ctx context.Context) string {
	return a.description
}

func (a *Agent) Run(ctx context.Context, input *adk.AgentInput, options ...adk.AgentRunOption) *adk.AsyncIterator[*adk.AgentEvent] {
	iter, gen := adk.NewAsyncIteratorPair[*adk.AgentEvent]()
	go func() {
		defer func() {
			if e := recover(); e != nil {
				gen.Send(&adk.AgentEvent{Err: fmt.Errorf("recover from panic: %v", e)})
			}
			gen.Close()
		}()
		resp, err := a.turn(ctx, input)
		if err != nil {
			gen.Send(&adk.AgentEvent{Err: err})
			return
		}
		gen.Send(&adk.AgentEvent{
			Output: &adk.AgentOutput{
				MessageOutput: &adk.MessageVariant{
					Message: schema.AssistantMessage(resp.Message, nil),
					Role:    schema.Assistant,
				},
			},
		})
	}()
	return iter
}

func (a *Agent) turn(ctx context.Context, input *adk.AgentInput) (*Response, error) {
	if input == nil || len(input.Messages) == 0 {
		return nil, errors.New("no messages in input")
	}
	session, err := a.sessions.Open(ctx)
	if err != nil {
		return nil, err
	}
	question, _, err := a.questions.Get(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := a.flow.Invoke(ctx, session, &Request{
		UserInput:      input.Messages[len(input.Messages)-1].Content,
		LatestQuestion: question,
	})
	if err != nil {
		return nil, fmt.Errorf("flow invoke failed: %w", err)
	}
	if err := a.questions.Set(ctx, resp.Message); err != nil {
		return nil, err
	}
	return resp, nil
}
