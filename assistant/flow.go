package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"

	"github.com/tbxark/expenseform"
	"github.com/tbxark/expenseform/dialogue"
	"github.com/tbxark/expenseform/intent"
	"github.com/tbxark/expenseform/patch"
	"github.com/tbxark/expenseform/schema"
	"github.com/tbxark/expenseform/types"
)

const (
	msgReset    = "The form has been cleared. Let's start again."
	msgInFlight = "Your form is already being submitted, please wait."
)

type Request struct {
	UserInput      string `json:"user_input"`
	LatestQuestion string `json:"latest_question,omitempty"`
}

type Response struct {
	Message  string            `json:"message"`
	Intent   intent.Intent     `json:"intent"`
	Status   types.Status      `json:"status"`
	Changes  Changes           `json:"changes"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Flow runs one conversational turn against a session: recognize the intent, then edit,
// submit or reset the form, then phrase the next question.
type Flow struct {
	patchGenerator    patch.Generator
	dialogueGenerator dialogue.Generator
	recognizer        intent.Recognizer
}

func NewFlow(patchGen patch.Generator, dialogueGen dialogue.Generator, recognizer intent.Recognizer) (*Flow, error) {
	if patchGen == nil || dialogueGen == nil || recognizer == nil {
		return nil, errors.New("flow needs a patch generator, a dialogue generator and an intent recognizer")
	}
	return &Flow{
		patchGenerator:    patchGen,
		dialogueGenerator: dialogueGen,
		recognizer:        recognizer,
	}, nil
}

// NewToolBasedFlow backs every step with chatModel. Intent and dialogue fall back to the
// local implementations when the model fails.
func NewToolBasedFlow(chatModel model.ToolCallingChatModel) (*Flow, error) {
	recognizer, err := intent.NewToolBasedRecognizer(chatModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool-based intent recognizer: %w", err)
	}
	patchGen, err := patch.NewToolBasedPatchGenerator(chatModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool-based patch generator: %w", err)
	}
	return NewFlow(
		patchGen,
		dialogue.NewFailbackDialogueGenerator(dialogue.NewToolBasedDialogueGenerator(chatModel), &dialogue.LocalDialogueGenerator{}),
		intent.NewFailbackRecognizer(recognizer, intent.NewLocalRecognizer()),
	)
}

func (f *Flow) Invoke(ctx context.Context, s *expenseform.Session, input *Request) (*Response, error) {
	if s == nil || input == nil {
		return nil, errors.New("flow needs a session and a request")
	}
	toolRequest, fs, err := buildToolRequest(s, input)
	if err != nil {
		return nil, err
	}

	slog.Debug("Recognizing intent", "form_type", fs.ID)
	recognized, err := f.recognizer.RecognizeIntent(ctx, toolRequest)
	if err != nil {
		return f.handleError(s, fmt.Errorf("failed to recognize intent: %w", err)), nil
	}
	slog.Debug("Recognized intent", "intent", recognized)

	resp := &Response{Intent: recognized}
	switch recognized {
	case intent.Submit:
		return f.handleSubmit(ctx, s, resp), nil
	case intent.Reset:
		s.Reset()
		s.Acknowledge()
		resp.Message = msgReset
		resp.Status = s.Status()
		return resp, nil
	case intent.Edit:
		s.Acknowledge()
		schemaJSON, sErr := DocumentSchema(fs)
		if sErr != nil {
			return nil, sErr
		}
		toolRequest.DocumentSchema = schemaJSON
		updateArgs, pErr := f.patchGenerator.GeneratePatch(ctx, &patch.Request{
			ToolRequest:   toolRequest,
			AllowedPaths:  AllowedPaths(fs),
			FieldGuidance: FieldGuidance(fs),
		})
		if pErr != nil {
			return f.handleError(s, fmt.Errorf("failed to generate patch: %w", pErr)), nil
		}
		slog.Debug("Applying patch", "ops", updateArgs.Ops)
		changes, pErr := ApplyPatch(s, fs, updateArgs.Ops)
		if pErr != nil {
			return f.handleError(s, fmt.Errorf("failed to apply patch: %w", pErr)), nil
		}
		resp.Changes = changes
		slog.Debug("Applied patch", "changes", changes)
	case intent.DoNothing:
	}

	toolRequest, _, err = buildToolRequest(s, input)
	if err != nil {
		return nil, err
	}
	question, err := f.dialogueGenerator.GenerateDialogue(ctx, toolRequest)
	if err != nil {
		return f.handleError(s, fmt.Errorf("failed to generate dialogue: %w", err)), nil
	}
	slog.Debug("Generated dialogue", "question", question)
	resp.Message = question
	resp.Status = s.Status()
	return resp, nil
}

func (f *Flow) handleSubmit(ctx context.Context, s *expenseform.Session, resp *Response) *Response {
	err := s.Submit(ctx)
	resp.Status = s.Status()
	switch {
	case errors.Is(err, expenseform.ErrSubmitInFlight):
		resp.Message = msgInFlight
	default:
		resp.Message = s.Message()
	}
	if err != nil {
		resp.Metadata = map[string]string{"error": err.Error()}
	}
	return resp
}

func (f *Flow) handleError(s *expenseform.Session, err error) *Response {
	slog.Warn("Assistant turn failed", "err", err)
	return &Response{
		Message: fmt.Sprintf("Sorry, something went wrong while processing your input: %s", err.Error()),
		Intent:  intent.DoNothing,
		Status:  s.Status(),
		Metadata: map[string]string{
			"error": err.Error(),
		},
	}
}

func buildToolRequest(s *expenseform.Session, input *Request) (*types.ToolRequest, *schema.FormSchema, error) {
	snap := s.Snapshot()
	fs, err := s.Registry().Lookup(snap.FormType)
	if err != nil {
		return nil, nil, err
	}
	missing := s.MissingIdentity()
	rowMissing, invalid := s.Issues()
	missing = append(missing, rowMissing...)
	if !snap.HasToken {
		missing = append(missing, types.FieldInfo{
			JSONPointer: "/captchaToken",
			DisplayName: "Verification",
			Description: "Complete the verification challenge before submitting",
			Required:    true,
		})
	}
	return &types.ToolRequest{
		FormType:      fs.Title,
		Document:      BuildDocument(snap, fs),
		Status:        snap.Status,
		StatusMessage: snap.Message,
		MessagePair: types.MessagePair{
			Question: input.LatestQuestion,
			Answer:   input.UserInput,
		},
		MissingFields:    missing,
		ValidationErrors: invalid,
	}, fs, nil
}
