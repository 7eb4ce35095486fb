package intent

import (
	"context"
	"errors"
	"strings"

	"github.com/tbxark/expenseform/types"
)

// LocalRecognizer matches the whole answer against fixed keywords. Anything else is an
// edit, so free text still reaches the patch generator.
type LocalRecognizer struct {
	SubmitKeywords []string
	ResetKeywords  []string
	IdleKeywords   []string
}

func NewLocalRecognizer() *LocalRecognizer {
	return &LocalRecognizer{
		SubmitKeywords: []string{"submit", "send", "send it", "confirm", "done"},
		ResetKeywords:  []string{"reset", "clear", "start over", "cancel"},
		IdleKeywords:   []string{"hi", "hello", "thanks", "thank you", "ok"},
	}
}

func (r *LocalRecognizer) RecognizeIntent(ctx context.Context, req *types.ToolRequest) (Intent, error) {
	normalized := strings.ToLower(strings.TrimSpace(req.MessagePair.Answer))
	normalized = strings.TrimRight(normalized, ".!")
	if normalized == "" {
		return DoNothing, nil
	}
	for _, keyword := range r.SubmitKeywords {
		if normalized == keyword {
			return Submit, nil
		}
	}
	for _, keyword := range r.ResetKeywords {
		if normalized == keyword {
			return Reset, nil
		}
	}
	for _, keyword := range r.IdleKeywords {
		if normalized == keyword {
			return DoNothing, nil
		}
	}
	return Edit, nil
}

// FailbackRecognizer asks each recognizer in turn until one succeeds.
type FailbackRecognizer struct {
	recognizers []Recognizer
}

func NewFailbackRecognizer(recognizers ...Recognizer) *FailbackRecognizer {
	return &FailbackRecognizer{recognizers: recognizers}
}

func (r *FailbackRecognizer) RecognizeIntent(ctx context.Context, req *types.ToolRequest) (Intent, error) {
	lastErr := errors.New("no intent recognizer configured")
	for _, recognizer := range r.recognizers {
		result, err := recognizer.RecognizeIntent(ctx, req)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return DoNothing, lastErr
}
