package types

import (
	"strings"
	"testing"
)

func TestFormatToolRequest(t *testing.T) {
	msg, err := FormatToolRequest(&ToolRequest{
		FormType:       "Purchase Approval",
		Document:       map[string]any{"email": "ada@example.com"},
		DocumentSchema: `{"type":"object"}`,
		Status:         StatusFailed,
		StatusMessage:  "Submission failed. Please try again.",
		MessagePair:    MessagePair{Question: "Anything else?", Answer: "submit"},
		MissingFields: []FieldInfo{
			{JSONPointer: "/lastName", DisplayName: "Last Name", Required: true},
		},
		ValidationErrors: []FieldInfo{
			{JSONPointer: "/expenses/0/amount", Description: "value is not a number"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"# Form type:\nPurchase Approval",
		`"email":"ada@example.com"`,
		"# Form document schema JSON:",
		"# Submission status:\nfailed",
		"# Status message:\nSubmission failed. Please try again.",
		"## User Answer:\nsubmit",
		"/lastName",
		"value is not a number",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}

	msg, _ = FormatToolRequest(&ToolRequest{FormType: "x"})
	if strings.Contains(msg, "Latest Dialogue") || strings.Contains(msg, "Missing required") {
		t.Errorf("empty sections rendered:\n%s", msg)
	}
}
