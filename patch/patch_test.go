package patch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tbxark/expenseform/internal/fakemodel"
	"github.com/tbxark/expenseform/types"
)

var testAllowed = []string{
	"/firstName",
	"/email",
	"/expenses/-",
	"/expenses/*",
	"/expenses/*/amount",
}

func TestPathAllowed(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/firstName", true},
		{"/lastName", false},
		{"/expenses/-", true},
		{"/expenses/3", true},
		{"/expenses/0/amount", true},
		{"/expenses/-/amount", false},
		{"/expenses/0/id", false},
		{"/expenses", false},
		{"/expenses//amount", false},
	}
	for _, tt := range tests {
		if got := PathAllowed(tt.path, testAllowed); got != tt.want {
			t.Errorf("PathAllowed(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestValidatePatchOperations(t *testing.T) {
	ok := []Operation{{Op: OperationReplace, Path: "/email", Value: "a@b.c"}}
	if err := ValidatePatchOperations(ok, testAllowed); err != nil {
		t.Errorf("err = %v", err)
	}
	move := []Operation{{Op: "move", Path: "/email"}}
	if err := ValidatePatchOperations(move, testAllowed); !errors.Is(err, ErrUnsupportedOperation) {
		t.Errorf("err = %v", err)
	}
	id := []Operation{{Op: OperationReplace, Path: "/expenses/0/id", Value: 9}}
	if err := ValidatePatchOperations(id, testAllowed); !errors.Is(err, ErrPathNotAllowed) {
		t.Errorf("err = %v", err)
	}
}

func testDocument() map[string]any {
	return map[string]any{
		"firstName": "",
		"email":     "",
		"expenses": []map[string]any{
			{"id": 1, "amount": ""},
		},
	}
}

func TestApplyRFC6902(t *testing.T) {
	doc := testDocument()
	out, err := ApplyRFC6902(doc, []Operation{
		{Op: OperationReplace, Path: "/firstName", Value: "Ada"},
		{Op: OperationReplace, Path: "/expenses/0/amount", Value: "20"},
		{Op: OperationAdd, Path: "/expenses/-", Value: map[string]any{"amount": "5"}},
		{Op: OperationRemove, Path: "/expenses/7"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if out["firstName"] != "Ada" {
		t.Errorf("firstName = %v", out["firstName"])
	}
	expenses := out["expenses"].([]any)
	if len(expenses) != 2 {
		t.Fatalf("expenses = %v", expenses)
	}
	if expenses[0].(map[string]any)["amount"] != "20" || expenses[1].(map[string]any)["amount"] != "5" {
		t.Errorf("expenses = %v", expenses)
	}
	if doc["firstName"] != "" {
		t.Error("input document modified")
	}
}

func TestFixOperations(t *testing.T) {
	doc := map[string]any{"email": "x", "expenses": []any{map[string]any{"id": 1.0}}}
	ops := FixOperations(doc, []Operation{
		{Op: OperationReplace, Path: "/firstName", Value: "Ada"},
		{Op: OperationReplace, Path: "/email", Value: "y"},
		{Op: OperationRemove, Path: "/expenses/1"},
		{Op: OperationRemove, Path: "/expenses/0"},
	})
	if len(ops) != 3 {
		t.Fatalf("ops = %+v", ops)
	}
	if ops[0].Op != OperationAdd || ops[1].Op != OperationReplace || ops[2].Path != "/expenses/0" {
		t.Errorf("ops = %+v", ops)
	}
}

func TestToolBasedPatchGenerator(t *testing.T) {
	cm := fakemodel.New().
		Script(updateFormToolName, `{"ops":[{"op":"replace","path":"/email","value":"ada@example.com"}]}`).
		Script(updateFormToolName, `{"ops":[{"op":"replace","path":"/expenses/0/id","value":4}]}`)
	gen, err := NewToolBasedPatchGenerator(cm)
	if err != nil {
		t.Fatal(err)
	}
	req := &Request{
		ToolRequest: &types.ToolRequest{
			FormType:    "Reimbursement Request",
			Document:    testDocument(),
			MessagePair: types.MessagePair{Answer: "my email is ada@example.com"},
		},
		AllowedPaths:  testAllowed,
		FieldGuidance: map[string]string{"/email": "A reachable address"},
	}
	args, err := gen.GeneratePatch(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(args.Ops) != 1 || args.Ops[0].Value != "ada@example.com" {
		t.Errorf("ops = %+v", args.Ops)
	}
	prompt := cm.Calls()[0].Messages[1].Content
	for _, want := range []string{"# Allowed paths:", "/expenses/*/amount", "# Field guidance:", "my email is ada@example.com"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	if _, err := gen.GeneratePatch(context.Background(), req); !errors.Is(err, ErrPathNotAllowed) {
		t.Errorf("err = %v", err)
	}
}
