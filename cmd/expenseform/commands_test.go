package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudwego/eino/adk"
	einoschema "github.com/cloudwego/eino/schema"

	"github.com/tbxark/expenseform"
	"github.com/tbxark/expenseform/assistant"
	"github.com/tbxark/expenseform/schema"
	"github.com/tbxark/expenseform/transport"
	"github.com/tbxark/expenseform/types"
	"github.com/tbxark/expenseform/verify"
)

type recordingTransport struct {
	payloads []*transport.Payload
}

func (r *recordingTransport) Send(ctx context.Context, endpoint string, p *transport.Payload) error {
	r.payloads = append(r.payloads, p)
	return nil
}

func newConsole(t *testing.T) (*console, *bytes.Buffer, *recordingTransport) {
	t.Helper()
	reg, err := schema.DefaultRegistry()
	if err != nil {
		t.Fatal(err)
	}
	tr := &recordingTransport{}
	s, err := expenseform.NewSession(reg, verify.NewManual(), tr)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	return &console{session: s, out: &out}, &out, tr
}

func TestConsoleFillAndSubmit(t *testing.T) {
	c, out, tr := newConsole(t)
	ctx := context.Background()
	dir := t.TempDir()
	receipt := filepath.Join(dir, "receipt.pdf")
	if err := os.WriteFile(receipt, []byte("%PDF-1.4"), 0o600); err != nil {
		t.Fatal(err)
	}
	for _, line := range []string{
		"set firstName Ada",
		"set lastName Lovelace",
		"set email ada@example.com",
		"set comments lab supplies for week 3",
		"row set 1 vendor Acme Labs",
		"row set 1 amount 10",
		"row set 1 hst excluded",
		"attach " + receipt,
		"token abc",
		"show",
	} {
		if c.execute(ctx, line) {
			t.Fatalf("%q quit the console", line)
		}
	}
	shown := out.String()
	for _, want := range []string{"Acme Labs", "11.30", "receipt.pdf (8 Bytes)", "Verified: yes"} {
		if !strings.Contains(shown, want) {
			t.Errorf("show output missing %q:\n%s", want, shown)
		}
	}
	if strings.Contains(shown, "error:") {
		t.Errorf("unexpected error:\n%s", shown)
	}

	c.execute(ctx, "submit")
	if len(tr.payloads) != 1 {
		t.Fatalf("payloads = %d", len(tr.payloads))
	}
	if tr.payloads[0].Comments != "lab supplies for week 3" || len(tr.payloads[0].Files) != 1 {
		t.Errorf("payload = %+v", tr.payloads[0])
	}
	if !strings.Contains(out.String(), "Reimbursement Request submitted successfully!") {
		t.Errorf("output = %s", out.String())
	}
	if c.session.Status() != types.StatusSucceeded {
		t.Errorf("status = %s", c.session.Status())
	}
}

func TestConsoleErrors(t *testing.T) {
	c, out, _ := newConsole(t)
	ctx := context.Background()
	for _, line := range []string{
		"type Travel",
		"row rm 1",
		"row set x amount 1",
		"set phone 555",
		"ask hello",
		"bogus",
	} {
		out.Reset()
		c.execute(ctx, line)
		if !strings.HasPrefix(out.String(), "error:") {
			t.Errorf("%q printed %q", line, out.String())
		}
	}
	if !c.execute(ctx, "quit") {
		t.Error("quit did not exit")
	}
}

func TestConsoleSwitchType(t *testing.T) {
	c, out, _ := newConsole(t)
	c.execute(context.Background(), "type Purchase Approval")
	if c.session.Schema().ID != "Purchase Approval" || !strings.Contains(out.String(), "Form type: Purchase Approval") {
		t.Errorf("output = %q", out.String())
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"server_url":"https://forms.example.org","max_file_size_mb":2}`), 0o600); err != nil {
		t.Fatal(err)
	}
	conf, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if conf.ServerURL != "https://forms.example.org" || conf.TimeoutSeconds != 60 {
		t.Errorf("conf = %+v", conf)
	}
	p := conf.attachmentPolicy()
	if p.MaxFileSize != 2<<20 || p.MaxTotalSize != 50<<20 {
		t.Errorf("policy = %+v", p)
	}
}

// actionAgent emits an event without output before its reply.
type actionAgent struct{}

func (actionAgent) Name(ctx context.Context) string        { return "action" }
func (actionAgent) Description(ctx context.Context) string { return "emits a bare event" }

func (actionAgent) Run(ctx context.Context, input *adk.AgentInput, options ...adk.AgentRunOption) *adk.AsyncIterator[*adk.AgentEvent] {
	iter, gen := adk.NewAsyncIteratorPair[*adk.AgentEvent]()
	go func() {
		defer gen.Close()
		gen.Send(&adk.AgentEvent{})
		gen.Send(&adk.AgentEvent{
			Output: &adk.AgentOutput{
				MessageOutput: &adk.MessageVariant{
					Message: einoschema.AssistantMessage("Which vendor was it?", nil),
					Role:    einoschema.Assistant,
				},
			},
		})
	}()
	return iter
}

func TestConsoleAskSkipsEventsWithoutOutput(t *testing.T) {
	c, out, _ := newConsole(t)
	ctx := context.Background()
	c.runner = adk.NewRunner(ctx, adk.RunnerConfig{Agent: actionAgent{}})
	c.history = assistant.NewMemoryHistoryStore(assistant.KeepSystemLastNTrimmer{N: 10})

	if quit := c.execute(ctx, "ask I paid for lunch"); quit {
		t.Fatal("ask should not quit")
	}
	if strings.Contains(out.String(), "error:") {
		t.Fatalf("output = %q", out.String())
	}
	if !strings.Contains(out.String(), "assistant: Which vendor was it?") {
		t.Errorf("output = %q", out.String())
	}
	hist, err := c.history.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 2 {
		t.Errorf("history = %d messages", len(hist))
	}
}
