// Package testcases drives the assistant against a real chat model. The tests only run with
// EXPENSEFORM_RUN_LIVE_TESTS=1 and a ../config.json holding api_key, base_url and model.
package testcases

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino-ext/components/model/openai"

	"github.com/tbxark/expenseform"
	"github.com/tbxark/expenseform/assistant"
	"github.com/tbxark/expenseform/schema"
	"github.com/tbxark/expenseform/transport"
	"github.com/tbxark/expenseform/verify"
)

type Config struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
}

func loadConfig(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var conf Config
	if err := sonic.Unmarshal(file, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

func InitChatModel(t *testing.T) *openai.ChatModel {
	t.Helper()
	if os.Getenv("EXPENSEFORM_RUN_LIVE_TESTS") != "1" {
		t.Skip("set EXPENSEFORM_RUN_LIVE_TESTS=1 to run live LLM tests")
	}
	conf, err := loadConfig("../config.json")
	if err != nil {
		t.Skipf("failed to load config: %v", err)
	}
	if conf.APIKey == "" {
		t.Skip("config.json api_key is empty")
	}
	chatModel, err := openai.NewChatModel(context.Background(), &openai.ChatModelConfig{
		APIKey:  conf.APIKey,
		Model:   conf.Model,
		BaseURL: conf.BaseURL,
	})
	if err != nil {
		t.Fatalf("failed to init chat model: %v", err)
	}
	return chatModel
}

// Receiver is a stand-in submission server that records the endpoints it was called on.
type Receiver struct {
	mu        sync.Mutex
	endpoints []string
	server    *httptest.Server
}

func NewReceiver(t *testing.T) *Receiver {
	r := &Receiver{}
	r.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if err := req.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"bad form"}`))
			return
		}
		r.mu.Lock()
		r.endpoints = append(r.endpoints, req.URL.Path)
		r.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(r.server.Close)
	return r
}

func (r *Receiver) Endpoints() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.endpoints...)
}

// Harness is a session wired to a Receiver and a tool-based flow.
type Harness struct {
	Session  *expenseform.Session
	Flow     *assistant.Flow
	Receiver *Receiver
	question string
}

func NewHarness(t *testing.T) *Harness {
	chatModel := InitChatModel(t)
	reg, err := schema.DefaultRegistry()
	if err != nil {
		t.Fatal(err)
	}
	receiver := NewReceiver(t)
	session, err := expenseform.NewSession(reg, verify.NewManual("live-token"), transport.NewHTTPClient(receiver.server.URL))
	if err != nil {
		t.Fatal(err)
	}
	if err := session.RequestVerification(context.Background()); err != nil {
		t.Fatal(err)
	}
	flow, err := assistant.NewToolBasedFlow(chatModel)
	if err != nil {
		t.Fatalf("failed to create flow: %v", err)
	}
	return &Harness{Session: session, Flow: flow, Receiver: receiver}
}

func (h *Harness) Say(t *testing.T, input string) *assistant.Response {
	t.Helper()
	resp, err := h.Flow.Invoke(context.Background(), h.Session, &assistant.Request{
		UserInput:      input,
		LatestQuestion: h.question,
	})
	if err != nil {
		t.Fatalf("turn %q failed: %v", input, err)
	}
	h.question = resp.Message
	t.Logf("user: %s\nassistant: %s", input, resp.Message)
	return resp
}
