package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/adk"
	"github.com/google/uuid"

	"github.com/tbxark/expenseform"
	"github.com/tbxark/expenseform/assistant"
	"github.com/tbxark/expenseform/schema"
	"github.com/tbxark/expenseform/store"
	"github.com/tbxark/expenseform/transport"
	"github.com/tbxark/expenseform/verify"
)

func main() {
	conf := flag.String("config", "config.json", "path to config file")
	flag.Parse()
	config, err := loadConfig(*conf)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	err = startApp(context.Background(), config)
	if err != nil {
		log.Fatalf("start app: %v", err)
	}
}

func loadRegistry(config *Config) (*schema.Registry, error) {
	if config.Forms == "" {
		return schema.DefaultRegistry()
	}
	return schema.LoadRegistryFile(config.Forms)
}

func startApp(ctx context.Context, config *Config) error {
	if config.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	} else {
		slog.SetLogLoggerLevel(slog.LevelInfo)
	}
	ctx = store.WithKey(ctx, uuid.NewString())

	registry, err := loadRegistry(config)
	if err != nil {
		return err
	}
	verifier := verify.NewManual()
	client := transport.NewHTTPClient(config.ServerURL, transport.WithHTTPClient(&http.Client{
		Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
	}))
	session, err := expenseform.NewSession(registry, verifier, client,
		expenseform.WithFormType(config.FormType),
		expenseform.WithAttachmentPolicy(config.attachmentPolicy()),
	)
	if err != nil {
		return err
	}

	c := &console{session: session, out: os.Stdout}
	if config.APIKey != "" {
		if err := c.enableAssistant(ctx, config); err != nil {
			return err
		}
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("%s\n%s\nType \"help\" for commands.\n", session.Schema().Title, session.Schema().Blurb)
	for {
		fmt.Print("> ")
		line, rErr := reader.ReadString('\n')
		if rErr != nil {
			fmt.Println()
			return nil
		}
		if quit := c.execute(ctx, line); quit {
			return nil
		}
	}
}

func (c *console) enableAssistant(ctx context.Context, config *Config) error {
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  config.APIKey,
		Model:   config.Model,
		BaseURL: config.BaseURL,
	})
	if err != nil {
		return err
	}
	flow, err := assistant.NewToolBasedFlow(cm)
	if err != nil {
		return err
	}
	sessions := store.NewSessions(nil, func(ctx context.Context) (*expenseform.Session, error) {
		return c.session, nil
	})
	formAgent := assistant.NewAgent(
		"ExpenseFormFiller",
		"An agent that helps users fill and submit expense intake forms via conversation",
		flow,
		sessions,
	)
	c.runner = adk.NewRunner(ctx, adk.RunnerConfig{Agent: formAgent})
	c.history = assistant.NewMemoryHistoryStore(assistant.KeepSystemLastNTrimmer{N: 50})
	return nil
}
