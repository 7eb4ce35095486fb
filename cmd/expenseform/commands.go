package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/tbxark/expenseform"
	"github.com/tbxark/expenseform/assistant"
	"github.com/tbxark/expenseform/attachment"
)

const helpText = `Commands:
  type <form type>             switch the form type
  set <field> <value>          set firstName, lastName, email or comments
  row add                      add an expense row
  row rm <id>                  remove an expense row
  row set <id> <key> <value>   edit an expense cell
  attach <path>...             attach files
  detach <index>               remove an attachment
  token [value]                store a verification token, or request one
  submit                       submit the form
  reset                        clear the form
  show                         print the form
  ask <text>                   talk to the assistant
  quit                         exit`

var errUsage = errors.New("invalid arguments, type \"help\" for usage")

type console struct {
	session *expenseform.Session
	out     io.Writer
	runner  *adk.Runner
	history *assistant.HistoryStore
}

// execute runs one command line and reports whether the console should exit.
func (c *console) execute(ctx context.Context, line string) bool {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false
	}
	var err error
	switch args[0] {
	case "help":
		fmt.Fprintln(c.out, helpText)
	case "quit", "exit":
		return true
	case "type":
		err = c.session.SwitchFormType(strings.Join(args[1:], " "))
		if err == nil {
			fmt.Fprintf(c.out, "Form type: %s\n", c.session.Schema().Title)
		}
	case "set":
		if len(args) < 2 {
			err = errUsage
			break
		}
		err = c.session.SetIdentity(expenseform.IdentityField(args[1]), strings.Join(args[2:], " "))
	case "row":
		err = c.row(args[1:])
	case "attach":
		err = c.attach(args[1:])
	case "detach":
		err = c.detach(args[1:])
	case "token":
		err = c.token(ctx, args[1:])
	case "submit":
		err = c.session.Submit(ctx)
		fmt.Fprintln(c.out, c.session.Message())
		if err != nil {
			return false
		}
	case "reset":
		c.session.Reset()
		c.session.Acknowledge()
	case "show":
		err = c.show()
	case "ask":
		err = c.ask(ctx, strings.Join(args[1:], " "))
	default:
		err = fmt.Errorf("unknown command %q, type \"help\" for usage", args[0])
	}
	if err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
	}
	return false
}

func (c *console) row(args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "add":
		r := c.session.AddRow()
		fmt.Fprintf(c.out, "Added row %d\n", r.ID)
		return nil
	case "rm":
		if len(args) != 2 {
			return errUsage
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return errUsage
		}
		if !c.session.RemoveRow(id) {
			return fmt.Errorf("row %d cannot be removed", id)
		}
		return nil
	case "set":
		if len(args) < 3 {
			return errUsage
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return errUsage
		}
		if !c.session.UpdateField(id, args[2], strings.Join(args[3:], " ")) {
			return fmt.Errorf("cannot set %q on row %d", args[2], id)
		}
		return nil
	default:
		return errUsage
	}
}

func (c *console) attach(paths []string) error {
	if len(paths) == 0 {
		return errUsage
	}
	files := make([]attachment.Attachment, 0, len(paths))
	for _, path := range paths {
		f, err := attachment.FromFile(path)
		if err != nil {
			return err
		}
		files = append(files, f)
	}
	return c.session.AddFiles(files...)
}

func (c *console) detach(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return errUsage
	}
	c.session.RemoveFile(index)
	return nil
}

func (c *console) token(ctx context.Context, args []string) error {
	if len(args) > 0 {
		c.session.SetVerificationToken(args[0])
		return nil
	}
	if err := c.session.RequestVerification(ctx); err != nil {
		return err
	}
	if !c.session.HasVerificationToken() {
		fmt.Fprintln(c.out, "Verification requested; enter the token with \"token <value>\".")
	}
	return nil
}

func (c *console) show() error {
	snap := c.session.Snapshot()
	fs := c.session.Schema()
	fmt.Fprintf(c.out, "Form: %s (%s)\n", snap.Title, snap.Status)
	fmt.Fprintf(c.out, "Name: %s %s\nEmail: %s\n", snap.Identity.FirstName, snap.Identity.LastName, snap.Identity.Email)
	if snap.Identity.Comments != "" {
		fmt.Fprintf(c.out, "Comments: %s\n", snap.Identity.Comments)
	}

	table := tablewriter.NewTable(c.out)
	header := []any{"ID"}
	for _, f := range fs.Fields {
		header = append(header, f.Label)
	}
	table.Header(header...)
	for _, r := range snap.Rows {
		cells := []any{strconv.Itoa(r.ID)}
		for _, f := range fs.Fields {
			cells = append(cells, r.Values[f.Key])
		}
		if err := table.Append(cells...); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	total := c.session.Total()
	fmt.Fprintf(c.out, "Total: $%s\n", humanize.FormatFloat("#,###.##", total.InexactFloat64()))
	for i, f := range snap.Files {
		fmt.Fprintf(c.out, "[%d] %s (%s)\n", i, f.Name, attachment.HumanReadableSize(f.SizeBytes))
	}
	verified := "no"
	if snap.HasToken {
		verified = "yes"
	}
	fmt.Fprintf(c.out, "Verified: %s\n", verified)
	if snap.Message != "" {
		fmt.Fprintln(c.out, snap.Message)
	}
	return nil
}

func (c *console) ask(ctx context.Context, text string) error {
	if c.runner == nil {
		return errors.New("assistant is not configured, set api_key in the config")
	}
	if text == "" {
		return errUsage
	}
	history, err := c.history.Append(ctx, schema.UserMessage(text))
	if err != nil {
		return err
	}
	iter := c.runner.Run(ctx, history)
	for {
		event, ok := iter.Next()
		if !ok {
			return nil
		}
		if event.Err != nil {
			return event.Err
		}
		if event.Output == nil || event.Output.MessageOutput == nil {
			continue
		}
		msg, err := event.Output.MessageOutput.GetMessage()
		if err != nil {
			return err
		}
		if _, err := c.history.Append(ctx, msg); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "assistant: %s\n", msg.Content)
	}
}
