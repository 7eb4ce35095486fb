// Package transport delivers an assembled submission to the remote intake endpoint.
package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/tbxark/expenseform/attachment"
)

// ErrEncode marks a payload that could not be assembled, for example because an attachment
// is no longer readable. Nothing was sent.
var ErrEncode = errors.New("failed to encode payload")

type File struct {
	FieldName  string
	Attachment attachment.Attachment
}

// Payload is one submission: one multipart field per form value and per file.
type Payload struct {
	FirstName         string
	LastName          string
	Email             string
	Comments          string
	ExpensesJSON      string
	VerificationToken string
	Files             []File
}

// Transport sends a payload to endpoint. A rejection by the server is reported as
// *ServerError and a payload that could not be assembled wraps ErrEncode; any other error
// means the server could not be reached.
type Transport interface {
	Send(ctx context.Context, endpoint string, payload *Payload) error
}

// FilesFromAttachments names files file0, file1, ... in order.
func FilesFromAttachments(files []attachment.Attachment) []File {
	out := make([]File, 0, len(files))
	for i, f := range files {
		out = append(out, File{FieldName: fmt.Sprintf("file%d", i), Attachment: f})
	}
	return out
}

type ServerError struct {
	StatusCode int
	// Message is the server supplied reason, empty when the body carried none.
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server rejected submission with status %d", e.StatusCode)
	}
	return fmt.Sprintf("server rejected submission with status %d: %s", e.StatusCode, e.Message)
}
