package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
)

const maxErrorBody = 64 * 1024

// HTTPClient posts payloads as multipart/form-data to baseURL + endpoint.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*HTTPClient)

func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) {
		if c != nil {
			h.httpClient = c
		}
	}
}

func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Transport = (*HTTPClient)(nil)

func (c *HTTPClient) Send(ctx context.Context, endpoint string, payload *Payload) error {
	body, contentType, err := encodeMultipart(payload)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	uri := c.baseURL + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uri, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	slog.Debug("Sending submission", "url", uri, "files", len(payload.Files), "bytes", body.Len())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return errorFromResponse(resp)
}

func errorFromResponse(resp *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("failed to read error response: %w", err)
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := sonic.Unmarshal(data, &body); err != nil {
		slog.Debug("Error response without JSON body", "status", resp.StatusCode, "err", err)
	}
	return &ServerError{StatusCode: resp.StatusCode, Message: body.Error}
}

func encodeMultipart(p *Payload) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	fields := []struct{ name, value string }{
		{"firstName", p.FirstName},
		{"lastName", p.LastName},
		{"email", p.Email},
		{"comments", p.Comments},
		{"expenses", p.ExpensesJSON},
		{"captchaToken", p.VerificationToken},
	}
	for _, f := range fields {
		if err := writer.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}
	for _, f := range p.Files {
		if err := writeFilePart(writer, f); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &body, writer.FormDataContentType(), nil
}

func writeFilePart(w *multipart.Writer, f File) error {
	part, err := w.CreateFormFile(f.FieldName, f.Attachment.Name)
	if err != nil {
		return err
	}
	rc, err := f.Attachment.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	if _, err := io.Copy(part, rc); err != nil {
		return fmt.Errorf("failed to copy %s: %w", f.Attachment.Name, err)
	}
	return nil
}
