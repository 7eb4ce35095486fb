package types

type Status string

const (
	StatusIdle       Status = "idle"
	StatusValidating Status = "validating"
	StatusSubmitting Status = "submitting"
	StatusSucceeded  Status = "success"
	StatusFailed     Status = "failed"
)

type FieldInfo struct {
	JSONPointer string `json:"json_pointer"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

type MessagePair struct {
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer,omitempty"`
}

// ToolRequest is the view of a form session handed to the assistant generators.
type ToolRequest struct {
	FormType         string         `json:"form_type"`
	Document         map[string]any `json:"document"`
	DocumentSchema   string         `json:"document_schema,omitempty"`
	Status           Status         `json:"status"`
	StatusMessage    string         `json:"status_message,omitempty"`
	MessagePair      MessagePair    `json:"message_pair"`
	MissingFields    []FieldInfo    `json:"missing_fields,omitempty"`
	ValidationErrors []FieldInfo    `json:"validation_errors,omitempty"`
}
