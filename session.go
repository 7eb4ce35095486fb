package expenseform

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/tbxark/expenseform/attachment"
	"github.com/tbxark/expenseform/schema"
	"github.com/tbxark/expenseform/table"
	"github.com/tbxark/expenseform/transport"
	"github.com/tbxark/expenseform/types"
	"github.com/tbxark/expenseform/verify"
)

// MaxCommentLength bounds Identity.Comments, counted in runes.
const MaxCommentLength = 2000

type Identity struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Comments  string `json:"comments"`
}

type IdentityField string

const (
	FieldFirstName IdentityField = "firstName"
	FieldLastName  IdentityField = "lastName"
	FieldEmail     IdentityField = "email"
	FieldComments  IdentityField = "comments"
)

func (id Identity) complete() bool {
	return id.FirstName != "" && id.LastName != "" && id.Email != ""
}

// Session is one independent form being filled: identity, expense rows, attachments,
// verification token and submission status. Sessions share nothing but the read-only
// registry.
type Session struct {
	mu        sync.Mutex
	registry  *schema.Registry
	schema    *schema.FormSchema
	identity  Identity
	table     *table.Model
	files     *attachment.Set
	token     string
	status    types.Status
	failure   *SubmitError
	message   string
	verifier  verify.Verifier
	transport transport.Transport
	logger    *slog.Logger
}

type sessionOptions struct {
	formType string
	policy   attachment.Policy
	logger   *slog.Logger
}

type Option func(*sessionOptions)

// WithFormType selects the initial form type instead of the registry default.
func WithFormType(id string) Option {
	return func(o *sessionOptions) {
		o.formType = id
	}
}

func WithAttachmentPolicy(p attachment.Policy) Option {
	return func(o *sessionOptions) {
		o.policy = p
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *sessionOptions) {
		o.logger = l
	}
}

func NewSession(registry *schema.Registry, verifier verify.Verifier, tr transport.Transport, opts ...Option) (*Session, error) {
	if registry == nil || verifier == nil || tr == nil {
		return nil, fmt.Errorf("session needs a registry, a verifier and a transport")
	}
	options := sessionOptions{
		policy: attachment.DefaultPolicy(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	active := registry.Default()
	if options.formType != "" {
		s, err := registry.Lookup(options.formType)
		if err != nil {
			return nil, err
		}
		active = s
	}
	if active == nil {
		return nil, fmt.Errorf("%w: registry is empty", schema.ErrUnknownFormType)
	}
	model, err := table.New(active)
	if err != nil {
		return nil, err
	}
	return &Session{
		registry:  registry,
		schema:    active,
		table:     model,
		files:     attachment.NewSet(options.policy),
		status:    types.StatusIdle,
		verifier:  verifier,
		transport: tr,
		logger:    options.logger,
	}, nil
}

func (s *Session) Schema() *schema.FormSchema {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schema
}

func (s *Session) Registry() *schema.Registry {
	return s.registry
}

// SwitchFormType migrates every row to the schema registered as id. The submission status
// is left as it is.
func (s *Session) SwitchFormType(id string) error {
	next, err := s.registry.Lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if next == s.schema {
		return nil
	}
	if err := s.table.Migrate(next); err != nil {
		return err
	}
	s.logger.Debug("Switched form type", "from", s.schema.ID, "to", next.ID, "rows", s.table.Len())
	s.schema = next
	return nil
}

func (s *Session) Identity() Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

func (s *Session) SetIdentity(field IdentityField, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch field {
	case FieldFirstName:
		s.identity.FirstName = value
	case FieldLastName:
		s.identity.LastName = value
	case FieldEmail:
		s.identity.Email = value
	case FieldComments:
		if r := []rune(value); len(r) > MaxCommentLength {
			value = string(r[:MaxCommentLength])
		}
		s.identity.Comments = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

func (s *Session) Rows() []table.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Rows()
}

func (s *Session) UpdateField(rowID int, key, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.UpdateField(rowID, key, value)
}

func (s *Session) AddRow() table.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.AddRow()
}

func (s *Session) RemoveRow(rowID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.RemoveRow(rowID)
}

func (s *Session) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Total()
}

// Issues reports empty required cells and invalid cells of the expense table.
func (s *Session) Issues() (missing, invalid []types.FieldInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Issues()
}

// MissingIdentity lists the identity fields a submission still needs.
func (s *Session) MissingIdentity() []types.FieldInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	var missing []types.FieldInfo
	for _, f := range []struct {
		field IdentityField
		name  string
		value string
	}{
		{FieldFirstName, "First Name", s.identity.FirstName},
		{FieldLastName, "Last Name", s.identity.LastName},
		{FieldEmail, "Email", s.identity.Email},
	} {
		if f.value == "" {
			missing = append(missing, types.FieldInfo{
				JSONPointer: "/" + string(f.field),
				DisplayName: f.name,
				Required:    true,
			})
		}
	}
	return missing
}

// AddFiles admits the whole batch or rejects it with an attachment error, which also
// becomes the session message.
func (s *Session) AddFiles(files ...attachment.Attachment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.files.Add(files...); err != nil {
		s.message = err.Error()
		s.logger.Debug("Rejected attachments", "count", len(files), "err", err)
		return err
	}
	return nil
}

func (s *Session) RemoveFile(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files.Remove(index)
}

func (s *Session) Files() []attachment.Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files.Files()
}

// SetVerificationToken stores the token delivered by the verification widget.
func (s *Session) SetVerificationToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *Session) HasVerificationToken() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != ""
}

// RequestVerification asks the verifier for a token and stores it when one is returned
// right away.
func (s *Session) RequestVerification(ctx context.Context) error {
	token, err := s.verifier.RequestToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to request verification token: %w", err)
	}
	if token != "" {
		s.SetVerificationToken(token)
	}
	return nil
}

type Snapshot struct {
	FormType string                  `json:"form_type"`
	Title    string                  `json:"title"`
	Identity Identity                `json:"identity"`
	Rows     []table.Row             `json:"rows"`
	Files    []attachment.Attachment `json:"files"`
	HasToken bool                    `json:"has_token"`
	Status   types.Status            `json:"status"`
	Message  string                  `json:"message,omitempty"`
	Err      *SubmitError            `json:"-"`
	Total    string                  `json:"total"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		FormType: s.schema.ID,
		Title:    s.schema.Title,
		Identity: s.identity,
		Rows:     s.table.Rows(),
		Files:    s.files.Files(),
		HasToken: s.token != "",
		Status:   s.status,
		Message:  s.message,
		Err:      s.failure,
		Total:    s.table.Total().StringFixed(2),
	}
}

// ExpensesJSON returns the rows projected onto the active schema, as sent on submit.
func (s *Session) ExpensesJSON() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.ExpensesJSON()
}

// Reset clears identity, rows and attachments without touching the submission status.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetForm()
}

func (s *Session) resetForm() {
	s.identity = Identity{}
	s.table.Reset()
	s.files.Clear()
}
