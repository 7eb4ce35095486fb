package schema

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	ErrUnknownFormType = errors.New("unknown form type")
	ErrInvalidSchema   = errors.New("invalid form schema")
)

// Registry holds the closed set of form schemas, in registration order.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	schemas map[string]*FormSchema
	kinds   map[string]Kind
}

func NewRegistry(schemas ...*FormSchema) (*Registry, error) {
	r := &Registry{
		schemas: make(map[string]*FormSchema),
		kinds:   make(map[string]Kind),
	}
	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(s *FormSchema) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s == nil || s.ID == "" {
		return fmt.Errorf("%w: empty form type id", ErrInvalidSchema)
	}
	if _, exists := r.schemas[s.ID]; exists {
		return fmt.Errorf("%w: form type %q registered twice", ErrInvalidSchema, s.ID)
	}
	if err := r.check(s); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidSchema, s.ID, err)
	}
	for _, f := range s.Fields {
		r.kinds[f.Key] = f.Kind
	}
	r.order = append(r.order, s.ID)
	r.schemas[s.ID] = s
	return nil
}

// check enforces that keys mean the same thing in every schema so that migration can match
// fields by key alone.
func (r *Registry) check(s *FormSchema) error {
	seen := make(map[string]bool, len(s.Fields))
	computed := 0
	for _, f := range s.Fields {
		if f.Key == "" {
			return errors.New("field with empty key")
		}
		if seen[f.Key] {
			return fmt.Errorf("duplicate field key %q", f.Key)
		}
		seen[f.Key] = true
		if !f.Kind.Valid() {
			return fmt.Errorf("field %q: unknown kind %q", f.Key, f.Kind)
		}
		if f.Kind == KindSelect && len(f.Options) == 0 {
			return fmt.Errorf("field %q: select without options", f.Key)
		}
		if f.Kind == KindComputedNumber {
			computed++
		}
		if k, ok := r.kinds[f.Key]; ok && k != f.Kind {
			return fmt.Errorf("field %q is %s here but %s in another form type", f.Key, f.Kind, k)
		}
	}
	for key, value := range s.InitialRow {
		f, ok := s.Field(key)
		if !ok {
			return fmt.Errorf("initial row sets undeclared field %q", key)
		}
		if f.Kind == KindSelect && value != "" && !slices.Contains(f.Options, value) {
			return fmt.Errorf("initial row value %q is not an option of %q", value, key)
		}
	}
	if s.AmountField != "" {
		if f, ok := s.Field(s.AmountField); !ok || f.Kind != KindNumber {
			return fmt.Errorf("amount field %q must be a declared number field", s.AmountField)
		}
	}
	if computed > 1 {
		return errors.New("more than one computed field")
	}
	wantsTotal := s.Calculator != nil && len(s.Calculator.Triggers()) > 0
	if computed == 1 && !wantsTotal {
		return errors.New("computed field without a calculator")
	}
	if computed == 0 && wantsTotal {
		return fmt.Errorf("calculator %q needs a computed field", s.Calculator.Name())
	}
	if tc, ok := s.Calculator.(*TaxCalculator); ok {
		for _, key := range []string{tc.AmountKey, tc.ModeKey, tc.TotalKey} {
			if !seen[key] {
				return fmt.Errorf("tax calculator reads undeclared field %q", key)
			}
		}
	}
	return nil
}

func (r *Registry) Lookup(id string) (*FormSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormType, id)
	}
	return s, nil
}

func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Default returns the first registered schema, or nil for an empty registry.
func (r *Registry) Default() *FormSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return nil
	}
	return r.schemas[r.order[0]]
}
