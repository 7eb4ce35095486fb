package schema

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindText           Kind = "text"
	KindNumber         Kind = "number"
	KindSelect         Kind = "select"
	KindComputedNumber Kind = "computed_number"
)

func (k Kind) Valid() bool {
	switch k {
	case KindText, KindNumber, KindSelect, KindComputedNumber:
		return true
	default:
		return false
	}
}

var (
	ErrRequired      = errors.New("value is required")
	ErrNotNumeric    = errors.New("value is not a number")
	ErrBelowMinimum  = errors.New("value is below the minimum")
	ErrUnknownOption = errors.New("value is not one of the allowed options")
)

// FieldDefinition describes one column of the expense table.
type FieldDefinition struct {
	Key      string   `yaml:"key" json:"key"`
	Label    string   `yaml:"label" json:"label"`
	Kind     Kind     `yaml:"kind" json:"kind"`
	Required bool     `yaml:"required" json:"required"`
	Options  []string `yaml:"options,omitempty" json:"options,omitempty"`
	Min      *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Step     *float64 `yaml:"step,omitempty" json:"step,omitempty"`
}

// Editable reports whether users may write the field directly.
func (f FieldDefinition) Editable() bool {
	return f.Kind != KindComputedNumber
}

// Validate returns nil when value is acceptable for the field.
func (f FieldDefinition) Validate(value string) error {
	switch f.Kind {
	case KindText:
		if f.Required && strings.TrimSpace(value) == "" {
			return ErrRequired
		}
	case KindNumber:
		if strings.TrimSpace(value) == "" {
			if f.Required {
				return ErrRequired
			}
			return nil
		}
		n, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return ErrNotNumeric
		}
		if f.Min != nil && n.LessThan(decimal.NewFromFloat(*f.Min)) {
			return fmt.Errorf("%w %v", ErrBelowMinimum, *f.Min)
		}
	case KindSelect:
		if value == "" {
			if f.Required {
				return ErrRequired
			}
			return nil
		}
		if !slices.Contains(f.Options, value) {
			return ErrUnknownOption
		}
	case KindComputedNumber:
		return nil
	default:
		return fmt.Errorf("unknown field kind %q", f.Kind)
	}
	return nil
}

// Normalize clamps numeric input below the field minimum to the minimum. Other kinds and
// non-numeric values pass through untouched.
func (f FieldDefinition) Normalize(value string) string {
	if f.Kind != KindNumber || f.Min == nil {
		return value
	}
	n, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return value
	}
	lo := decimal.NewFromFloat(*f.Min)
	if n.LessThan(lo) {
		return lo.String()
	}
	return value
}

// FormSchema is the immutable configuration of one form type.
type FormSchema struct {
	ID          string
	Title       string
	Blurb       string
	Endpoint    string
	AmountField string
	Fields      []FieldDefinition
	InitialRow  map[string]string
	Calculator  Calculator
}

func (s *FormSchema) Field(key string) (FieldDefinition, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

func (s *FormSchema) Keys() []string {
	keys := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		keys = append(keys, f.Key)
	}
	return keys
}

// ComputedField returns the first field whose value is derived by the calculator.
func (s *FormSchema) ComputedField() (FieldDefinition, bool) {
	for _, f := range s.Fields {
		if f.Kind == KindComputedNumber {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// NewRow returns a fresh copy of the initial row values.
func (s *FormSchema) NewRow() map[string]string {
	row := maps.Clone(s.InitialRow)
	if row == nil {
		row = map[string]string{}
	}
	return row
}

// Triggers reports whether an edit of key must rerun derived computation.
func (s *FormSchema) Triggers(key string) bool {
	if s.Calculator == nil {
		return false
	}
	if _, ok := s.ComputedField(); !ok {
		return false
	}
	return slices.Contains(s.Calculator.Triggers(), key)
}

// Compute runs the schema's calculator over values. Schemas without a computed field return
// a copy of values.
func (s *FormSchema) Compute(values map[string]string) map[string]string {
	if s.Calculator == nil {
		return maps.Clone(values)
	}
	if _, ok := s.ComputedField(); !ok {
		return maps.Clone(values)
	}
	return s.Calculator.Compute(s, values)
}

// Amount returns the value used for totals: the computed field when it is set, else the raw
// amount.
func (s *FormSchema) Amount(values map[string]string) string {
	if f, ok := s.ComputedField(); ok {
		if v := values[f.Key]; v != "" {
			return v
		}
	}
	return values[s.AmountField]
}
