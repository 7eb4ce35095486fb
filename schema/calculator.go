package schema

import (
	"fmt"
	"maps"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	CalculatorTax         = "tax"
	CalculatorPassthrough = "passthrough"
)

// Calculator derives dependent field values of a row. Implementations must be pure and
// idempotent, and must only read fields declared by the schema.
type Calculator interface {
	Name() string
	Triggers() []string
	Compute(s *FormSchema, values map[string]string) map[string]string
}

// TaxCalculator writes a tax-adjusted total when the tax mode says tax was excluded from the
// entered amount.
type TaxCalculator struct {
	AmountKey    string
	ModeKey      string
	TotalKey     string
	ExcludedMode string
	Rate         decimal.Decimal
}

func NewTaxCalculator(amountKey, modeKey, totalKey, excludedMode string, rate decimal.Decimal) *TaxCalculator {
	return &TaxCalculator{
		AmountKey:    amountKey,
		ModeKey:      modeKey,
		TotalKey:     totalKey,
		ExcludedMode: excludedMode,
		Rate:         rate,
	}
}

func (c *TaxCalculator) Name() string {
	return CalculatorTax
}

func (c *TaxCalculator) Triggers() []string {
	return []string{c.AmountKey, c.ModeKey}
}

func (c *TaxCalculator) Compute(s *FormSchema, values map[string]string) map[string]string {
	out := maps.Clone(values)
	if out == nil {
		out = map[string]string{}
	}
	if _, ok := s.Field(c.TotalKey); !ok {
		return out
	}
	out[c.TotalKey] = c.total(declared(s, values, c.AmountKey), declared(s, values, c.ModeKey))
	return out
}

func (c *TaxCalculator) total(amount, mode string) string {
	n, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return ""
	}
	if mode != c.ExcludedMode {
		return amount
	}
	return n.Mul(decimal.NewFromInt(1).Add(c.Rate)).Round(2).StringFixed(2)
}

// PassthroughCalculator derives nothing.
type PassthroughCalculator struct{}

func (PassthroughCalculator) Name() string {
	return CalculatorPassthrough
}

func (PassthroughCalculator) Triggers() []string {
	return nil
}

func (PassthroughCalculator) Compute(s *FormSchema, values map[string]string) map[string]string {
	return maps.Clone(values)
}

func declared(s *FormSchema, values map[string]string, key string) string {
	if _, ok := s.Field(key); !ok {
		return ""
	}
	return values[key]
}

// CalculatorConfig selects and parameterizes a calculator by name.
type CalculatorConfig struct {
	Name     string `yaml:"name"`
	Amount   string `yaml:"amount,omitempty"`
	Mode     string `yaml:"mode,omitempty"`
	Total    string `yaml:"total,omitempty"`
	Excluded string `yaml:"excluded,omitempty"`
	Rate     string `yaml:"rate,omitempty"`
}

func (c CalculatorConfig) Build() (Calculator, error) {
	switch c.Name {
	case "", CalculatorPassthrough:
		return PassthroughCalculator{}, nil
	case CalculatorTax:
		rate, err := decimal.NewFromString(c.Rate)
		if err != nil {
			return nil, fmt.Errorf("invalid tax rate %q: %w", c.Rate, err)
		}
		if c.Amount == "" || c.Mode == "" || c.Total == "" {
			return nil, fmt.Errorf("tax calculator needs amount, mode and total fields")
		}
		return NewTaxCalculator(c.Amount, c.Mode, c.Total, c.Excluded, rate), nil
	default:
		return nil, fmt.Errorf("unknown calculator %q", c.Name)
	}
}
