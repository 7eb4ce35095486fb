package schema

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed forms.yaml
var defaultForms []byte

type formConfig struct {
	ID          string            `yaml:"id"`
	Title       string            `yaml:"title"`
	Blurb       string            `yaml:"blurb"`
	Endpoint    string            `yaml:"endpoint"`
	AmountField string            `yaml:"amount_field"`
	Calculator  CalculatorConfig  `yaml:"calculator"`
	Fields      []FieldDefinition `yaml:"fields"`
	InitialRow  map[string]string `yaml:"initial_row"`
}

type registryConfig struct {
	Forms []formConfig `yaml:"forms"`
}

// LoadRegistry builds a registry from a YAML document.
func LoadRegistry(data []byte) (*Registry, error) {
	var conf registryConfig
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return nil, fmt.Errorf("failed to parse form schemas: %w", err)
	}
	if len(conf.Forms) == 0 {
		return nil, fmt.Errorf("%w: no form types defined", ErrInvalidSchema)
	}
	r, err := NewRegistry()
	if err != nil {
		return nil, err
	}
	for _, fc := range conf.Forms {
		calc, err := fc.Calculator.Build()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidSchema, fc.ID, err)
		}
		title := fc.Title
		if title == "" {
			title = fc.ID
		}
		s := &FormSchema{
			ID:          fc.ID,
			Title:       title,
			Blurb:       fc.Blurb,
			Endpoint:    fc.Endpoint,
			AmountField: fc.AmountField,
			Fields:      fc.Fields,
			InitialRow:  fc.InitialRow,
			Calculator:  calc,
		}
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func LoadRegistryFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadRegistry(data)
}

// DefaultRegistry returns the built-in Reimbursement Request and Purchase Approval forms.
func DefaultRegistry() (*Registry, error) {
	return LoadRegistry(defaultForms)
}
