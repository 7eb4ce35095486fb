package schema

import (
	"errors"
	"testing"
)

func TestDefaultRegistry(t *testing.T) {
	r, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry: %v", err)
	}
	ids := r.IDs()
	if len(ids) != 2 || ids[0] != "Reimbursement Request" || ids[1] != "Purchase Approval" {
		t.Fatalf("unexpected ids %v", ids)
	}
	if r.Default().ID != "Reimbursement Request" {
		t.Errorf("default = %q", r.Default().ID)
	}

	rr, err := r.Lookup("Reimbursement Request")
	if err != nil {
		t.Fatal(err)
	}
	if rr.Endpoint != "/submit" {
		t.Errorf("endpoint = %q", rr.Endpoint)
	}
	if _, ok := rr.ComputedField(); !ok {
		t.Error("reimbursement request should declare a computed field")
	}
	if !rr.Triggers("amount") || !rr.Triggers("hst") || rr.Triggers("vendor") {
		t.Error("unexpected trigger set")
	}
	got := rr.Compute(map[string]string{"amount": "100", "hst": "excluded"})
	if got["calculated_amount"] != "113.00" {
		t.Errorf("calculated_amount = %q", got["calculated_amount"])
	}

	pa, err := r.Lookup("Purchase Approval")
	if err != nil {
		t.Fatal(err)
	}
	if pa.Endpoint != "/submit-PA" {
		t.Errorf("endpoint = %q", pa.Endpoint)
	}
	if pa.Triggers("amount") {
		t.Error("purchase approval has nothing to compute")
	}
}

func TestLookupUnknown(t *testing.T) {
	r, err := DefaultRegistry()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Lookup("Travel"); !errors.Is(err, ErrUnknownFormType) {
		t.Errorf("err = %v, want ErrUnknownFormType", err)
	}
}

func TestRegisterRejectsInvalidSchemas(t *testing.T) {
	tests := []struct {
		name   string
		schema *FormSchema
	}{
		{"empty id", &FormSchema{}},
		{"duplicate keys", &FormSchema{ID: "a", Fields: []FieldDefinition{{Key: "x", Kind: KindText}, {Key: "x", Kind: KindText}}}},
		{"bad kind", &FormSchema{ID: "a", Fields: []FieldDefinition{{Key: "x", Kind: "date"}}}},
		{"select without options", &FormSchema{ID: "a", Fields: []FieldDefinition{{Key: "x", Kind: KindSelect}}}},
		{"undeclared initial key", &FormSchema{ID: "a", Fields: []FieldDefinition{{Key: "x", Kind: KindText}}, InitialRow: map[string]string{"y": ""}}},
		{"computed without calculator", &FormSchema{ID: "a", Fields: []FieldDefinition{{Key: "x", Kind: KindComputedNumber}}}},
		{"amount field not number", &FormSchema{ID: "a", AmountField: "x", Fields: []FieldDefinition{{Key: "x", Kind: KindText}}}},
		{"tax without total", &FormSchema{ID: "a", Fields: []FieldDefinition{{Key: "amount", Kind: KindNumber}}, Calculator: &TaxCalculator{AmountKey: "amount", ModeKey: "m", TotalKey: "t"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := NewRegistry()
			if err := r.Register(tt.schema); !errors.Is(err, ErrInvalidSchema) {
				t.Errorf("err = %v, want ErrInvalidSchema", err)
			}
		})
	}
}

func TestRegisterRejectsConflictingKinds(t *testing.T) {
	a := &FormSchema{ID: "a", Fields: []FieldDefinition{{Key: "amount", Kind: KindNumber}}}
	b := &FormSchema{ID: "b", Fields: []FieldDefinition{{Key: "amount", Kind: KindText}}}
	if _, err := NewRegistry(a, b); !errors.Is(err, ErrInvalidSchema) {
		t.Errorf("err = %v, want ErrInvalidSchema", err)
	}
}

func TestLoadRegistryErrors(t *testing.T) {
	if _, err := LoadRegistry([]byte("forms: []")); err == nil {
		t.Error("expected error for empty form list")
	}
	if _, err := LoadRegistry([]byte("forms: [")); err == nil {
		t.Error("expected parse error")
	}
	bad := []byte(`
forms:
  - id: x
    calculator: {name: sorcery}
`)
	if _, err := LoadRegistry(bad); !errors.Is(err, ErrInvalidSchema) {
		t.Errorf("err = %v, want ErrInvalidSchema", err)
	}
}
