package table

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/tbxark/expenseform/schema"
)

func loadSchemas(t *testing.T) (rr, pa *schema.FormSchema) {
	t.Helper()
	r, err := schema.DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry: %v", err)
	}
	rr, err = r.Lookup("Reimbursement Request")
	if err != nil {
		t.Fatal(err)
	}
	pa, err = r.Lookup("Purchase Approval")
	if err != nil {
		t.Fatal(err)
	}
	return rr, pa
}

func newModel(t *testing.T, s *schema.FormSchema) *Model {
	t.Helper()
	m, err := New(s)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestNewStartsWithOneInitialRow(t *testing.T) {
	rr, _ := loadSchemas(t)
	m := newModel(t, rr)
	rows := m.Rows()
	if len(rows) != 1 || rows[0].ID != 1 {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].Values["hst"] != "included" {
		t.Errorf("hst default = %q", rows[0].Values["hst"])
	}
	if _, err := New(nil); err == nil {
		t.Error("New(nil) should fail")
	}
}

func TestIDsNeverReused(t *testing.T) {
	rr, _ := loadSchemas(t)
	m := newModel(t, rr)
	m.AddRow()
	third := m.AddRow()
	if third.ID != 3 {
		t.Fatalf("third id = %d", third.ID)
	}
	if !m.RemoveRow(3) {
		t.Fatal("RemoveRow(3) refused")
	}
	if next := m.AddRow(); next.ID != 4 {
		t.Errorf("id after removing the top row = %d, want 4", next.ID)
	}
}

func TestRandomAddRemoveKeepsInvariants(t *testing.T) {
	rr, _ := loadSchemas(t)
	m := newModel(t, rr)
	rnd := rand.New(rand.NewSource(7))
	seen := map[int]bool{1: true}
	last := 1
	for i := 0; i < 500; i++ {
		if rnd.Intn(2) == 0 {
			row := m.AddRow()
			if row.ID <= last || seen[row.ID] {
				t.Fatalf("step %d: id %d not fresh (last %d)", i, row.ID, last)
			}
			seen[row.ID] = true
			last = row.ID
		} else {
			rows := m.Rows()
			m.RemoveRow(rows[rnd.Intn(len(rows))].ID)
		}
		if m.Len() == 0 {
			t.Fatalf("step %d: table emptied", i)
		}
	}
}

func TestRemoveLastRowRefused(t *testing.T) {
	rr, _ := loadSchemas(t)
	m := newModel(t, rr)
	if m.RemoveRow(1) {
		t.Fatal("removed the only row")
	}
	m.AddRow()
	if m.RemoveRow(42) {
		t.Error("removed a row that does not exist")
	}
	if !m.RemoveRow(1) || m.Len() != 1 {
		t.Error("expected to remove row 1")
	}
}

func TestUpdateFieldRecomputes(t *testing.T) {
	rr, _ := loadSchemas(t)
	m := newModel(t, rr)
	other := m.AddRow()

	m.UpdateField(1, "amount", "100")
	row, _ := m.Row(1)
	if row.Values["calculated_amount"] != "100" {
		t.Errorf("included total = %q", row.Values["calculated_amount"])
	}
	m.UpdateField(1, "hst", "excluded")
	row, _ = m.Row(1)
	if row.Values["calculated_amount"] != "113.00" {
		t.Errorf("excluded total = %q", row.Values["calculated_amount"])
	}

	m.UpdateField(1, "amount", "")
	row, _ = m.Row(1)
	if row.Values["calculated_amount"] != "" {
		t.Errorf("empty amount total = %q", row.Values["calculated_amount"])
	}

	untouched, _ := m.Row(other.ID)
	if untouched.Values["calculated_amount"] != "" || untouched.Values["amount"] != "" {
		t.Errorf("other row changed: %+v", untouched)
	}
}

func TestUpdateFieldNonTriggerDoesNotRecompute(t *testing.T) {
	rr, _ := loadSchemas(t)
	m := newModel(t, rr)
	// a stale total stays until a trigger field changes
	m.rows[0].Values["amount"] = "10"
	m.UpdateField(1, "vendor", "Acme")
	row, _ := m.Row(1)
	if row.Values["calculated_amount"] != "" {
		t.Errorf("vendor edit recomputed total: %q", row.Values["calculated_amount"])
	}
}

func TestUpdateFieldRejects(t *testing.T) {
	rr, _ := loadSchemas(t)
	m := newModel(t, rr)
	if m.UpdateField(9, "vendor", "x") {
		t.Error("updated unknown row")
	}
	if m.UpdateField(1, "nope", "x") {
		t.Error("updated undeclared key")
	}
	if m.UpdateField(1, "calculated_amount", "1") {
		t.Error("updated computed field")
	}
}

func TestUpdateFieldClampsNegativeAmount(t *testing.T) {
	rr, _ := loadSchemas(t)
	m := newModel(t, rr)
	m.UpdateField(1, "amount", "-20")
	row, _ := m.Row(1)
	if row.Values["amount"] != "0" || row.Values["calculated_amount"] != "0" {
		t.Errorf("row = %+v", row.Values)
	}
}

func TestRowsAreCopies(t *testing.T) {
	rr, _ := loadSchemas(t)
	m := newModel(t, rr)
	rows := m.Rows()
	rows[0].Values["vendor"] = "mutated"
	row, _ := m.Row(1)
	if row.Values["vendor"] != "" {
		t.Error("Rows leaked internal state")
	}
}

func TestMigrateDropsAndPreserves(t *testing.T) {
	rr, pa := loadSchemas(t)
	m := newModel(t, rr)
	m.UpdateField(1, "vendor", "Acme")
	m.UpdateField(1, "amount", "50")
	m.UpdateField(1, "approval", "X")
	second := m.AddRow()
	m.UpdateField(second.ID, "description", "cables")

	if err := m.Migrate(pa); err != nil {
		t.Fatal(err)
	}
	row, ok := m.Row(1)
	if !ok {
		t.Fatal("row 1 lost its id")
	}
	if row.Values["vendor"] != "Acme" || row.Values["amount"] != "50" {
		t.Errorf("overlapping values lost: %+v", row.Values)
	}
	for _, key := range []string{"approval", "hst", "calculated_amount"} {
		if _, ok := row.Get(key); ok {
			t.Errorf("key %q survived migration", key)
		}
	}
	if r2, _ := m.Row(second.ID); r2.Values["description"] != "cables" {
		t.Errorf("second row = %+v", r2.Values)
	}
	if m.Schema() != pa {
		t.Error("schema not switched")
	}
}

func TestMigrateBackRecomputes(t *testing.T) {
	rr, pa := loadSchemas(t)
	m := newModel(t, pa)
	m.UpdateField(1, "amount", "20")
	if err := m.Migrate(rr); err != nil {
		t.Fatal(err)
	}
	row, _ := m.Row(1)
	if row.Values["hst"] != "included" || row.Values["approval"] != "" {
		t.Errorf("defaults not applied: %+v", row.Values)
	}
	if row.Values["calculated_amount"] != "20" {
		t.Errorf("calculated_amount = %q", row.Values["calculated_amount"])
	}
	if err := m.Migrate(nil); err == nil {
		t.Error("Migrate(nil) should fail")
	}
}

func TestHasPricedRowAndTotal(t *testing.T) {
	rr, _ := loadSchemas(t)
	m := newModel(t, rr)
	if m.HasPricedRow() {
		t.Error("empty table priced")
	}
	m.UpdateField(1, "amount", "abc")
	if m.HasPricedRow() {
		t.Error("non numeric amount counted")
	}
	m.UpdateField(1, "amount", "100")
	m.UpdateField(1, "hst", "excluded")
	r := m.AddRow()
	m.UpdateField(r.ID, "amount", "20")
	if !m.HasPricedRow() {
		t.Error("priced row not found")
	}
	if got := m.Total().StringFixed(2); got != "133.00" {
		t.Errorf("Total = %s", got)
	}
}

func TestFilteredForSubmission(t *testing.T) {
	rr, pa := loadSchemas(t)
	m := newModel(t, rr)
	m.UpdateField(1, "vendor", "Acme")
	m.UpdateField(1, "amount", "20")
	if err := m.Migrate(pa); err != nil {
		t.Fatal(err)
	}
	got, err := m.ExpensesJSON()
	if err != nil {
		t.Fatal(err)
	}
	want := `[{"id":1,"vendor":"Acme","description":"","amount":"20"}]`
	if got != want {
		t.Errorf("ExpensesJSON = %s, want %s", got, want)
	}
	if strings.Contains(got, "approval") {
		t.Error("stale field leaked")
	}
}

func TestIssues(t *testing.T) {
	_, pa := loadSchemas(t)
	m := newModel(t, pa)
	m.UpdateField(1, "vendor", "Acme")
	m.UpdateField(1, "amount", "x1")
	missing, invalid := m.Issues()
	if len(missing) != 1 || missing[0].JSONPointer != "/expenses/0/description" {
		t.Errorf("missing = %+v", missing)
	}
	if len(invalid) != 1 || invalid[0].JSONPointer != "/expenses/0/amount" {
		t.Errorf("invalid = %+v", invalid)
	}
}

func TestResetRestartsNumbering(t *testing.T) {
	rr, _ := loadSchemas(t)
	m := newModel(t, rr)
	m.AddRow()
	m.AddRow()
	m.Reset()
	if m.Len() != 1 {
		t.Fatalf("len = %d", m.Len())
	}
	if r := m.AddRow(); r.ID != 2 {
		t.Errorf("id after reset = %d", r.ID)
	}
}
