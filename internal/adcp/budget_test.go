package adcp_test

import (
	"encoding/json"
	"testing"

	"github.com/adcontexthq/salesagent/internal/adcp"
)

func TestBudget_threeInputForms(t *testing.T) {
	inputs := []string{
		`{"budget": 5000, "currency": "USD"}`,
		`{"budget": {"total": 5000, "currency": "USD"}}`,
		`{"budget": {"total": 5000, "currency": "USD", "pacing": "even"}}`,
	}
	for _, in := range inputs {
		var req struct {
			Budget   *adcp.Budget `json:"budget"`
			Currency string       `json:"currency"`
		}
		if err := json.Unmarshal([]byte(in), &req); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		amount, currency := req.Budget.Amount(req.Currency)
		if amount != 5000 {
			t.Errorf("input %s: amount = %v, want 5000", in, amount)
		}
		if currency != "USD" {
			t.Errorf("input %s: currency = %q, want USD", in, currency)
		}
	}
}

func TestBudget_serializesAsObject(t *testing.T) {
	var req struct {
		Budget *adcp.Budget `json:"budget"`
	}
	if err := json.Unmarshal([]byte(`{"budget": 1200.50}`), &req); err != nil {
		t.Fatal(err)
	}
	out, err := json.Marshal(req.Budget)
	if err != nil {
		t.Fatal(err)
	}
	var shape map[string]any
	if err := json.Unmarshal(out, &shape); err != nil {
		t.Fatal(err)
	}
	if shape["total"] != 1200.50 {
		t.Errorf("total = %v, want 1200.5", shape["total"])
	}
}

func TestBudget_currencyFallback(t *testing.T) {
	b := &adcp.Budget{Total: 10}
	if _, cur := b.Amount(""); cur != "USD" {
		t.Errorf("terminal default = %q, want USD", cur)
	}
	if _, cur := b.Amount("EUR"); cur != "EUR" {
		t.Errorf("sibling fallback = %q, want EUR", cur)
	}
	b.Currency = "GBP"
	if _, cur := b.Amount("EUR"); cur != "GBP" {
		t.Errorf("own currency = %q, want GBP", cur)
	}
}

func TestBudget_rejectsNonPositive(t *testing.T) {
	b := &adcp.Budget{Total: 0}
	if err := b.Validate("budget"); err == nil {
		t.Error("expected error for zero budget")
	}
	b.Total = -5
	if err := b.Validate("budget"); err == nil {
		t.Error("expected error for negative budget")
	}
	b.Total = 100
	if err := b.Validate("budget"); err != nil {
		t.Errorf("positive budget rejected: %v", err)
	}
}
