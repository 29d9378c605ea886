package adcp

import "encoding/json"

// Budget is the canonical money shape. Buyers may send a bare number, a
// {total, currency} object, or the full structure; all three decode into
// this type and it always serializes as the object shape.
type Budget struct {
	Total    float64 `json:"total"`
	Currency string  `json:"currency,omitempty"`
	Pacing   string  `json:"pacing,omitempty"`
	DailyCap float64 `json:"daily_cap,omitempty"`
}

func (b *Budget) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*b = Budget{Total: n}
		return nil
	}
	type alias Budget
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*b = Budget(a)
	return nil
}

// Amount returns the normalized (amount, currency) pair. When the budget
// carries no currency of its own, fallback (typically a sibling request
// field) applies; USD is the terminal default.
func (b *Budget) Amount(fallback string) (float64, string) {
	if b == nil {
		return 0, currencyOr(fallback)
	}
	if b.Currency != "" {
		return b.Total, b.Currency
	}
	return b.Total, currencyOr(fallback)
}

func currencyOr(c string) string {
	if c == "" {
		return "USD"
	}
	return c
}

// Validate checks that the budget is positive.
func (b *Budget) Validate(field string) *Error {
	if b == nil {
		return nil
	}
	if b.Total <= 0 {
		e := ValidationError(field, "budget total must be positive, got %v", b.Total)
		return &e
	}
	if b.DailyCap < 0 {
		e := ValidationError(field, "daily_cap must not be negative")
		return &e
	}
	return nil
}
