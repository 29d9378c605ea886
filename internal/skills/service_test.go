package skills_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/adcontexthq/salesagent/internal/auth"
	"github.com/adcontexthq/salesagent/internal/skills"
)

func rawParams(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	return b
}

func TestCall_unknownSkill(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Call(context.Background(), buyerContext(), "make_coffee", []byte("{}"))
	if !errors.Is(err, skills.ErrUnknownSkill) {
		t.Fatalf("err = %v, want ErrUnknownSkill", err)
	}
}

func TestCall_invalidParams(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Call(context.Background(), buyerContext(), skills.SkillGetProducts, []byte(`{"brief": 42}`))
	if !errors.Is(err, skills.ErrInvalidParams) {
		t.Fatalf("err = %v, want ErrInvalidParams", err)
	}
}

func TestCall_transactionsRequireAuth(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Call(context.Background(), anonymousContext(), skills.SkillCreateMediaBuy, []byte("{}"))
	if !errors.Is(err, auth.ErrMissingToken) {
		t.Fatalf("err = %v, want ErrMissingToken", err)
	}
}

func TestCall_anonymousDiscoveryAllowed(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.Call(context.Background(), anonymousContext(), skills.SkillGetProducts,
		rawParams(t, map[string]any{"brand_manifest": "Nike"}))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if out.State != skills.StateCompleted {
		t.Fatalf("state = %q: %+v", out.State, out.Data)
	}
	if out.Skill != skills.SkillGetProducts {
		t.Errorf("skill = %q", out.Skill)
	}
	if out.Artifact != "get_products_result" {
		t.Errorf("artifact = %q, want skill default", out.Artifact)
	}
	if out.Summary == "" {
		t.Error("summary is empty")
	}
}

func TestCall_recordsAuditTrail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Call(ctx, buyerContext(), skills.SkillGetProducts,
		rawParams(t, map[string]any{"brand_manifest": "Nike"})); err != nil {
		t.Fatalf("get_products call: %v", err)
	}

	// A domain failure still lands in the log, marked unsuccessful.
	out, err := f.svc.Call(ctx, buyerContext(), skills.SkillCreateMediaBuy,
		rawParams(t, map[string]any{
			"buyer_ref":      "nike-audit-1",
			"brand_manifest": "Nike",
			"packages":       []map[string]any{{"product_id": "prod_ctv"}},
			"start_time":     "2026-02-01T00:00:00Z",
			"end_time":       "2026-03-20T00:00:00Z",
			"budget":         1000,
		}))
	if err != nil {
		t.Fatalf("create_media_buy call: %v", err)
	}
	if out.State != skills.StateFailed {
		t.Fatalf("state = %q, want failed for a past start_time", out.State)
	}

	n, err := f.log.Len(ctx)
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if n != 3 { // genesis + two calls
		t.Fatalf("log length = %d, want 3", n)
	}
	recent, err := f.log.Recent(ctx, "wonder", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("recent = %d, want 2", len(recent))
	}
	if recent[0].Operation != skills.SkillCreateMediaBuy || recent[0].Success {
		t.Errorf("recent[0] = %+v, want failed create", recent[0])
	}
	if recent[1].Operation != skills.SkillGetProducts || !recent[1].Success {
		t.Errorf("recent[1] = %+v, want successful get_products", recent[1])
	}
	if recent[0].PrincipalID != "nike" || recent[0].TenantID != "wonder" {
		t.Errorf("recent[0] identity = %s/%s", recent[0].TenantID, recent[0].PrincipalID)
	}
	if err := f.log.Verify(ctx); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestCall_dispatchesSignals(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.Call(context.Background(), buyerContext(), skills.SkillActivateSignal,
		rawParams(t, map[string]any{"signal_id": "sig_sports", "platform": "the-trade-desk"}))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if out.State != skills.StateCompleted {
		t.Fatalf("state = %q: %+v", out.State, out.Data)
	}
	if out.Artifact != "activate_signal_result" {
		t.Errorf("artifact = %q", out.Artifact)
	}
}
