package a2a

import (
	"encoding/json"
	"testing"
)

func TestParseMessage_textOnly(t *testing.T) {
	msg := Message{Parts: []Part{
		TextPart("What video ad products"),
		TextPart("do you have available?"),
	}}

	parsed := parseMessage(msg)
	if parsed.explicit() {
		t.Fatal("text-only message must not be explicit")
	}
	if parsed.Text != "What video ad products do you have available?" {
		t.Errorf("Text = %q", parsed.Text)
	}
}

func TestParseMessage_explicitSkill(t *testing.T) {
	raw := `{
		"parts": [
			{"kind": "data", "data": {"skill": "get_products", "input": {"brand_manifest": "Nike"}}}
		]
	}`
	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("unmarshal message: %v", err)
	}

	parsed := parseMessage(msg)
	if !parsed.explicit() {
		t.Fatal("expected an explicit invocation")
	}
	if len(parsed.Invocations) != 1 || parsed.Invocations[0].Skill != "get_products" {
		t.Fatalf("invocations = %+v", parsed.Invocations)
	}
	var params map[string]any
	if err := json.Unmarshal(parsed.Invocations[0].Params, &params); err != nil {
		t.Fatalf("params: %v", err)
	}
	if params["brand_manifest"] != "Nike" {
		t.Errorf("params = %v", params)
	}
}

func TestParseMessage_legacyTypeAndParameters(t *testing.T) {
	raw := `{
		"parts": [
			{"type": "data", "data": {"skill": "get_signals", "parameters": {"signal_spec": "sports"}}}
		]
	}`
	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("unmarshal message: %v", err)
	}

	parsed := parseMessage(msg)
	if len(parsed.Invocations) != 1 {
		t.Fatalf("invocations = %+v", parsed.Invocations)
	}
	var params map[string]any
	json.Unmarshal(parsed.Invocations[0].Params, &params)
	if params["signal_spec"] != "sports" {
		t.Errorf("legacy parameters key not honored: %v", params)
	}
}

func TestParseMessage_inferredDiscriminator(t *testing.T) {
	// Neither kind nor type set; content decides.
	raw := `{
		"parts": [
			{"text": "hello"},
			{"data": {"skill": "list_creative_formats"}}
		]
	}`
	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("unmarshal message: %v", err)
	}

	parsed := parseMessage(msg)
	if parsed.Text != "hello" {
		t.Errorf("Text = %q", parsed.Text)
	}
	if len(parsed.Invocations) != 1 || parsed.Invocations[0].Skill != "list_creative_formats" {
		t.Errorf("invocations = %+v", parsed.Invocations)
	}
}

func TestParseMessage_annotationDataIgnored(t *testing.T) {
	raw := `{
		"parts": [
			{"kind": "text", "text": "show products"},
			{"kind": "data", "data": {"trace_id": "abc"}}
		]
	}`
	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("unmarshal message: %v", err)
	}

	parsed := parseMessage(msg)
	if parsed.explicit() {
		t.Errorf("annotation data part treated as invocation: %+v", parsed.Invocations)
	}
	if parsed.Text != "show products" {
		t.Errorf("Text = %q", parsed.Text)
	}
}

func TestParseMessage_multipleSkillsOrdered(t *testing.T) {
	raw := `{
		"parts": [
			{"kind": "data", "data": {"skill": "get_products", "input": {}}},
			{"kind": "data", "data": {"skill": "list_creative_formats", "input": {}}}
		]
	}`
	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("unmarshal message: %v", err)
	}

	parsed := parseMessage(msg)
	names := parsed.skillNames()
	if len(names) != 2 || names[0] != "get_products" || names[1] != "list_creative_formats" {
		t.Errorf("skillNames = %v", names)
	}
}

func TestMessage_numericMessageID(t *testing.T) {
	raw := `{"messageId": 12345, "parts": [{"kind": "text", "text": "hi"}]}`
	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("numeric messageId must decode: %v", err)
	}
	if msg.MessageID != "12345" {
		t.Errorf("MessageID = %q, want \"12345\"", msg.MessageID)
	}
}
