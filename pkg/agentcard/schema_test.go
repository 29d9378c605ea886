package agentcard_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/adcontexthq/salesagent/pkg/agentcard"
)

func TestParse_valid(t *testing.T) {
	data := []byte(`{
		"protocolVersion": "0.3.0",
		"name": "Wonder Media Sales Agent",
		"description": "Programmatic sales agent for Wonder Media inventory.",
		"url": "https://wonder.example.com/a2a",
		"version": "1.0.0",
		"capabilities": {"streaming": true, "pushNotifications": true},
		"skills": [
			{"id": "get_products", "name": "get_products", "tags": ["discovery"]}
		]
	}`)

	card, err := agentcard.Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if card.Name != "Wonder Media Sales Agent" {
		t.Errorf("Name: got %q", card.Name)
	}
	if !card.Capabilities.Streaming || !card.Capabilities.PushNotifications {
		t.Errorf("capabilities: %+v", card.Capabilities)
	}
	if len(card.Skills) != 1 || card.Skills[0].ID != "get_products" {
		t.Errorf("skills: %+v", card.Skills)
	}
}

func TestParse_missingRequiredFields(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{
			name: "missing name",
			data: []byte(`{"url":"https://a.example/a2a","version":"1.0.0"}`),
		},
		{
			name: "missing url",
			data: []byte(`{"name":"Agent","version":"1.0.0"}`),
		},
		{
			name: "missing version",
			data: []byte(`{"name":"Agent","url":"https://a.example/a2a"}`),
		},
		{
			name: "skill without id",
			data: []byte(`{"name":"Agent","url":"https://a.example/a2a","version":"1.0.0","skills":[{"name":"x"}]}`),
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := agentcard.Parse(tc.data)
			if err == nil {
				t.Error("expected validation error but got nil")
			}
		})
	}
}

func TestFetch_wellKnownPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(agentcard.Card{ //nolint:errcheck
			ProtocolVersion: agentcard.ProtocolVersion,
			Name:            "Test Agent",
			URL:             "http://" + r.Host + "/a2a",
			Version:         "0.1.0",
		})
	}))
	defer srv.Close()

	card, err := agentcard.Fetch(srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotPath != "/.well-known/agent-card.json" {
		t.Errorf("fetched path = %q", gotPath)
	}
	if card.Name != "Test Agent" {
		t.Errorf("Name = %q", card.Name)
	}
	if !strings.HasSuffix(card.URL, "/a2a") {
		t.Errorf("URL = %q", card.URL)
	}
}

func TestFetch_non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if _, err := agentcard.Fetch(srv.URL); err == nil {
		t.Error("expected error for 404 response")
	}
}
