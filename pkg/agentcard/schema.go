// Package agentcard defines the A2A agent-card schema served at
// /.well-known/agent-card.json and a client-side fetch helper.
//
// Field names are camelCase on the A2A wire.
package agentcard

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ProtocolVersion is the A2A protocol revision this card schema tracks.
const ProtocolVersion = "0.3.0"

// Capabilities declares the protocol features the agent supports.
// All fields default to false.
type Capabilities struct {
	Streaming              bool `json:"streaming"`
	PushNotifications      bool `json:"pushNotifications"`
	StateTransitionHistory bool `json:"stateTransitionHistory"`
}

// Skill describes a single operation the agent advertises.
type Skill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	InputModes  []string `json:"inputModes,omitempty"`
	OutputModes []string `json:"outputModes,omitempty"`
}

// SecurityScheme describes one way to authenticate to the agent.
type SecurityScheme struct {
	Type        string `json:"type"`
	Scheme      string `json:"scheme,omitempty"`
	In          string `json:"in,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// Card is the discovery document served by an A2A agent. URL is
// request-scoped: multi-tenant deployments compute it from routing
// headers so each tenant's card points at its own virtual host.
type Card struct {
	ProtocolVersion    string                    `json:"protocolVersion"`
	Name               string                    `json:"name"`
	Description        string                    `json:"description,omitempty"`
	URL                string                    `json:"url"`
	Version            string                    `json:"version"`
	Capabilities       Capabilities              `json:"capabilities"`
	DefaultInputModes  []string                  `json:"defaultInputModes,omitempty"`
	DefaultOutputModes []string                  `json:"defaultOutputModes,omitempty"`
	Skills             []Skill                   `json:"skills,omitempty"`
	SecuritySchemes    map[string]SecurityScheme `json:"securitySchemes,omitempty"`
}

// Parse decodes a Card from JSON bytes.
func Parse(data []byte) (*Card, error) {
	var card Card
	if err := json.Unmarshal(data, &card); err != nil {
		return nil, fmt.Errorf("decode agent card: %w", err)
	}
	if err := card.Validate(); err != nil {
		return nil, err
	}
	return &card, nil
}

// Fetch retrieves and parses the agent card from an agent's base URL.
// baseURL may omit the scheme, in which case https is assumed.
func Fetch(baseURL string) (*Card, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("agent card: base URL is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid agent URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" {
		u, err = url.Parse("https://" + baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid agent URL %q: %w", baseURL, err)
		}
	}
	u.Path = "/.well-known/agent-card.json"

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(u.String()) //nolint:noctx
	if err != nil {
		return nil, fmt.Errorf("fetch agent card: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("agent card fetch returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB limit
	if err != nil {
		return nil, fmt.Errorf("read agent card body: %w", err)
	}

	return Parse(body)
}

// Validate checks required fields of a Card.
func (c *Card) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("agent card: name is required")
	}
	if c.URL == "" {
		return fmt.Errorf("agent card: url is required")
	}
	if c.Version == "" {
		return fmt.Errorf("agent card: version is required")
	}
	for i, s := range c.Skills {
		if s.ID == "" {
			return fmt.Errorf("agent card: skills[%d].id is required", i)
		}
	}
	return nil
}
