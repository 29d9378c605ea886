package client

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables the convenience constructor reads. The CLI and
// CI jobs set these once instead of threading flags everywhere.
const (
	EnvAgentURL  = "ADCP_AGENT_URL"
	EnvAuthToken = "ADCP_AUTH_TOKEN"
)

// Credentials pairs an agent endpoint with the principal's access token.
type Credentials struct {
	AgentURL string
	// Token is the principal's bearer token. Keep this secret; it grants
	// transactional access inside the issuing tenant.
	Token string
}

// LoadCredentials reads credentials from the environment. The token may
// point at a file via the @/path form, so secrets can live on disk
// instead of in process environments.
//
//	export ADCP_AGENT_URL=wonder.sales.example.com
//	export ADCP_AUTH_TOKEN=@/run/secrets/adcp-token
func LoadCredentials() (*Credentials, error) {
	agentURL := os.Getenv(EnvAgentURL)
	if agentURL == "" {
		return nil, fmt.Errorf("%s is not set", EnvAgentURL)
	}
	token, err := ExpandToken(os.Getenv(EnvAuthToken))
	if err != nil {
		return nil, err
	}
	return &Credentials{AgentURL: agentURL, Token: token}, nil
}

// ExpandToken dereferences the @/path token form, returning literal
// tokens unchanged.
func ExpandToken(token string) (string, error) {
	if !strings.HasPrefix(token, "@") {
		return token, nil
	}
	b, err := os.ReadFile(token[1:])
	if err != nil {
		return "", fmt.Errorf("read token file %q: %w", token[1:], err)
	}
	return strings.TrimSpace(string(b)), nil
}

// NewFromEnv creates a Client from ADCP_AGENT_URL and ADCP_AUTH_TOKEN.
// The token is optional; discovery surfaces work anonymously.
//
//	c, err := client.NewFromEnv(client.WithWebhook(hook))
func NewFromEnv(opts ...Option) (*Client, error) {
	creds, err := LoadCredentials()
	if err != nil {
		return nil, err
	}
	if creds.Token != "" {
		opts = append([]Option{WithBearerToken(creds.Token)}, opts...)
	}
	return New(creds.AgentURL, opts...)
}
