package a2a

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/adcontexthq/salesagent/internal/auth"
	"github.com/adcontexthq/salesagent/internal/skills"
	"github.com/adcontexthq/salesagent/pkg/agentcard"
)

// handleAgentCard serves the discovery document. The card is
// request-scoped: the URL reflects the host the request arrived on, so
// each tenant's virtual host advertises itself, and the name carries the
// tenant when routing headers identify one.
func (s *Server) handleAgentCard(c *gin.Context) {
	host := c.Request.Header.Get("Apx-Incoming-Host")
	if host == "" {
		host = c.Request.Host
	}

	name := s.agentName
	description := "AdCP advertising sales agent for programmatic media buying."
	sig := auth.SignalsFromRequest(c.Request, "", auth.ProtocolA2A)
	if tenant, err := s.resolver.ResolveTenant(c.Request.Context(), sig); err == nil {
		name = tenant.Name + " Sales Agent"
		description = fmt.Sprintf("AdCP sales agent for %s inventory.", tenant.Name)
	}

	defs := skills.Definitions()
	cardSkills := make([]agentcard.Skill, 0, len(defs))
	for _, d := range defs {
		cardSkills = append(cardSkills, agentcard.Skill{
			ID:          d.Name,
			Name:        d.Name,
			Description: d.Description,
			Tags:        d.Tags,
			InputModes:  []string{"application/json"},
			OutputModes: []string{"application/json"},
		})
	}

	card := agentcard.Card{
		ProtocolVersion: agentcard.ProtocolVersion,
		Name:            name,
		Description:     description,
		URL:             fmt.Sprintf("%s://%s/a2a", schemeFor(host), host),
		Version:         s.version,
		Capabilities: agentcard.Capabilities{
			Streaming:         true,
			PushNotifications: true,
		},
		DefaultInputModes:  []string{"application/json", "text/plain"},
		DefaultOutputModes: []string{"application/json"},
		Skills:             cardSkills,
		SecuritySchemes: map[string]agentcard.SecurityScheme{
			"bearer": {
				Type:        "http",
				Scheme:      "bearer",
				Description: "Principal access token issued by the publisher.",
			},
		},
	}
	c.JSON(http.StatusOK, card)
}

// schemeFor picks the card URL scheme: plain http only for local
// development hosts.
func schemeFor(host string) string {
	hostname := host
	if h, _, ok := strings.Cut(host, ":"); ok {
		hostname = h
	}
	if hostname == "localhost" || hostname == "127.0.0.1" {
		return "http"
	}
	return "https"
}

// handleDebugTenant reports which tenant a request would resolve to.
// Unlike buyer paths it honors the x-adcp-tenant header, so operators can
// probe routing without a virtual host.
func (s *Server) handleDebugTenant(c *gin.Context) {
	sig := auth.SignalsFromRequest(c.Request, "", auth.ProtocolA2A)
	sig.AllowTenantHeader = true

	tenant, err := s.resolver.ResolveTenant(c.Request.Context(), sig)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":             "no tenant matched the request",
			"apx_incoming_host": sig.ApxIncomingHost,
			"host":              sig.Host,
		})
		return
	}
	c.Header("X-Tenant-Id", tenant.TenantID)
	c.JSON(http.StatusOK, gin.H{
		"tenant_id":    tenant.TenantID,
		"name":         tenant.Name,
		"subdomain":    tenant.Subdomain,
		"virtual_host": tenant.VirtualHost,
	})
}
