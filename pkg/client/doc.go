// Package client is the AdCP sales agent Go SDK.
//
// It speaks the agent's A2A JSON-RPC surface: card discovery, skill
// invocation over message/send, task polling and cancellation, and
// webhook registration.
//
// # Calling a skill
//
// Construct a client against the tenant's host and invoke skills by name:
//
//	c, err := client.New("wonder.sales.example.com",
//	    client.WithBearerToken(os.Getenv("ADCP_AUTH_TOKEN")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	task, err := c.CallSkill(ctx, "get_products", map[string]any{
//	    "brief":          "premium CTV inventory for a spring campaign",
//	    "brand_manifest": map[string]any{"name": "Acme"},
//	})
//
// Skill results arrive as task artifacts. Result unwraps the envelope and
// DecodePayload decodes the operation response:
//
//	if env, ok := task.Result(); ok {
//	    var out struct {
//	        Products []json.RawMessage `json:"products"`
//	    }
//	    env.DecodePayload(&out)
//	}
//
// # Natural language
//
// Plain-text messages route by keyword on the agent side. Discovery
// queries work anonymously; transactional asks come back input-required
// with guidance in task.Text():
//
//	task, _ := c.SendText(ctx, "What video inventory do you have?")
//
// # Tasks
//
// Every send returns a task id that stays pollable for an hour:
//
//	task, err := c.GetTask(ctx, id)
//	task, err = c.CancelTask(ctx, id)
//
// # Webhooks
//
// Attach a per-send config so lifecycle updates post back without
// polling, or register a standing config that also receives scheduled
// delivery reports:
//
//	c, _ := client.New(host, client.WithBearerToken(token),
//	    client.WithWebhook(client.PushConfig{URL: "https://buyer.example.com/hooks"}),
//	)
//
//	c.RegisterWebhook(ctx, "", client.PushConfig{
//	    URL:            "https://buyer.example.com/hooks",
//	    Authentication: &client.Authentication{Schemes: []string{"HMAC-SHA256"}, Credentials: secret},
//	})
//
// # Discovery
//
// The agent card is public; no token is required:
//
//	card, err := c.Discover(ctx)
//	fmt.Println(card.Name, len(card.Skills))
package client
