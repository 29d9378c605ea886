package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/adcontexthq/salesagent/pkg/client"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var (
	cfgFile   string
	agentURL  string
	authToken string
	insecure  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "adcp",
	Short: "AdCP sales agent CLI",
	Long: `adcp is the command-line buyer for an AdCP sales agent.

It discovers agents via their A2A card, invokes skills like get_products
and create_media_buy, polls tasks, and manages webhook registrations.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.adcp")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if agentURL == "" {
			agentURL = viper.GetString("agent_url")
		}
		if agentURL == "" {
			agentURL = os.Getenv(client.EnvAgentURL)
		}
		if authToken == "" {
			authToken = viper.GetString("auth_token")
		}
		if authToken == "" {
			authToken = os.Getenv(client.EnvAuthToken)
		}
		var err error
		authToken, err = client.ExpandToken(authToken)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.adcp/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&agentURL, "agent", "", "sales agent host or A2A URL (default $ADCP_AGENT_URL)")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "principal access token, or @/path/to/file (default $ADCP_AUTH_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification (development only)")

	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(productsCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(webhookCmd)
	rootCmd.AddCommand(versionCmd)
}

func newClient(extra ...client.Option) (*client.Client, error) {
	if agentURL == "" {
		return nil, fmt.Errorf("agent endpoint required: set --agent, agent_url in config, or %s", client.EnvAgentURL)
	}
	opts := []client.Option{}
	if authToken != "" {
		opts = append(opts, client.WithBearerToken(authToken))
	}
	if insecure {
		opts = append(opts, client.WithInsecureSkipVerify())
	}
	return client.New(agentURL, append(opts, extra...)...)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ── discover ─────────────────────────────────────────────────────────────────

var discoverFormat string

var discoverCmd = &cobra.Command{
	Use:   "discover [host]",
	Short: "Fetch and display an agent's A2A card",
	Long: `discover fetches /.well-known/agent-card.json from the agent.

The card is public, so no token is needed:

  adcp discover wonder.sales.example.com`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			agentURL = args[0]
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		card, err := c.Discover(context.Background())
		if err != nil {
			return err
		}
		if discoverFormat == "json" {
			return printJSON(card)
		}

		fmt.Printf("Name:        %s\n", card.Name)
		if card.Description != "" {
			fmt.Printf("Description: %s\n", card.Description)
		}
		fmt.Printf("URL:         %s\n", card.URL)
		fmt.Printf("Protocol:    %s\n", card.ProtocolVersion)
		fmt.Printf("Version:     %s\n", card.Version)
		fmt.Printf("Streaming:   %t   Push: %t\n\n", card.Capabilities.Streaming, card.Capabilities.PushNotifications)
		fmt.Printf("Skills (%d):\n", len(card.Skills))
		for _, s := range card.Skills {
			if s.Description != "" {
				fmt.Printf("  %-28s %s\n", s.ID, s.Description)
			} else {
				fmt.Printf("  %s\n", s.ID)
			}
		}
		return nil
	},
}

func init() {
	discoverCmd.Flags().StringVar(&discoverFormat, "format", "text", "Output format: text or json")
}

// ── products ─────────────────────────────────────────────────────────────────

var (
	productsBrief    string
	productsBrand    string
	productsOffering string
	productsFormat   string
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Query the agent's product catalog",
	Long: `products invokes get_products with a campaign brief.

Discovery is open; a token widens results to principal-specific products:

  adcp products --brief "premium CTV for a spring launch" --brand "Acme"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		input := map[string]any{
			"brief":          productsBrief,
			"brand_manifest": map[string]any{"name": productsBrand},
		}
		if productsOffering != "" {
			input["promoted_offering"] = productsOffering
		}
		task, err := c.CallSkill(context.Background(), "get_products", input)
		if err != nil {
			return err
		}
		env, ok := task.Result()
		if !ok {
			return fmt.Errorf("task %s returned no result (state %s)", task.ID, task.Status.State)
		}
		var out struct {
			Products []struct {
				ProductID    string `json:"product_id"`
				Name         string `json:"name"`
				DeliveryType string `json:"delivery_type"`
				IsFixedPrice bool   `json:"is_fixed_price"`
				Pricing      []struct {
					PricingModel string  `json:"pricing_model"`
					Rate         float64 `json:"rate"`
					Currency     string  `json:"currency"`
				} `json:"pricing_options"`
			} `json:"products"`
			Errors []struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"errors"`
		}
		if err := env.DecodePayload(&out); err != nil {
			return err
		}
		if productsFormat == "json" {
			return printJSON(json.RawMessage(env.Payload))
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tDELIVERY\tPRICING")
		for _, p := range out.Products {
			pricing := "auction"
			if len(p.Pricing) > 0 {
				first := p.Pricing[0]
				if p.IsFixedPrice {
					pricing = fmt.Sprintf("%.2f %s %s", first.Rate, first.Currency, first.PricingModel)
				} else {
					pricing = first.PricingModel + " auction"
				}
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ProductID, p.Name, p.DeliveryType, pricing)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		for _, e := range out.Errors {
			fmt.Printf("! %s: %s\n", e.Code, e.Message)
		}
		return nil
	},
}

func init() {
	productsCmd.Flags().StringVar(&productsBrief, "brief", "", "Campaign brief text")
	productsCmd.Flags().StringVar(&productsBrand, "brand", "", "Advertiser brand name")
	productsCmd.Flags().StringVar(&productsOffering, "offering", "", "Promoted offering description")
	productsCmd.Flags().StringVar(&productsFormat, "format", "text", "Output format: text or json")

	_ = productsCmd.MarkFlagRequired("brief")
	_ = productsCmd.MarkFlagRequired("brand")
}

// ── send ─────────────────────────────────────────────────────────────────────

var (
	sendInput   string
	sendWebhook string
)

var sendCmd = &cobra.Command{
	Use:   "send <skill>",
	Short: "Invoke one skill with a JSON input",
	Long: `send invokes any skill the agent advertises. Input is inline JSON
or @/path/to/file:

  adcp send sync_creatives --input @creatives.json
  adcp send get_signals --input '{"signal_spec":"sports fans"}'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		skill := args[0]
		var input any
		if sendInput != "" {
			raw := []byte(sendInput)
			if strings.HasPrefix(sendInput, "@") {
				var err error
				raw, err = os.ReadFile(sendInput[1:])
				if err != nil {
					return fmt.Errorf("read input file: %w", err)
				}
			}
			if err := json.Unmarshal(raw, &input); err != nil {
				return fmt.Errorf("input is not valid JSON: %w", err)
			}
		}

		opts := []client.Option{}
		if sendWebhook != "" {
			opts = append(opts, client.WithWebhook(client.PushConfig{URL: sendWebhook}))
		}
		c, err := newClient(opts...)
		if err != nil {
			return err
		}
		task, err := c.CallSkill(context.Background(), skill, input)
		if err != nil {
			return err
		}
		if err := printJSON(task); err != nil {
			return err
		}
		if task.Status.State == "failed" {
			return fmt.Errorf("task %s failed", task.ID)
		}
		return nil
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendInput, "input", "", "Skill input as inline JSON or @file")
	sendCmd.Flags().StringVar(&sendWebhook, "webhook", "", "Webhook URL for task lifecycle updates")
}

// ── ask ──────────────────────────────────────────────────────────────────────

var askCmd = &cobra.Command{
	Use:   "ask <text...>",
	Short: "Send a natural-language message",
	Long: `ask sends free text and prints whatever the agent routes it to:

  adcp ask "What premium video inventory do you have?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		task, err := c.SendText(context.Background(), strings.Join(args, " "))
		if err != nil {
			return err
		}

		if text := task.Text(); text != "" {
			fmt.Println(text)
		}
		if raw, ok := task.Data(); ok {
			var pretty any
			if json.Unmarshal(raw, &pretty) == nil {
				fmt.Println()
				if err := printJSON(pretty); err != nil {
					return err
				}
			}
		}
		fmt.Printf("\nTask: %s (%s)\n", task.ID, task.Status.State)
		return nil
	},
}

// ── task ─────────────────────────────────────────────────────────────────────

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Poll or cancel tasks",
}

var taskGetCmd = &cobra.Command{
	Use:   "get <task-id>",
	Short: "Fetch a task's current state and artifacts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		task, err := c.GetTask(context.Background(), args[0])
		if err != nil {
			return err
		}
		return printJSON(task)
	},
}

var taskCancelCmd = &cobra.Command{
	Use:   "cancel <task-id>",
	Short: "Cancel a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		task, err := c.CancelTask(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Task %s: %s\n", task.ID, task.Status.State)
		return nil
	},
}

func init() {
	taskCmd.AddCommand(taskGetCmd)
	taskCmd.AddCommand(taskCancelCmd)
}

// ── webhook ──────────────────────────────────────────────────────────────────

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Manage push-notification configs",
	Long: `webhook manages where the agent posts task updates and scheduled
delivery reports. Configs registered without --task also receive the
periodic delivery snapshots for your media buys.`,
}

var (
	webhookURL         string
	webhookTask        string
	webhookScheme      string
	webhookCredentials string
	webhookToken       string
)

var webhookRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a webhook",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		cfg := client.PushConfig{URL: webhookURL, Token: webhookToken}
		if webhookScheme != "" {
			cfg.Authentication = &client.Authentication{
				Schemes:     []string{webhookScheme},
				Credentials: webhookCredentials,
			}
		}
		res, err := c.RegisterWebhook(context.Background(), webhookTask, cfg)
		if err != nil {
			return err
		}
		fmt.Printf("Registered %s -> %s\n", res.PushNotificationConfig.ID, res.PushNotificationConfig.URL)
		return nil
	},
}

var webhookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered webhooks",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		configs, err := c.ListWebhooks(context.Background())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tURL\tTASK\tSCHEMES")
		for _, r := range configs {
			cfg := r.PushNotificationConfig
			schemes := ""
			if cfg.Authentication != nil {
				schemes = strings.Join(cfg.Authentication.Schemes, ",")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", cfg.ID, cfg.URL, r.TaskID, schemes)
		}
		return w.Flush()
	},
}

var webhookDeleteCmd = &cobra.Command{
	Use:   "delete <config-id>",
	Short: "Delete a registered webhook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := c.DeleteWebhook(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Println("Deleted.")
		return nil
	},
}

func init() {
	webhookRegisterCmd.Flags().StringVar(&webhookURL, "url", "", "Webhook URL")
	webhookRegisterCmd.Flags().StringVar(&webhookTask, "task", "", "Bind to one task's lifecycle (default: standing)")
	webhookRegisterCmd.Flags().StringVar(&webhookScheme, "scheme", "", "Authentication scheme: HMAC-SHA256, Bearer, or JWT")
	webhookRegisterCmd.Flags().StringVar(&webhookCredentials, "credentials", "", "Shared secret for the chosen scheme")
	webhookRegisterCmd.Flags().StringVar(&webhookToken, "validation-token", "", "Opaque token echoed in webhook payload headers")
	_ = webhookRegisterCmd.MarkFlagRequired("url")

	webhookCmd.AddCommand(webhookRegisterCmd)
	webhookCmd.AddCommand(webhookListCmd)
	webhookCmd.AddCommand(webhookDeleteCmd)
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the adcp CLI version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("adcp %s (Ad Context Protocol)\n", version)
	},
}
