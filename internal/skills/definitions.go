package skills

// Skill names, as published on the agent card and the MCP tool list.
const (
	SkillGetProducts              = "get_products"
	SkillListCreativeFormats      = "list_creative_formats"
	SkillListAuthorizedProperties = "list_authorized_properties"
	SkillCreateMediaBuy           = "create_media_buy"
	SkillUpdateMediaBuy           = "update_media_buy"
	SkillGetMediaBuyDelivery      = "get_media_buy_delivery"
	SkillSyncCreatives            = "sync_creatives"
	SkillListCreatives            = "list_creatives"
	SkillGetSignals               = "get_signals"
	SkillActivateSignal           = "activate_signal"
	SkillUpdatePerformanceIndex   = "update_performance_index"
)

// Definition describes one skill for the agent card and tool listings.
type Definition struct {
	Name         string
	Description  string
	Tags         []string
	RequiresAuth bool
	InputSchema  map[string]any
}

// Definitions returns every skill in publication order.
func Definitions() []Definition {
	return definitions
}

// Lookup returns the definition of a skill.
func Lookup(name string) (Definition, bool) {
	d, ok := definitionsByName[name]
	return d, ok
}

var definitions = []Definition{
	{
		Name:        SkillGetProducts,
		Description: "Discover advertising products matching a campaign brief and brand manifest.",
		Tags:        []string{"discovery", "products"},
		InputSchema: objectSchema(map[string]any{
			"brief":          map[string]any{"type": "string", "description": "Natural-language campaign brief"},
			"brand_manifest": map[string]any{"description": "Advertiser brand manifest (object or bare name)"},
			"filters":        map[string]any{"type": "object", "description": "Structured product filters"},
		}, []string{"brand_manifest"}),
	},
	{
		Name:        SkillListCreativeFormats,
		Description: "List the creative formats this agent accepts, standard and custom.",
		Tags:        []string{"discovery", "creatives"},
		InputSchema: objectSchema(map[string]any{
			"type":          map[string]any{"type": "string", "enum": []string{"video", "display", "audio", "native", "dooh"}},
			"standard_only": map[string]any{"type": "boolean"},
			"category":      map[string]any{"type": "string", "enum": []string{"standard", "custom"}},
			"format_ids":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		}, nil),
	},
	{
		Name:        SkillListAuthorizedProperties,
		Description: "List the publisher properties this agent is authorized to sell.",
		Tags:        []string{"discovery", "properties"},
		InputSchema: objectSchema(map[string]any{
			"tags": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		}, nil),
	},
	{
		Name:         SkillCreateMediaBuy,
		Description:  "Create a media buy from selected products with budget and flight dates.",
		Tags:         []string{"transaction", "media-buy"},
		RequiresAuth: true,
		InputSchema: objectSchema(map[string]any{
			"buyer_ref":      map[string]any{"type": "string", "description": "Buyer's reference for this buy"},
			"packages":       map[string]any{"type": "array", "description": "Product lines to buy"},
			"brand_manifest": map[string]any{"description": "Advertiser brand manifest"},
			"start_time":     map[string]any{"type": "string", "description": "RFC 3339 timestamp or \"asap\""},
			"end_time":       map[string]any{"type": "string", "description": "RFC 3339 timestamp"},
			"budget":         map[string]any{"description": "Budget object or bare number"},
		}, []string{"buyer_ref", "packages", "brand_manifest", "start_time", "end_time", "budget"}),
	},
	{
		Name:         SkillUpdateMediaBuy,
		Description:  "Pause, resume, or modify an existing media buy and its packages.",
		Tags:         []string{"transaction", "media-buy"},
		RequiresAuth: true,
		InputSchema: objectSchema(map[string]any{
			"media_buy_id": map[string]any{"type": "string"},
			"buyer_ref":    map[string]any{"type": "string"},
			"active":       map[string]any{"type": "boolean"},
			"budget":       map[string]any{"description": "Budget object or bare number"},
			"packages":     map[string]any{"type": "array", "description": "Package-level updates"},
		}, nil),
	},
	{
		Name:         SkillGetMediaBuyDelivery,
		Description:  "Report delivery metrics for one or more media buys.",
		Tags:         []string{"reporting", "media-buy"},
		RequiresAuth: true,
		InputSchema: objectSchema(map[string]any{
			"media_buy_ids": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"buyer_refs":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		}, nil),
	},
	{
		Name:         SkillSyncCreatives,
		Description:  "Upsert creative assets and their package assignments.",
		Tags:         []string{"creatives"},
		RequiresAuth: true,
		InputSchema: objectSchema(map[string]any{
			"creatives":       map[string]any{"type": "array", "description": "Creative assets to sync"},
			"creative_ids":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"assignments":     map[string]any{"type": "object", "description": "creative_id to package_ids"},
			"delete_missing":  map[string]any{"type": "boolean"},
			"dry_run":         map[string]any{"type": "boolean"},
			"validation_mode": map[string]any{"type": "string", "enum": []string{"strict", "lenient"}},
		}, nil),
	},
	{
		Name:         SkillListCreatives,
		Description:  "Page through the creative library with filters.",
		Tags:         []string{"creatives"},
		RequiresAuth: true,
		InputSchema: objectSchema(map[string]any{
			"media_buy_ids":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"status":         map[string]any{"type": "string"},
			"format":         map[string]any{"type": "string"},
			"search":         map[string]any{"type": "string"},
			"created_after":  map[string]any{"type": "string"},
			"created_before": map[string]any{"type": "string"},
			"limit":          map[string]any{"type": "integer"},
			"offset":         map[string]any{"type": "integer"},
		}, nil),
	},
	{
		Name:        SkillGetSignals,
		Description: "Search audience and contextual signals usable with this agent.",
		Tags:        []string{"discovery", "signals"},
		InputSchema: objectSchema(map[string]any{
			"signal_spec": map[string]any{"type": "string", "description": "Natural-language signal description"},
			"deliver_to":  map[string]any{"type": "object"},
			"filters":     map[string]any{"type": "object"},
			"max_results": map[string]any{"type": "integer"},
		}, []string{"signal_spec"}),
	},
	{
		Name:         SkillActivateSignal,
		Description:  "Activate a signal on a decisioning platform.",
		Tags:         []string{"signals"},
		RequiresAuth: true,
		InputSchema: objectSchema(map[string]any{
			"signal_id": map[string]any{"type": "string"},
			"platform":  map[string]any{"type": "string"},
			"account":   map[string]any{"type": "string"},
		}, []string{"signal_id", "platform"}),
	},
	{
		Name:         SkillUpdatePerformanceIndex,
		Description:  "Feed performance index scores back to packages for optimization.",
		Tags:         []string{"reporting", "optimization"},
		RequiresAuth: true,
		InputSchema: objectSchema(map[string]any{
			"media_buy_id":     map[string]any{"type": "string"},
			"buyer_ref":        map[string]any{"type": "string"},
			"performance_data": map[string]any{"type": "array"},
		}, []string{"performance_data"}),
	},
}

var definitionsByName = func() map[string]Definition {
	m := make(map[string]Definition, len(definitions))
	for _, d := range definitions {
		m[d.Name] = d
	}
	return m
}()

func objectSchema(properties map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
