package a2a

import "testing"

func TestRouteText(t *testing.T) {
	cases := []struct {
		text string
		want intent
	}{
		{"What video ad products do you have available?", intentProducts},
		{"Show me your inventory catalog", intentProducts},
		{"What are your CPM rates?", intentPricing},
		{"How much does a homepage takeover cost?", intentPricing},
		{"Can I target sports fans?", intentTargeting},
		{"What audience segments do you offer for autos?", intentTargeting},
		{"Create a campaign for my spring launch", intentCreate},
		{"I want to buy video ads", intentCreate},
		{"What can you do?", intentCapabilities},
		{"", intentCapabilities},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			if got := routeText(tc.text); got != tc.want {
				t.Errorf("routeText(%q) = %s, want %s", tc.text, got, tc.want)
			}
		})
	}
}

// Creation verbs outrank discovery nouns so a buy request mentioning
// products is not misrouted to the catalog.
func TestRouteText_createBeatsProducts(t *testing.T) {
	if got := routeText("book these products for next month"); got != intentCreate {
		t.Errorf("routeText = %s, want create_media_buy", got)
	}
}
