package a2a

import "strings"

// intent classifies a natural-language message.
type intent int

const (
	intentCapabilities intent = iota
	intentProducts
	intentPricing
	intentTargeting
	intentCreate
)

func (i intent) String() string {
	switch i {
	case intentProducts:
		return "products"
	case intentPricing:
		return "pricing"
	case intentTargeting:
		return "targeting"
	case intentCreate:
		return "create_media_buy"
	default:
		return "capabilities"
	}
}

// routeText maps free text onto a handling intent. The table is
// deliberately plain keyword matching and is the seam an intent
// classifier would replace; dispatch around it would not change.
//
// Creation keywords are checked first so "create a buy for these
// products" routes to creation, not discovery.
func routeText(text string) intent {
	t := strings.ToLower(text)
	switch {
	case containsAny(t, "create", "buy", "purchase", "book", "launch", "campaign setup"):
		return intentCreate
	case containsAny(t, "price", "pricing", "cost", "cpm", "rate card", "how much"):
		return intentPricing
	case containsAny(t, "target", "audience", "signal", "segment", "demographic"):
		return intentTargeting
	case containsAny(t, "product", "inventory", "catalog", "avail", "placement", "format", "offer"):
		return intentProducts
	default:
		return intentCapabilities
	}
}

func containsAny(text string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
