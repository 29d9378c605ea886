package catalog

import (
	"strings"

	"github.com/adcontexthq/salesagent/internal/adcp"
)

// briefStopwords are too common to discriminate between products.
var briefStopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"for": true, "to": true, "of": true, "in": true, "on": true,
	"with": true, "ads": true, "ad": true, "campaign": true,
	"advertising": true, "i": true, "we": true, "want": true,
	"need": true, "looking": true, "buy": true,
}

// MatchBrief reports whether a product is relevant to a natural-language
// brief. An empty brief matches everything. Otherwise at least one
// non-stopword term must appear in the product's name, description,
// format ids or format types.
func MatchBrief(p *adcp.Product, brief string) bool {
	terms := briefTerms(brief)
	if len(terms) == 0 {
		return true
	}
	hay := searchText(p)
	for _, term := range terms {
		if strings.Contains(hay, term) {
			return true
		}
	}
	return false
}

func briefTerms(brief string) []string {
	fields := strings.Fields(strings.ToLower(brief))
	terms := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"'()")
		if len(f) < 3 || briefStopwords[f] {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

func searchText(p *adcp.Product) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(p.Name))
	b.WriteByte(' ')
	b.WriteString(strings.ToLower(p.Description))
	for _, f := range p.Formats {
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(f.ID))
	}
	b.WriteByte(' ')
	b.WriteString(strings.ToLower(p.DeliveryType))
	return b.String()
}

// FilterProducts applies the structured filters to a product list.
// Format-type filtering needs the format catalog to resolve ids to types.
func FilterProducts(products []adcp.Product, filters *adcp.ProductFilters, formatTypes map[string]string) []adcp.Product {
	if filters == nil {
		return products
	}
	out := products[:0]
	for _, p := range products {
		if filters.DeliveryType != "" && p.DeliveryType != filters.DeliveryType {
			continue
		}
		if filters.IsFixedPrice != nil && p.IsFixedPrice != *filters.IsFixedPrice {
			continue
		}
		if len(filters.FormatIDs) > 0 && !hasAnyFormat(p.Formats, filters.FormatIDs) {
			continue
		}
		if len(filters.FormatTypes) > 0 && !hasAnyFormatType(p.Formats, filters.FormatTypes, formatTypes) {
			continue
		}
		if filters.StandardFormatsOnly && !allStandardFormats(p.Formats) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func hasAnyFormat(formats []adcp.FormatID, want []string) bool {
	for _, f := range formats {
		for _, id := range want {
			if f.ID == id {
				return true
			}
		}
	}
	return false
}

func hasAnyFormatType(formats []adcp.FormatID, want []string, types map[string]string) bool {
	for _, f := range formats {
		ft, ok := types[f.ID]
		if !ok {
			continue
		}
		for _, w := range want {
			if ft == w {
				return true
			}
		}
	}
	return false
}

func allStandardFormats(formats []adcp.FormatID) bool {
	for _, f := range formats {
		if f.AgentURL != "" && f.AgentURL != StandardFormatsAgentURL {
			return false
		}
	}
	return true
}
