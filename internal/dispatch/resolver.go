package dispatch

import "strings"

// stockRule maps title keywords to an inventory line and a replenishment
// quantity.
type stockRule struct {
	keywords []string
	key      string
	quantity int
}

// defaultStockRules are checked in order; the first keyword hit wins.
var defaultStockRules = []stockRule{
	{keywords: []string{"mask"}, key: "masks", quantity: 500},
	{keywords: []string{"oxygen"}, key: "oxygen", quantity: 20},
	{keywords: []string{"bed", "surge"}, key: "beds_available", quantity: 5},
	{keywords: []string{"ors", "fluid"}, key: "ors_packs", quantity: 100},
}

// genericStock is applied when no keyword matches a resource action title.
var genericStock = stockRule{key: "ors_packs", quantity: 50}

// TitleResolver maps free-form action titles to inventory adjustments. It
// backs resource and inventory actions that arrive without a structured tool
// call.
type TitleResolver struct {
	rules   []stockRule
	generic stockRule
}

// NewTitleResolver returns a resolver with the built-in keyword rules.
func NewTitleResolver() *TitleResolver {
	return &TitleResolver{rules: defaultStockRules, generic: genericStock}
}

// Resolve returns the inventory key and quantity for an action title. Titles
// with no keyword hit fall back to a generic supply bump, so a resource
// action is never dropped.
func (r *TitleResolver) Resolve(title string) (string, int) {
	lower := strings.ToLower(title)
	for _, rule := range r.rules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.key, rule.quantity
			}
		}
	}
	return r.generic.key, r.generic.quantity
}
