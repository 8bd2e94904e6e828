package report

import "strings"

// VendorRule maps a title substring to a canonical vendor category.
// Rules are data, not code: the list is evaluated in order,
// first-match-wins, and operators extend it without touching the
// aggregation logic.
type VendorRule struct {
	Pattern  string
	Category string
}

// DefaultVendorRules groups the near-duplicate vendor spellings seen in
// the register sheets.
var DefaultVendorRules = []VendorRule{
	{Pattern: "multibar", Category: "MULTIBAR (Fornecedor)"},
	{Pattern: "açougue", Category: "AÇOUGUE / PROTEÍNA"},
	{Pattern: "supermercado", Category: "SUPERMERCADO / INSUMOS"},
	{Pattern: "mercado", Category: "SUPERMERCADO / INSUMOS"},
	{Pattern: "compra", Category: "SUPERMERCADO / INSUMOS"},
	{Pattern: "construçao", Category: "MANUTENÇÃO / OBRA"},
	{Pattern: "construção", Category: "MANUTENÇÃO / OBRA"},
	{Pattern: "embalagen", Category: "EMBALAGENS"},
}

// NormalizeVendor reduces a ledger title to its vendor category:
// lower-case, strip any installment annotation "(k/n)" and everything
// after the first parenthesis, then apply the rule list. Titles no rule
// matches become their own upper-cased category.
func NormalizeVendor(title string, rules []VendorRule) string {
	name := strings.ToLower(title)

	if strings.Contains(name, "(") && strings.Contains(name, "/") {
		name = strings.TrimSpace(name[:strings.Index(name, "(")])
	}

	for _, rule := range rules {
		if strings.Contains(name, rule.Pattern) {
			return rule.Category
		}
	}
	return strings.ToUpper(strings.TrimSpace(name))
}
