// Package symbols maps provider-specific display names onto canonical
// underlying symbols. Providers disagree on how the same index is spelled
// ("NIFTY 50" vs "NIFTY", "NIFTY BANK" vs "BANKNIFTY"); everything downstream
// of catalog loading works in the canonical space only.
package symbols

import "strings"

// Normalizer resolves raw display names to canonical symbols using a fixed,
// case-insensitive lookup table supplied at construction time.
type Normalizer struct {
	table map[string]string
}

// NewNormalizer builds a Normalizer from the given raw-name → canonical-symbol
// mapping. Keys are matched case-insensitively.
func NewNormalizer(mapping map[string]string) *Normalizer {
	table := make(map[string]string, len(mapping))
	for raw, canonical := range mapping {
		table[strings.ToUpper(strings.TrimSpace(raw))] = canonical
	}
	return &Normalizer{table: table}
}

// Normalize returns the canonical symbol for a raw display name. The second
// return value is false when the name has no entry in the table; the caller
// decides whether unmapped instruments are dropped or carried under their raw
// name.
func (n *Normalizer) Normalize(raw string) (string, bool) {
	canonical, ok := n.table[strings.ToUpper(strings.TrimSpace(raw))]
	return canonical, ok
}

// DefaultIndexMap returns the known index display names and their canonical
// symbols. Extending coverage to a new underlying means adding a row here,
// not inferring structure from catalog data.
func DefaultIndexMap() map[string]string {
	return map[string]string{
		"NIFTY":                    "NIFTY",
		"NIFTY 50":                 "NIFTY",
		"BANKNIFTY":                "BANKNIFTY",
		"NIFTY BANK":               "BANKNIFTY",
		"FINNIFTY":                 "FINNIFTY",
		"NIFTY FIN SERVICE":        "FINNIFTY",
		"NIFTY FINANCIAL SERVICES": "FINNIFTY",
		"MIDCPNIFTY":               "MIDCPNIFTY",
		"NIFTY MIDCAP SELECT":      "MIDCPNIFTY",
		"SENSEX":                   "SENSEX",
		"BANKEX":                   "BANKEX",
	}
}
