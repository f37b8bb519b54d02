package classification

import (
	_ "embed"
	"strings"
	"unicode"

	"github.com/petroflow/petroflow/modules/marketdata/domain/entities/marketprice"
)

//go:embed default_rules.yaml
var defaultRules []byte

// minFallbackCodeLen rejects fallback codes too short to be meaningful
// product identifiers.
const minFallbackCodeLen = 4

// Classification is the canonical identity resolved from a column header.
type Classification struct {
	ProductCode   string
	ProductName   string
	Unit          string
	Region        string
	ContractMonth string
	PriceType     marketprice.PriceType
	Source        string
}

// Classifier maps free-text column headers to canonical products. It is
// immutable after construction and safe for concurrent use; rule priority is
// the order of the rule set.
type Classifier struct {
	rules []Rule
}

func NewClassifier(rs *RuleSet) *Classifier {
	rules := make([]Rule, len(rs.Rules))
	copy(rules, rs.Rules)
	return &Classifier{rules: rules}
}

// DefaultRuleSet returns the embedded product catalogue.
func DefaultRuleSet() *RuleSet {
	rs, err := LoadRuleSet(defaultRules)
	if err != nil {
		panic(err)
	}
	return rs
}

// Classify resolves a header to a product identity and, when the header
// encodes a delivery period, a normalized contract month. It never fails
// hard: the second return is false only when the header is unclassifiable,
// in which case the column contributes no data.
func (c *Classifier) Classify(header string) (Classification, bool) {
	raw := strings.TrimSpace(header)
	if raw == "" {
		return Classification{}, false
	}

	month, base, hasMonth := ExtractContractMonth(raw)
	normalized := Normalize(base)

	out := Classification{
		ContractMonth: month,
		PriceType:     marketprice.PriceTypeSpot,
		Source:        raw,
	}
	if hasMonth {
		out.PriceType = marketprice.PriceTypeFuturesSettlement
	}

	for _, rule := range c.rules {
		if rule.Matches(normalized) {
			out.ProductCode = rule.Code
			out.ProductName = rule.Name
			out.Unit = rule.Unit
			out.Region = rule.Region
			return out, true
		}
	}

	code, ok := fallbackCode(normalized)
	if !ok {
		return Classification{}, false
	}
	out.ProductCode = code
	out.ProductName = base
	return out, true
}

// Normalize uppercases, trims and collapses internal whitespace so rule
// tokens match regardless of the header's authoring style.
func Normalize(header string) string {
	fields := strings.Fields(strings.ToUpper(strings.TrimSpace(header)))
	return strings.Join(fields, " ")
}

// fallbackCode derives a last-resort identifier from the first token of the
// normalized text, replacing characters unsafe for a code. Codes shorter
// than four characters signal an unclassifiable header.
func fallbackCode(normalized string) (string, bool) {
	token := normalized
	if idx := strings.IndexFunc(normalized, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == ';' || r == ':'
	}); idx >= 0 {
		token = normalized[:idx]
	}

	var b strings.Builder
	for _, r := range token {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	code := strings.Trim(b.String(), "_")
	if len(code) < minFallbackCodeLen {
		return "", false
	}
	return code, true
}
