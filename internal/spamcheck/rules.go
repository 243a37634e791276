package spamcheck

import "strings"

// MatchMode controls how a rule pattern is compared against message text.
type MatchMode string

const (
	// MatchContains matches when the normalized pattern is a literal
	// substring of the normalized message text.
	MatchContains MatchMode = "contains"
	// MatchLone matches only when the normalized pattern equals an entire
	// whitespace-delimited token of the normalized message text.
	MatchLone MatchMode = "lone"
)

// Rule is a moderator-authored phrase filter. PatternNorm must be the
// Normalize form of Pattern; a nil Brand means the rule is global.
type Rule struct {
	Pattern     string
	PatternNorm string
	Mode        MatchMode
	Brand       *string
	Enabled     bool
}

// AppliesTo reports whether the rule is in scope for a message brand.
func (r Rule) AppliesTo(brand string) bool {
	if !r.Enabled {
		return false
	}
	return r.Brand == nil || *r.Brand == brand
}

// MatchRules evaluates rules against a message and returns the normalized
// patterns that hit. Rule matching is deliberately literal: fuzziness is
// reserved for the learning layer so that human-authored filters never
// drift into false positives.
func MatchRules(text, brand string, rules []Rule) []string {
	normText := Normalize(text)
	if normText == "" {
		return nil
	}

	var tokens []string
	var matched []string
	for _, rule := range rules {
		if !rule.AppliesTo(brand) {
			continue
		}
		pattern := rule.PatternNorm
		if pattern == "" {
			pattern = Normalize(rule.Pattern)
		}
		if pattern == "" {
			continue
		}

		switch rule.Mode {
		case MatchLone:
			if tokens == nil {
				tokens = strings.Fields(normText)
			}
			for _, tok := range tokens {
				if tok == pattern {
					matched = append(matched, pattern)
					break
				}
			}
		default:
			if strings.Contains(normText, pattern) {
				matched = append(matched, pattern)
			}
		}
	}
	return matched
}
