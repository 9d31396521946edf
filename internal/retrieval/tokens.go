package retrieval

import "strings"

// stopwords are the tokens excluded from the "significant token" set.
// Deliberately small: the spec's tokenizer only needs to strip the most
// common function words, not run a full stopword list.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "this": true,
	"that": true, "from": true, "have": true, "has": true, "are": true,
	"was": true, "were": true, "not": true, "but": true, "you": true,
	"your": true, "what": true, "when": true, "where": true, "which": true,
	"about": true, "into": true, "just": true, "can": true, "will": true,
}

// significantTokens lowercases s, strips everything but letters/digits/dash,
// and keeps tokens of length >= 3 that aren't stopwords — the "W" set from
// spec §4.2.
func significantTokens(s string) []string {
	lower := strings.ToLower(s)
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-')
	})
	var out []string
	for _, f := range fields {
		if len(f) >= 3 && !stopwords[f] {
			out = append(out, f)
		}
	}
	return out
}

// tokenSet builds a lookup set from significantTokens.
func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range significantTokens(s) {
		set[t] = true
	}
	return set
}

// singularPluralMatch reports whether a and b are the same word up to a
// trailing "s" (a crude singular/plural equivalence, matching spec §4.2's
// "0.8·singular/plural matches" wording without a full stemmer).
func singularPluralMatch(a, b string) bool {
	if a == b {
		return false // handled as an exact match by the caller
	}
	return strings.TrimSuffix(a, "s") == strings.TrimSuffix(b, "s")
}
