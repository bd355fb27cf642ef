// Package parser holds the heuristics that turn free-form bank and wallet
// text messages into structured transactions and account observations.
//
// Every rule table in this package is built once at package init and only
// read afterwards, so all functions are safe for concurrent use.
package parser

import (
	"regexp"
	"slices"
	"strings"
)

var noiseReplacer = strings.NewReplacer(
	"!", " ",
	":", " ",
	"=", " ",
	"{", " ",
	"}", " ",
	"\n", " ",
	"\r", " ",
)

// rewrite is one fixed textual substitution applied by Normalize.
type rewrite struct {
	pattern     *regexp.Regexp
	replacement string
}

var (
	// Issuer masking ("xx1234", "****1234", "x1234") goes first, since
	// removing it can glue a filler word back together ("i*s").
	fillerRewrites = []rewrite{
		{regexp.MustCompile(`\*+`), ""},
		{regexp.MustCompile(`x{2,}`), ""},
		{regexp.MustCompile(`(^|[^a-z])x(\d)`), "${1}${2}"},
		{regexp.MustCompile(`\bx\b`), " "},
		{regexp.MustCompile(`\b(?:ending|is|with)\b`), " "},
		{regexp.MustCompile(`\bno\.`), " "},
	}

	accountRewrite = rewrite{regexp.MustCompile(`\b(?:accounts?|acct|a/c)([^a-z]|$)`), "ac${1}"}

	currencyRewrites = []rewrite{
		{regexp.MustCompile(`(^|[^a-z])(?:rs\.?|inr)\s*(\d)`), "${1}rs ${2}"},
		{regexp.MustCompile(`₹\s*(\d)`), " rs ${1}"},
		{regexp.MustCompile(`(\d)\s*(?:rs|inr)\.`), "${1} rs "},
		{regexp.MustCompile(`(\d)\s*(?:rs|inr)([^a-z.]|$)`), "${1} rs${2}"},
		{regexp.MustCompile(`(\d)\s*₹`), "${1} rs "},
	}

	verbRewrite = rewrite{regexp.MustCompile(`(debited|credited)`), " ${1} "}

	// Brand-specific two-word instruments collapsed into one token.
	phraseRewrites = []rewrite{
		{regexp.MustCompile(`credit\s+card`), "c_card"},
		{regexp.MustCompile(`amazon\s+pay\b`), "amazon_pay"},
		{regexp.MustCompile(`uni\s+card`), "uni_card"},
		{regexp.MustCompile(`slice\s+card`), "slice_card"},
		{regexp.MustCompile(`one\s*card`), "one_card"},
	}
)

// Normalize lower-cases a message body, strips noise, canonicalizes account,
// currency and instrument phrases and returns the resulting word tokens.
// Bodies that carry nothing financial simply produce tokens nothing matches.
func Normalize(body string) []string {
	tokens := normalizePass(body)
	// A pass can expose a match the earlier rules already went by, so it
	// repeats until the tokens are stable.
	for i := 0; i < maxNormalizePasses; i++ {
		next := normalizePass(strings.Join(tokens, " "))
		if slices.Equal(next, tokens) {
			break
		}
		tokens = next
	}
	return tokens
}

const maxNormalizePasses = 4

func normalizePass(body string) []string {
	s := strings.ToLower(body)
	s = noiseReplacer.Replace(s)
	for _, r := range fillerRewrites {
		s = r.apply(s)
	}
	s = accountRewrite.apply(s)
	for _, r := range currencyRewrites {
		s = r.apply(s)
	}
	s = verbRewrite.apply(s)
	for _, r := range phraseRewrites {
		s = r.apply(s)
	}
	return strings.Fields(s)
}

func (r rewrite) apply(s string) string {
	return r.pattern.ReplaceAllString(s, r.replacement)
}
