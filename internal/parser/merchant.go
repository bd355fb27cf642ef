package parser

import (
	"regexp"
	"strings"
	"unicode"
)

// A merchant capture ends before "on", "for", a currency marker, a digit,
// clause punctuation or the end of the body.
const merchantBoundary = `(?:\s+on\b|\s+for\b|\s*` + currencyExpr + `|\s*\d|[.,;](?:\s|$)|$)`

var merchantRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bpurchase\s+at\s+(.+?)` + merchantBoundary),
	regexp.MustCompile(`(?i)\bpaid\s+to\s+(.+?)` + merchantBoundary),
	regexp.MustCompile(`(?i)\btransferred\s+to\s+(.+?)` + merchantBoundary),
	regexp.MustCompile(`(?i)\bat\s+(.+?)` + merchantBoundary),
	regexp.MustCompile(`(?i)\bto\s+(.+?)` + merchantBoundary),
	regexp.MustCompile(`(?i)\bfrom\s+(.+?)` + merchantBoundary),
	regexp.MustCompile(`(?i)@\s*(.+?)` + merchantBoundary),
}

// Captures that name an instrument or a rail rather than a counterparty.
var genericMerchantTerms = []string{"account", "upi", "card", "bank", "transfer", "payment"}

// Leading words that make a capture the user's own account, as in
// "from A/c XX1234" or "to your card".
var accountReferenceWords = map[string]bool{
	"a/c": true, "ac": true, "acct": true, "account": true, "card": true,
}

// ExtractMerchant returns the counterparty named after "at", "to", "from"
// or "@" in body. Generic nouns such as "account" and references to the
// user's own account are never returned.
func ExtractMerchant(body string) (string, bool) {
	for _, rule := range merchantRules {
		for _, m := range rule.FindAllStringSubmatch(body, -1) {
			name := strings.TrimSpace(m[1])
			if !hasLetter(name) || isGenericMerchant(name) || isAccountReference(name) {
				continue
			}
			return name, true
		}
	}
	return "", false
}

func isGenericMerchant(name string) bool {
	for _, term := range genericMerchantTerms {
		if strings.EqualFold(name, term) {
			return true
		}
	}
	return false
}

func isAccountReference(name string) bool {
	fields := strings.Fields(strings.ToLower(name))
	if len(fields) > 1 && (fields[0] == "your" || fields[0] == "my") {
		fields = fields[1:]
	}
	if len(fields) == 0 {
		return false
	}
	first := strings.TrimRight(fields[0], ".:-")
	return accountReferenceWords[first] || strings.HasPrefix(first, "a/c")
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
