package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	currencyExpr = `(?:\brs\.?|\binr|₹)`
	numberExpr   = `(\d+(?:,\d+)*(?:\.\d{1,2})?)`
	balanceExpr  = `(?:av(?:a)?i?l(?:able)?\.?\s*bal(?:ance)?|avbl\.?\s*bal(?:ance)?|\bbal(?:ance)?)`
)

// numberRule is one entry of an ordered, first-match-wins extraction list.
// Group 1 of pattern must capture the number.
type numberRule struct {
	name    string
	pattern *regexp.Regexp
}

var amountRules = []numberRule{
	{"currency-number", regexp.MustCompile(`(?i)` + currencyExpr + `\s*` + numberExpr)},
	{"number-currency", regexp.MustCompile(`(?i)` + numberExpr + `\s*(?:(?:rs\.?|inr)\b|₹)`)},
	{"amount-phrase", regexp.MustCompile(`(?i)\b(?:amount|amt)\b\s*(?:of\s*)?.*?(?:rs\.?|inr|₹)\s*` + numberExpr)},
	{"currency-anywhere", regexp.MustCompile(`(?i)` + currencyExpr + `.*?` + numberExpr)},
}

var balanceRules = []numberRule{
	{"keyword-amount", regexp.MustCompile(`(?i)` + balanceExpr + `\.?\s*(?:is\s*)?(?:[:\-]\s*)?` + currencyExpr + `\s*` + numberExpr)},
	{"amount-keyword", regexp.MustCompile(`(?i)` + currencyExpr + `\s*` + numberExpr + `\s*(?:is\s+)?(?:your\s+)?(?:the\s+)?` + balanceExpr)},
}

// ExtractAmount returns the transaction amount mentioned in body.
// The second result is false when no rule matches or the match does not parse.
func ExtractAmount(body string) (decimal.Decimal, bool) {
	return firstNumber(body, amountRules)
}

// ExtractBalance returns the account balance mentioned in body, if any.
func ExtractBalance(body string) (decimal.Decimal, bool) {
	return firstNumber(body, balanceRules)
}

func firstNumber(body string, rules []numberRule) (decimal.Decimal, bool) {
	for _, rule := range rules {
		m := rule.pattern.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		if d, ok := parseNumber(m[1]); ok {
			return d, true
		}
	}
	return decimal.Zero, false
}

func parseNumber(raw string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil || d.IsNegative() {
		return decimal.Zero, false
	}
	return d, true
}
