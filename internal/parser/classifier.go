package parser

import (
	"strings"

	"github.com/dvloznov/smsledger/internal/domain"
)

var (
	transferKeywords = []string{
		"transferred", "transfer", "moved", "sent to", "received from",
		"neft", "imps", "upi", "rtgs",
	}

	debitKeywords = []string{
		"debited", "spent", "withdrawn", "paid", "payment", "purchase",
		"debit", "sent", "charged", "paying", "withdrawal", "bought",
		"deducted", "spend", "shopping",
	}

	creditKeywords = []string{
		"credited", "received", "deposited", "refunded", "cashback",
		"credit", "added", "transferred", "salary", "income",
		"reimbursement", "reward", "bonus",
	}
)

// Classify maps a message body to the direction of the money movement.
//
// Transfer keywords overlap with credit keywords ("transferred"), so a
// transfer additionally needs two-party evidence: "between", or both "from"
// and "to". DirectionUnknown is the normal outcome for OTPs and promotions.
func Classify(body string) domain.Direction {
	s := strings.ToLower(body)

	if containsAny(s, transferKeywords) &&
		(strings.Contains(s, "between") || (strings.Contains(s, "from") && strings.Contains(s, "to"))) {
		return domain.DirectionTransfer
	}
	if containsAny(s, debitKeywords) {
		return domain.DirectionDebit
	}
	if containsAny(s, creditKeywords) {
		return domain.DirectionCredit
	}

	switch {
	case strings.Contains(s, "to"), strings.Contains(s, "paid"):
		return domain.DirectionDebit
	case strings.Contains(s, "from"):
		return domain.DirectionCredit
	}
	return domain.DirectionUnknown
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
