package parser

import (
	"slices"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/dvloznov/smsledger/internal/domain"
)

// Words ignored when comparing institution names.
var institutionStopWords = map[string]bool{
	"bank": true, "ltd": true, "limited": true, "of": true, "the": true,
}

// MatchAccount associates a message with one of the caller's accounts.
// tokens must be Normalize(msg.Body).
//
// A last-4 suffix extracted from the body is tried first, guarded by the
// sender's institution. Otherwise an account matches when its institution is
// evident (named in the body, or the sender belongs to it) and the body
// mentions the instrument: "account"/"a/c" for banks, "card" for cards and
// the subtype name for wallets.
func MatchAccount(msg domain.RawMessage, tokens []string, accounts []domain.Account) (string, bool) {
	if len(accounts) == 0 {
		return "", false
	}
	inst, instOK := LookupInstitution(msg.Sender)

	if info, ok := ExtractAccountInfo(tokens); ok && info.Number != "" {
		for _, acct := range accounts {
			if accountSuffix(acct) != info.Number || !kindCompatible(acct.Type, info.Kind) {
				continue
			}
			if acct.Institution != "" && instOK && !institutionMatches(acct.Institution, inst) {
				continue
			}
			return acct.ID, true
		}
	}

	body := strings.ToLower(msg.Body)
	for _, acct := range accounts {
		if acct.Institution == "" || !mentionsInstrument(acct, body) {
			continue
		}
		if strings.Contains(body, strings.ToLower(acct.Institution)) ||
			(instOK && institutionMatches(acct.Institution, inst)) {
			return acct.ID, true
		}
	}
	return "", false
}

func mentionsInstrument(acct domain.Account, body string) bool {
	switch acct.Type {
	case domain.AccountTypeBank:
		return strings.Contains(body, "account") || strings.Contains(body, "a/c")
	case domain.AccountTypeCard:
		return strings.Contains(body, "card")
	case domain.AccountTypeWallet:
		return acct.Subtype != "" && strings.Contains(body, strings.ToLower(acct.Subtype))
	}
	return false
}

func kindCompatible(t domain.AccountType, k domain.AccountKind) bool {
	switch t {
	case domain.AccountTypeBank:
		return k == domain.AccountKindAccount
	case domain.AccountTypeCard:
		return k == domain.AccountKindCard
	case domain.AccountTypeWallet:
		return k == domain.AccountKindWallet
	}
	return true
}

// accountSuffix is the last 4 digits of the account number, falling back to
// digits embedded in the display name ("HDFC Savings 1234").
func accountSuffix(acct domain.Account) string {
	for _, s := range []string{acct.Number, acct.Name} {
		if d := digits(s); len(d) >= 4 {
			return lastFour(d)
		}
	}
	return ""
}

// institutionMatches compares a free-form institution name against a known
// institution. Short names need an exact hit since "hdfc" and "idfc" are one
// edit apart. A longer name matches when it carries every word of the known
// one, so "HDFC Bank Credit Card" is HDFC but "Indian Bank" is not
// "Indian Overseas Bank".
func institutionMatches(name string, inst Institution) bool {
	words := institutionWords(name)
	n := strings.Join(words, "")
	if n == "" {
		return false
	}
	for _, candidate := range []string{inst.Name, inst.Code, inst.Slug} {
		cw := institutionWords(candidate)
		c := strings.Join(cw, "")
		switch {
		case c == "":
			continue
		case n == c:
			return true
		case len(words) > len(cw) && hasAllWords(words, cw):
			return true
		case len(n) >= 6 && len(c) >= 6 && levenshtein.ComputeDistance(n, c) <= 2:
			return true
		}
	}
	return false
}

// institutionWords lower-cases name, keeps letters only and drops stop words.
func institutionWords(name string) []string {
	var words []string
	for _, field := range strings.Fields(strings.ToLower(name)) {
		var b strings.Builder
		for _, r := range field {
			if unicode.IsLetter(r) {
				b.WriteRune(r)
			}
		}
		if word := b.String(); word != "" && !institutionStopWords[word] {
			words = append(words, word)
		}
	}
	return words
}

func hasAllWords(words, want []string) bool {
	for _, w := range want {
		if !slices.Contains(words, w) {
			return false
		}
	}
	return true
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
