package parser

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dvloznov/smsledger/internal/domain"
)

var (
	cardTokens   = []string{"card", "c_card", "uni_card", "slice_card", "one_card"}
	walletTokens = []string{"paytm", "simpl", "lazypay", "amazon_pay", "mobikwik"}
)

// accountToken is the canonical account token produced by Normalize.
const accountToken = "ac"

// AccountInfo is the instrument referenced by one message.
type AccountInfo struct {
	Kind   domain.AccountKind
	Number string // last 4 digits, empty when the instrument has no number
	Name   string // instrument token, used when Number is empty
}

// Identifier is the part of the derived account id after the institution slug.
func (a AccountInfo) Identifier() string {
	if a.Number != "" {
		return a.Number
	}
	return a.Name
}

// ExtractAccountInfo scans normalized tokens for a card, then a bank account,
// then a wallet. Cards win over accounts because settlement messages often
// mention the linked bank account alongside the card.
func ExtractAccountInfo(tokens []string) (AccountInfo, bool) {
	if info, ok := findCard(tokens); ok {
		return info, true
	}
	if info, ok := findBankAccount(tokens); ok {
		return info, true
	}
	for _, tok := range tokens {
		if contains(walletTokens, tok) {
			return AccountInfo{Kind: domain.AccountKindWallet, Name: tok}, true
		}
	}
	return AccountInfo{}, false
}

func findCard(tokens []string) (AccountInfo, bool) {
	var (
		first AccountInfo
		found bool
	)
	for i, tok := range tokens {
		if !contains(cardTokens, tok) {
			continue
		}
		if i+1 < len(tokens) {
			if n := strings.TrimRight(tokens[i+1], ".,;"); isNumeric(n) {
				return AccountInfo{Kind: domain.AccountKindCard, Number: lastFour(n), Name: tok}, true
			}
		}
		if !found {
			first = AccountInfo{Kind: domain.AccountKindCard, Name: tok}
			found = true
		}
	}
	return first, found
}

func findBankAccount(tokens []string) (AccountInfo, bool) {
	for i, tok := range tokens {
		var candidate string
		switch {
		case tok == accountToken:
			if i+1 >= len(tokens) {
				continue
			}
			candidate = tokens[i+1]
		case strings.HasPrefix(tok, accountToken):
			// "ac1234", "ac-1234", "ac.1234": the account token glued onto
			// the number, with at most some punctuation between them.
			rest := strings.TrimPrefix(tok, accountToken)
			if r, _ := utf8.DecodeRuneInString(rest); unicode.IsLetter(r) {
				continue
			}
			if n := trimNonDigits(rest); isNumeric(n) {
				return AccountInfo{Kind: domain.AccountKindAccount, Number: lastFour(n)}, true
			}
			continue
		default:
			continue
		}
		if n := trimNonDigits(candidate); isNumeric(n) {
			return AccountInfo{Kind: domain.AccountKindAccount, Number: lastFour(n)}, true
		}
	}
	return AccountInfo{}, false
}

// AccountRegistry merges account observations from one detection run.
// It is not safe for concurrent use.
type AccountRegistry struct {
	accounts map[string]*domain.DetectedAccount
}

// NewAccountRegistry returns an empty registry.
func NewAccountRegistry() *AccountRegistry {
	return &AccountRegistry{accounts: make(map[string]*domain.DetectedAccount)}
}

// Observe records the account referenced by msg, if the sender is a known
// institution and the body names an instrument. It reports whether msg
// contributed an observation.
func (r *AccountRegistry) Observe(msg domain.RawMessage) bool {
	inst, ok := LookupInstitution(msg.Sender)
	if !ok {
		return false
	}
	info, ok := ExtractAccountInfo(Normalize(msg.Body))
	if !ok {
		return false
	}

	id := DerivedAccountID(inst, info)
	if existing, ok := r.accounts[id]; ok {
		existing.AddSender(msg.Sender)
		if msg.Timestamp.After(existing.LastTransactionAt) {
			existing.Kind = info.Kind
			existing.AccountNumberSuffix = info.Number
			existing.LastTransactionAt = msg.Timestamp
		}
		return true
	}

	r.accounts[id] = &domain.DetectedAccount{
		ID:                  id,
		Institution:         inst.Name,
		AccountNumberSuffix: info.Number,
		Kind:                info.Kind,
		LastTransactionAt:   msg.Timestamp,
		ObservedSenderIDs:   []string{msg.Sender},
	}
	return true
}

// Accounts returns the merged accounts, most recently active first.
func (r *AccountRegistry) Accounts() []domain.DetectedAccount {
	out := make([]domain.DetectedAccount, 0, len(r.accounts))
	for _, a := range r.accounts {
		acct := *a
		acct.ObservedSenderIDs = append([]string(nil), a.ObservedSenderIDs...)
		out = append(out, acct)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastTransactionAt.Equal(out[j].LastTransactionAt) {
			return out[i].LastTransactionAt.After(out[j].LastTransactionAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// DetectAccounts runs one detection pass over messages.
func DetectAccounts(messages []domain.RawMessage) []domain.DetectedAccount {
	reg := NewAccountRegistry()
	for _, msg := range messages {
		reg.Observe(msg)
	}
	return reg.Accounts()
}

// DerivedAccountID builds the stable id "<slug>-<number or name>".
func DerivedAccountID(inst Institution, info AccountInfo) string {
	return inst.Slug + "-" + info.Identifier()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func trimNonDigits(s string) string {
	return strings.TrimFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
}

func lastFour(n string) string {
	if len(n) > 4 {
		return n[len(n)-4:]
	}
	return n
}
