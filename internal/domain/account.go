package domain

import (
	"sort"
	"time"
)

// AccountKind is the instrument type of a detected account.
type AccountKind string

const (
	AccountKindCard    AccountKind = "card"
	AccountKindWallet  AccountKind = "wallet"
	AccountKindAccount AccountKind = "account"
)

// DetectedAccount is an account observed across one detection run.
// ID is derived as "<institution-slug>-<suffix or wallet name>".
type DetectedAccount struct {
	ID                  string      `json:"id"`
	Institution         string      `json:"institution"`
	AccountNumberSuffix string      `json:"account_number_suffix"`
	Kind                AccountKind `json:"kind"`
	LastTransactionAt   time.Time   `json:"last_transaction_at"`
	ObservedSenderIDs   []string    `json:"observed_sender_ids"`
}

// AddSender records a sender id, keeping ObservedSenderIDs sorted and unique.
func (a *DetectedAccount) AddSender(sender string) {
	i := sort.SearchStrings(a.ObservedSenderIDs, sender)
	if i < len(a.ObservedSenderIDs) && a.ObservedSenderIDs[i] == sender {
		return
	}
	a.ObservedSenderIDs = append(a.ObservedSenderIDs, "")
	copy(a.ObservedSenderIDs[i+1:], a.ObservedSenderIDs[i:])
	a.ObservedSenderIDs[i] = sender
}

// AccountType is the type of an account already known to the caller.
type AccountType string

const (
	AccountTypeBank   AccountType = "bank"
	AccountTypeCard   AccountType = "card"
	AccountTypeWallet AccountType = "wallet"
)

// Account is an account from the caller's registry, passed in by value per call.
type Account struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Institution string      `json:"institution"`
	Type        AccountType `json:"type"`
	Subtype     string      `json:"subtype,omitempty"` // wallet brand, e.g. "paytm"
	Number      string      `json:"number,omitempty"`
}
