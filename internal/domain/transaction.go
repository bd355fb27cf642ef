package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the classified movement of money described by a message.
type Direction string

const (
	DirectionDebit    Direction = "debit"
	DirectionCredit   Direction = "credit"
	DirectionTransfer Direction = "transfer"
	DirectionUnknown  Direction = "unknown"
)

// ParsedTransaction is one transactional message turned into structured data.
// Amount is never negative; Direction carries the sign.
type ParsedTransaction struct {
	ID              string           `json:"id"`
	Direction       Direction        `json:"direction"`
	Amount          decimal.Decimal  `json:"amount"`
	Balance         *decimal.Decimal `json:"balance,omitempty"`
	Sender          string           `json:"sender"`
	MerchantName    *string          `json:"merchant_name,omitempty"`
	Category        CategoryRef      `json:"category"`
	LinkedAccountID *string          `json:"linked_account_id,omitempty"`
	Timestamp       time.Time        `json:"timestamp"`
	RawBody         string           `json:"raw_body"`
}

// Transaction is the storage-ready record built from a ParsedTransaction.
// Unlike ParsedTransaction, Amount is signed (money OUT = negative).
type Transaction struct {
	ID           string           `json:"id"`
	AccountID    *string          `json:"account_id,omitempty"`
	Date         time.Time        `json:"date"`
	Description  string           `json:"description"`
	Amount       decimal.Decimal  `json:"amount"`
	Currency     string           `json:"currency"`
	BalanceAfter *decimal.Decimal `json:"balance_after,omitempty"`
	Direction    Direction        `json:"direction"`
	MerchantName *string          `json:"merchant_name,omitempty"`

	CategoryID   string `json:"category_id"`   // caller's category id when resolvable, otherwise the CategoryRef id
	CategoryName string `json:"category_name"` // display name of the matched CategoryRef

	Sender     string `json:"sender"`
	RawBody    string `json:"raw_body"`
	SourceHash string `json:"source_hash"`
}
