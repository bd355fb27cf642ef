package parser

import (
	"strings"

	"github.com/google/uuid"

	"github.com/dvloznov/smsledger/internal/domain"
)

// ParseMessage turns one message into a transaction. It reports false for
// messages that carry no amount or no recognisable direction, which is the
// normal case for OTPs and promotions.
func ParseMessage(msg domain.RawMessage, accounts []domain.Account) (domain.ParsedTransaction, bool) {
	if strings.TrimSpace(msg.Body) == "" {
		return domain.ParsedTransaction{}, false
	}
	amount, ok := ExtractAmount(msg.Body)
	if !ok {
		return domain.ParsedTransaction{}, false
	}
	direction := Classify(msg.Body)
	if direction == domain.DirectionUnknown {
		return domain.ParsedTransaction{}, false
	}

	tx := domain.ParsedTransaction{
		ID:        uuid.New().String(),
		Direction: direction,
		Amount:    amount,
		Sender:    msg.Sender,
		Category:  FindCategory(msg.Body, direction),
		Timestamp: msg.Timestamp,
		RawBody:   msg.Body,
	}
	if balance, ok := ExtractBalance(msg.Body); ok {
		tx.Balance = &balance
	}
	if merchant, ok := ExtractMerchant(msg.Body); ok {
		tx.MerchantName = &merchant
	}
	if id, ok := linkAccount(msg, accounts); ok {
		tx.LinkedAccountID = &id
	}
	return tx, true
}

// ParseMessages parses a batch, silently leaving out every message that does
// not describe a transaction.
func ParseMessages(msgs []domain.RawMessage, accounts []domain.Account) []domain.ParsedTransaction {
	out := make([]domain.ParsedTransaction, 0, len(msgs))
	for _, msg := range msgs {
		if tx, ok := ParseMessage(msg, accounts); ok {
			out = append(out, tx)
		}
	}
	return out
}

// linkAccount prefers a known account and falls back to the id the detection
// flow derives for the same instrument.
func linkAccount(msg domain.RawMessage, accounts []domain.Account) (string, bool) {
	tokens := Normalize(msg.Body)
	if id, ok := MatchAccount(msg, tokens, accounts); ok {
		return id, true
	}
	inst, ok := LookupInstitution(msg.Sender)
	if !ok {
		return "", false
	}
	info, ok := ExtractAccountInfo(tokens)
	if !ok {
		return "", false
	}
	return DerivedAccountID(inst, info), true
}
