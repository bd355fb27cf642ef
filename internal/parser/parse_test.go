package parser

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/smsledger/internal/domain"
)

func TestParseMessage_Scenarios(t *testing.T) {
	ts := time.Date(2024, 1, 12, 10, 30, 0, 0, time.UTC)

	t.Run("bank debit", func(t *testing.T) {
		msg := domain.RawMessage{
			Sender:    "HDFCBK",
			Body:      "Rs.500 debited from your A/c XX1234 on 12-01-24 at AMAZON. Avl Bal Rs.4500",
			Timestamp: ts,
		}
		tx, ok := ParseMessage(msg, nil)
		if !ok {
			t.Fatal("ParseMessage dropped a debit message")
		}
		if _, err := uuid.Parse(tx.ID); err != nil {
			t.Errorf("ID %q is not a uuid: %v", tx.ID, err)
		}
		if tx.Direction != domain.DirectionDebit {
			t.Errorf("Direction = %s, want debit", tx.Direction)
		}
		if !tx.Amount.Equal(decimal.NewFromInt(500)) {
			t.Errorf("Amount = %s, want 500", tx.Amount)
		}
		if tx.Balance == nil || !tx.Balance.Equal(decimal.NewFromInt(4500)) {
			t.Errorf("Balance = %v, want 4500", tx.Balance)
		}
		if tx.MerchantName == nil || *tx.MerchantName != "AMAZON" {
			t.Errorf("MerchantName = %v, want AMAZON", tx.MerchantName)
		}
		if tx.Category.ID != "shopping" {
			t.Errorf("Category = %q, want shopping", tx.Category.ID)
		}
		if tx.LinkedAccountID == nil || *tx.LinkedAccountID != "hdfc-1234" {
			t.Errorf("LinkedAccountID = %v, want hdfc-1234", tx.LinkedAccountID)
		}
		if !tx.Timestamp.Equal(ts) || tx.Sender != "HDFCBK" || tx.RawBody != msg.Body {
			t.Errorf("message fields not carried over: %+v", tx)
		}
	})

	t.Run("salary credit", func(t *testing.T) {
		tx, ok := ParseMessage(domain.RawMessage{
			Sender:    "SBIBNK",
			Body:      "You have received Rs.75,000.00 in your account towards SALARY",
			Timestamp: ts,
		}, nil)
		if !ok {
			t.Fatal("ParseMessage dropped a credit message")
		}
		if tx.Direction != domain.DirectionCredit {
			t.Errorf("Direction = %s, want credit", tx.Direction)
		}
		if !tx.Amount.Equal(decimal.RequireFromString("75000.00")) {
			t.Errorf("Amount = %s, want 75000.00", tx.Amount)
		}
		if tx.Category.ID != "salary" {
			t.Errorf("Category = %q, want salary", tx.Category.ID)
		}
		if tx.Balance != nil || tx.MerchantName != nil || tx.LinkedAccountID != nil {
			t.Errorf("unexpected optional fields: balance=%v merchant=%v account=%v", tx.Balance, tx.MerchantName, tx.LinkedAccountID)
		}
	})

	t.Run("otp is dropped", func(t *testing.T) {
		if tx, ok := ParseMessage(domain.RawMessage{Sender: "HDFCBK", Body: "Your OTP for login is 482931"}, nil); ok {
			t.Errorf("ParseMessage kept an OTP: %+v", tx)
		}
	})

	t.Run("transfer", func(t *testing.T) {
		tx, ok := ParseMessage(domain.RawMessage{Sender: "HDFCBK", Body: "Rs 2000 transferred from A/c X1111 to A/c X2222"}, nil)
		if !ok {
			t.Fatal("ParseMessage dropped a transfer")
		}
		if tx.Direction != domain.DirectionTransfer {
			t.Errorf("Direction = %s, want transfer", tx.Direction)
		}
		if !tx.Amount.Equal(decimal.NewFromInt(2000)) {
			t.Errorf("Amount = %s, want 2000", tx.Amount)
		}
		if tx.Category.ID != TransferCategoryID {
			t.Errorf("Category = %q, want %q", tx.Category.ID, TransferCategoryID)
		}
	})
}

func TestParseMessage_PrefersKnownAccount(t *testing.T) {
	accounts := []domain.Account{
		{ID: "acc-hdfc", Name: "HDFC Savings", Institution: "HDFC Bank", Type: domain.AccountTypeBank, Number: "1234"},
	}
	tx, ok := ParseMessage(domain.RawMessage{Sender: "HDFCBK", Body: "Rs 10 debited from A/c XX1234"}, accounts)
	if !ok {
		t.Fatal("ParseMessage dropped a debit message")
	}
	if tx.LinkedAccountID == nil || *tx.LinkedAccountID != "acc-hdfc" {
		t.Errorf("LinkedAccountID = %v, want acc-hdfc", tx.LinkedAccountID)
	}
}

func TestParseMessages(t *testing.T) {
	msgs := []domain.RawMessage{
		{Sender: "HDFCBK", Body: "Rs.500 debited from your A/c XX1234 on 12-01-24 at AMAZON. Avl Bal Rs.4500"},
		{Sender: "HDFCBK", Body: "Your OTP for login is 482931"},
		{Sender: "HDFCBK", Body: ""},
		{Sender: "HDFCBK", Body: "   "},
		{Sender: "PROMO", Body: "Big sale this weekend"},
		{Sender: "SBIBNK", Body: "You have received Rs.75,000.00 in your account towards SALARY"},
	}

	got := ParseMessages(msgs, nil)
	if len(got) != 2 {
		t.Fatalf("ParseMessages returned %d transactions, want 2", len(got))
	}
	if got[0].Sender != "HDFCBK" || got[1].Sender != "SBIBNK" {
		t.Errorf("transactions out of order: %s, %s", got[0].Sender, got[1].Sender)
	}
	if got[0].ID == got[1].ID {
		t.Errorf("transactions share id %q", got[0].ID)
	}
	for _, tx := range got {
		if tx.Amount.IsNegative() {
			t.Errorf("negative amount %s", tx.Amount)
		}
	}
}
