package pipeline_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/smsledger/internal/domain"
	"github.com/dvloznov/smsledger/internal/pipeline"
)

func TestCategoryResolver_Resolve(t *testing.T) {
	resolver := pipeline.NewCategoryResolver([]domain.Category{
		{ID: "shopping", Name: "Shopping"},
		{ID: "c-42", Name: "Food & Dining"},
		{ID: "c-7", Name: "  food dining "},
		{ID: "", Name: "Ignored"},
	})

	tests := []struct {
		name string
		ref  domain.CategoryRef
		want string
	}{
		{name: "by id", ref: domain.CategoryRef{ID: "shopping", DisplayName: "Shopping"}, want: "shopping"},
		{name: "by name ignoring case and spacing", ref: domain.CategoryRef{ID: "food-dining", DisplayName: "Food Dining"}, want: "c-7"},
		{name: "unknown keeps own id", ref: domain.CategoryRef{ID: "travel", DisplayName: "Travel"}, want: "travel"},
		{name: "empty registry id is skipped", ref: domain.CategoryRef{ID: "ignored", DisplayName: "Ignored"}, want: "ignored"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolver.Resolve(tt.ref); got != tt.want {
				t.Errorf("Resolve(%+v) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestConvertTransactions(t *testing.T) {
	ts := time.Date(2024, 1, 12, 10, 0, 0, 0, time.UTC)
	merchant := "AMAZON"
	account := "hdfc-1234"
	balance := decimal.NewFromInt(4500)

	parsed := []domain.ParsedTransaction{
		{
			ID: "p1", Direction: domain.DirectionDebit, Amount: decimal.NewFromInt(500), Balance: &balance,
			Sender: "HDFCBK", MerchantName: &merchant, LinkedAccountID: &account, Timestamp: ts,
			Category: domain.CategoryRef{ID: "shopping", DisplayName: "Shopping"},
			RawBody:  "Rs.500 debited at AMAZON",
		},
		{
			ID: "p2", Direction: domain.DirectionCredit, Amount: decimal.RequireFromString("75000.00"),
			Sender: "SBIBNK", Timestamp: ts.Add(time.Hour),
			Category: domain.CategoryRef{ID: "salary", DisplayName: "Salary"},
			RawBody:  "You have   received Rs.75,000.00\nSALARY",
		},
		{
			ID: "p3", Direction: domain.DirectionTransfer, Amount: decimal.NewFromInt(2000),
			Sender: "HDFCBK", Timestamp: ts.Add(2 * time.Hour),
			Category: domain.CategoryRef{ID: "transfer", DisplayName: "Transfer"},
			RawBody:  "Rs 2000 transferred from A/c X1111 to A/c X2222",
		},
	}

	got := pipeline.ConvertTransactions(parsed, []domain.Category{{ID: "cat-salary", Name: "Salary"}}, "")
	if len(got) != 3 {
		t.Fatalf("Expected 3 transactions, got %d", len(got))
	}

	wantAmounts := []string{"-500", "75000", "-2000"}
	for i, tx := range got {
		if !tx.Amount.Equal(decimal.RequireFromString(wantAmounts[i])) {
			t.Errorf("tx %d amount = %s, want %s", i, tx.Amount, wantAmounts[i])
		}
		if tx.Currency != pipeline.DefaultCurrency {
			t.Errorf("tx %d currency = %q, want default", i, tx.Currency)
		}
		if tx.SourceHash != pipeline.SourceHash(parsed[i].Sender, parsed[i].Timestamp.UnixMilli(), parsed[i].RawBody) {
			t.Errorf("tx %d has unexpected source hash", i)
		}
	}

	debit := got[0]
	if debit.Description != "AMAZON" || debit.AccountID == nil || *debit.AccountID != account {
		t.Errorf("Unexpected debit %+v", debit)
	}
	if debit.BalanceAfter == nil || !debit.BalanceAfter.Equal(balance) {
		t.Errorf("BalanceAfter = %v, want 4500", debit.BalanceAfter)
	}
	if debit.CategoryID != "shopping" || debit.CategoryName != "Shopping" {
		t.Errorf("Unexpected debit category %q/%q", debit.CategoryID, debit.CategoryName)
	}

	credit := got[1]
	if credit.CategoryID != "cat-salary" {
		t.Errorf("Credit category = %q, want cat-salary", credit.CategoryID)
	}
	if credit.Description != "You have received Rs.75,000.00 SALARY" {
		t.Errorf("Credit description = %q", credit.Description)
	}

	again := pipeline.ConvertTransactions(parsed[:1], nil, "USD")
	if again[0].ID != debit.ID {
		t.Errorf("Transaction id not deterministic: %q vs %q", again[0].ID, debit.ID)
	}
	if again[0].Currency != "USD" {
		t.Errorf("Currency = %q, want USD", again[0].Currency)
	}
}

func TestSourceHash(t *testing.T) {
	a := pipeline.SourceHash("HDFCBK", 1, "body")
	if len(a) != 64 {
		t.Errorf("Expected hex sha256, got %q", a)
	}
	if a == pipeline.SourceHash("HDFCBK", 2, "body") || a == pipeline.SourceHash("SBIBNK", 1, "body") {
		t.Error("Expected different hashes for different messages")
	}
}

func TestWindow(t *testing.T) {
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	w := pipeline.LastDays(now, 0)
	if !w.End.Equal(now) || !w.Start.Equal(now.AddDate(0, 0, -pipeline.DefaultWindowDays)) {
		t.Errorf("Unexpected default window %+v", w)
	}
	if err := (pipeline.Window{}).Validate(); err == nil {
		t.Error("Expected zero window to be invalid")
	}

	f := pipeline.LastDays(now, 7).Filter()
	tests := []struct {
		name string
		box  string
		ts   time.Time
		want bool
	}{
		{"inside", "inbox", now.Add(-time.Hour), true},
		{"no box counts as inbox", "", now.Add(-time.Hour), true},
		{"sent box", "sent", now.Add(-time.Hour), false},
		{"inclusive end", "inbox", now, true},
		{"too old", "inbox", now.AddDate(0, 0, -8), false},
		{"future", "inbox", now.Add(time.Millisecond), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Contains(tt.box, tt.ts); got != tt.want {
				t.Errorf("Contains(%q, %v) = %v, want %v", tt.box, tt.ts, got, tt.want)
			}
		})
	}
}
