package parser

import (
	"testing"

	"github.com/dvloznov/smsledger/internal/domain"
)

func TestFindCategory(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		direction domain.Direction
		wantID    string
	}{
		{name: "expense keyword", body: "Rs.500 debited at AMAZON", direction: domain.DirectionDebit, wantID: "shopping"},
		{name: "income keyword", body: "Rs 75,000 received towards SALARY", direction: domain.DirectionCredit, wantID: "salary"},
		{name: "first table entry wins", body: "Paid Swiggy via Amazon Pay", direction: domain.DirectionDebit, wantID: "shopping"},
		{name: "expense fallback", body: "Rs 100 debited from ac 1234", direction: domain.DirectionDebit, wantID: DefaultExpenseCategoryID},
		{name: "income fallback", body: "Rs 100 credited to ac 1234", direction: domain.DirectionCredit, wantID: DefaultIncomeCategoryID},
		{name: "income keyword ignored for debits", body: "Rs 100 debited, salary advance", direction: domain.DirectionDebit, wantID: DefaultExpenseCategoryID},
		{name: "transfer has its own category", body: "Rs 2000 transferred from ac 1 to ac 2 at AMAZON", direction: domain.DirectionTransfer, wantID: TransferCategoryID},
		{name: "current account is not rent", body: "Rs 10 debited from current account", direction: domain.DirectionDebit, wantID: DefaultExpenseCategoryID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindCategory(tt.body, tt.direction)
			if got.ID != tt.wantID {
				t.Errorf("FindCategory(%q, %s) = %q, want %q", tt.body, tt.direction, got.ID, tt.wantID)
			}
			if got.DisplayName == "" || got.IconToken == "" {
				t.Errorf("FindCategory(%q) returned incomplete ref %+v", tt.body, got)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"food-dining":     "Food Dining",
		"other-expense":   "Other Expense",
		"salary":          "Salary",
		"bills-utilities": "Bills Utilities",
	}
	for id, want := range tests {
		if got := DisplayName(id); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", id, got, want)
		}
	}
}

func TestCategories_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for _, c := range Categories() {
		if seen[c.ID] {
			t.Errorf("duplicate category id %q", c.ID)
		}
		seen[c.ID] = true
	}
	for _, id := range []string{DefaultIncomeCategoryID, DefaultExpenseCategoryID, TransferCategoryID} {
		if !seen[id] {
			t.Errorf("Categories() is missing %q", id)
		}
	}
}
