package parser

import (
	"testing"

	"github.com/dvloznov/smsledger/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		body string
		want domain.Direction
	}{
		{
			name: "debit keyword",
			body: "Rs.500 debited from your A/c XX1234 on 12-01-24 at AMAZON. Avl Bal Rs.4500",
			want: domain.DirectionDebit,
		},
		{
			name: "credit keyword",
			body: "You have received Rs.75,000.00 in your account towards SALARY",
			want: domain.DirectionCredit,
		},
		{
			name: "transfer with from and to",
			body: "Rs 2000 transferred from A/c X1111 to A/c X2222",
			want: domain.DirectionTransfer,
		},
		{
			name: "transfer with between",
			body: "Rs 300 moved between your savings and deposit",
			want: domain.DirectionTransfer,
		},
		{
			name: "transfer keyword without two parties is a credit",
			body: "Rs 500 transferred and credited",
			want: domain.DirectionCredit,
		},
		{
			name: "sent to without from is a debit",
			body: "Rs 100 sent to Ravi via UPI",
			want: domain.DirectionDebit,
		},
		{
			name: "context fallback to",
			body: "Rs 200 to Ravi",
			want: domain.DirectionDebit,
		},
		{
			name: "context fallback from",
			body: "Rs 200 from Ravi",
			want: domain.DirectionCredit,
		},
		{
			name: "otp",
			body: "Your OTP for login is 482931",
			want: domain.DirectionUnknown,
		},
		{
			name: "empty",
			body: "",
			want: domain.DirectionUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.body); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.body, got, tt.want)
			}
		})
	}
}
