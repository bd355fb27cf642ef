package parser

import "testing"

func TestExtractMerchant(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   string
		wantOK bool
	}{
		{name: "at before clause end", body: "Rs.500 debited from your A/c XX1234 on 12-01-24 at AMAZON. Avl Bal Rs.4500", want: "AMAZON", wantOK: true},
		{name: "purchase at before on", body: "Purchase at BIG BAZAAR on 12-01", want: "BIG BAZAAR", wantOK: true},
		{name: "paid to before for", body: "Rs 250 paid to Swiggy for order 42", want: "Swiggy", wantOK: true},
		{name: "at sign", body: "Rs 99 spent @ Starbucks", want: "Starbucks", wantOK: true},
		{name: "generic term only", body: "Paid 100 to UPI", wantOK: false},
		{name: "generic term case-insensitive", body: "Rs 5 received from Account", wantOK: false},
		{name: "own account after from", body: "Rs.500 debited from A/c XX1234 on 12-01-24", wantOK: false},
		{name: "own account skipped for sender", body: "Rs 100 credited to your A/c XX1234 from RAVI KUMAR", want: "RAVI KUMAR", wantOK: true},
		{name: "own card skipped", body: "Rs 300 refunded to your Card XX9876 from FLIPKART", want: "FLIPKART", wantOK: true},
		{name: "acct reference", body: "INR 40 debited from Acct. XX55 via UPI", wantOK: false},
		{name: "no preposition", body: "Your OTP is 1234", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractMerchant(tt.body)
			if ok != tt.wantOK {
				t.Fatalf("ExtractMerchant(%q) ok = %v (%q), want %v", tt.body, ok, got, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ExtractMerchant(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}
