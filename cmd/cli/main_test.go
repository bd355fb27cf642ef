package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/smsledger/internal/domain"
)

func TestResolveWindow(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, loc)

	tests := []struct {
		name      string
		from, to  string
		days      int
		wantStart time.Time
		wantEnd   time.Time
		wantErr   bool
	}{
		{
			name:      "default days",
			wantStart: now.AddDate(0, 0, -30),
			wantEnd:   now,
		},
		{
			name:      "explicit days",
			days:      7,
			wantStart: now.AddDate(0, 0, -7),
			wantEnd:   now,
		},
		{
			name:      "from only",
			from:      "2024-03-01",
			wantStart: time.Date(2024, 3, 1, 0, 0, 0, 0, loc),
			wantEnd:   now,
		},
		{
			name:      "from and to inclusive",
			from:      "2024-03-01",
			to:        "2024-03-10",
			wantStart: time.Date(2024, 3, 1, 0, 0, 0, 0, loc),
			wantEnd:   time.Date(2024, 3, 10, 23, 59, 59, 999000000, loc),
		},
		{name: "to without from", to: "2024-03-10", wantErr: true},
		{name: "bad from", from: "03/01/2024", wantErr: true},
		{name: "inverted", from: "2024-03-10", to: "2024-03-01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := resolveWindow(tt.from, tt.to, tt.days, 30, now, loc)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolveWindow() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !w.Start.Equal(tt.wantStart) || !w.End.Equal(tt.wantEnd) {
				t.Errorf("resolveWindow() = %v..%v, want %v..%v", w.Start, w.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestPrintParsed(t *testing.T) {
	merchant := "AMAZON"
	var buf bytes.Buffer
	printParsed(&buf, []domain.ParsedTransaction{{
		Direction:    domain.DirectionDebit,
		Amount:       decimal.NewFromInt(500),
		Sender:       "HDFCBK",
		MerchantName: &merchant,
		Category:     domain.CategoryRef{ID: "shopping", DisplayName: "Shopping"},
		Timestamp:    time.Date(2024, 1, 12, 10, 30, 0, 0, time.UTC),
	}}, time.UTC)

	out := buf.String()
	for _, want := range []string{"2024-01-12 10:30", "HDFCBK", "500.00", "AMAZON", "Shopping", "1 transactions"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
