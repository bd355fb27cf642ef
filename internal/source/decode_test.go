package source

import (
	"testing"
	"time"
)

func TestDecodeRecords(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		wantCount   int
		wantSkipped int
		wantErr     bool
	}{
		{
			name:      "array with exporter fields",
			data:      `[{"sender":"HDFCBK","body":"Rs 10 debited","date":1705053600000,"box":"inbox"}]`,
			wantCount: 1,
		},
		{
			name:      "object with platform fields",
			data:      `{"messages":[{"address":"SBIBNK","body":"Rs 5 credited","dateMillis":"1705053600000","type":1}]}`,
			wantCount: 1,
		},
		{
			name:        "record with numeric body is skipped",
			data:        `[{"sender":"HDFCBK","body":42,"date":1705053600000},{"sender":"HDFCBK","body":"ok","date":1705053600000}]`,
			wantCount:   1,
			wantSkipped: 1,
		},
		{
			name:        "missing sender, body and date",
			data:        `[{"body":"x","date":1},{"sender":"A","date":1},{"sender":"A","body":"x"},{"sender":"A","body":null,"date":1}]`,
			wantSkipped: 4,
		},
		{
			name:        "non-object entry is skipped",
			data:        `["just a string", {"sender":"A","body":"x","date":"2024-01-12T10:00:00Z"}]`,
			wantCount:   1,
			wantSkipped: 1,
		},
		{name: "empty array", data: `[]`},
		{name: "invalid json", data: `[{"sender":`, wantErr: true},
		{name: "object without messages", data: `{"items":[]}`, wantErr: true},
		{name: "scalar", data: `42`, wantErr: true},
		{name: "empty input", data: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, skipped, err := DecodeRecords([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeRecords error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(records) != tt.wantCount || skipped != tt.wantSkipped {
				t.Errorf("DecodeRecords = %d records, %d skipped; want %d, %d", len(records), skipped, tt.wantCount, tt.wantSkipped)
			}
		})
	}
}

func TestDecodeRecords_Fields(t *testing.T) {
	data := `{"messages":[
		{"address":" SBIBNK ","body":"Rs 5 credited","dateMillis":"1705053600000","type":2},
		{"sender":"HDFCBK","body":"Rs 10 debited","date":"2024-01-12T10:00:00Z","box":"INBOX"},
		{"sender":"AXISBK","body":"Rs 1 debited","date":1705053600000,"type":"1"}
	]}`

	records, _, err := DecodeRecords([]byte(data))
	if err != nil {
		t.Fatalf("DecodeRecords failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	want := time.UnixMilli(1705053600000).UTC()
	if r := records[0]; r.Sender != "SBIBNK" || r.Box != "sent" || !r.Timestamp.Equal(want) {
		t.Errorf("Unexpected first record %+v", r)
	}
	if r := records[1]; r.Box != "inbox" || !r.Timestamp.Equal(time.Date(2024, 1, 12, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected second record %+v", r)
	}
	if r := records[2]; r.Box != "inbox" {
		t.Errorf("Unexpected third record box %q", r.Box)
	}
}

func TestDecodeMessages(t *testing.T) {
	msgs, skipped, err := DecodeMessages([]byte(`[{"sender":"HDFCBK","body":"Rs 10 debited","date":1705053600000},{"sender":"x"}]`))
	if err != nil {
		t.Fatalf("DecodeMessages failed: %v", err)
	}
	if len(msgs) != 1 || skipped != 1 {
		t.Fatalf("Expected 1 message and 1 skipped, got %d and %d", len(msgs), skipped)
	}
	if msgs[0].Sender != "HDFCBK" || msgs[0].Body != "Rs 10 debited" {
		t.Errorf("Unexpected message %+v", msgs[0])
	}
}
