// Package source provides message sources backed by JSON exports of a
// device's message store, on local disk or in GCS.
package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/smsledger/internal/domain"
)

// Record is one decoded export entry. Box is "" when the export has none.
type Record struct {
	domain.RawMessage
	Box string
}

// rawRecord accepts both the exporter's field names and the platform's
// ("address", "date", numeric "type").
type rawRecord struct {
	Sender     string          `json:"sender"`
	Address    string          `json:"address"`
	Body       json.RawMessage `json:"body"`
	Date       json.RawMessage `json:"date"`
	DateMillis json.RawMessage `json:"dateMillis"`
	Box        string          `json:"box"`
	Type       json.RawMessage `json:"type"`
}

// Numeric message types of the platform message store.
var boxByType = map[int64]string{
	1: "inbox",
	2: "sent",
	3: "draft",
	4: "outbox",
	5: "failed",
	6: "queued",
}

var errNoRecords = errors.New("export must be a JSON array or an object with a messages array")

// DecodeRecords parses an export. It returns the usable records and the number
// of entries skipped for lacking a string body, a sender or a date. Invalid JSON
// fails the whole batch.
func DecodeRecords(data []byte) ([]Record, int, error) {
	entries, err := splitEntries(data)
	if err != nil {
		return nil, 0, err
	}

	records := make([]Record, 0, len(entries))
	skipped := 0
	for _, entry := range entries {
		rec, ok := decodeRecord(entry)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

// DecodeMessages is DecodeRecords without the box information.
func DecodeMessages(data []byte) ([]domain.RawMessage, int, error) {
	records, skipped, err := DecodeRecords(data)
	if err != nil {
		return nil, 0, err
	}
	msgs := make([]domain.RawMessage, len(records))
	for i, r := range records {
		msgs[i] = r.RawMessage
	}
	return msgs, skipped, nil
}

func splitEntries(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("DecodeRecords: %w", errNoRecords)
	}

	var entries []json.RawMessage
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("DecodeRecords: parse array: %w", err)
		}
	case '{':
		var wrapper struct {
			Messages []json.RawMessage `json:"messages"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("DecodeRecords: parse object: %w", err)
		}
		if wrapper.Messages == nil {
			return nil, fmt.Errorf("DecodeRecords: %w", errNoRecords)
		}
		entries = wrapper.Messages
	default:
		return nil, fmt.Errorf("DecodeRecords: %w", errNoRecords)
	}
	return entries, nil
}

func decodeRecord(entry json.RawMessage) (Record, bool) {
	var raw rawRecord
	if err := json.Unmarshal(entry, &raw); err != nil {
		return Record{}, false
	}

	var body string
	if len(raw.Body) == 0 || bytes.Equal(raw.Body, []byte("null")) || json.Unmarshal(raw.Body, &body) != nil {
		return Record{}, false
	}
	sender := strings.TrimSpace(raw.Sender)
	if sender == "" {
		sender = strings.TrimSpace(raw.Address)
	}
	if sender == "" {
		return Record{}, false
	}
	date := raw.Date
	if len(date) == 0 {
		date = raw.DateMillis
	}
	ts, ok := parseTimestamp(date)
	if !ok {
		return Record{}, false
	}

	return Record{
		RawMessage: domain.RawMessage{Sender: sender, Body: body, Timestamp: ts},
		Box:        parseBox(raw.Box, raw.Type),
	}, true
}

// parseTimestamp accepts Unix milliseconds as a number or a numeric string,
// or an RFC 3339 string.
func parseTimestamp(raw json.RawMessage) (time.Time, bool) {
	if len(raw) == 0 {
		return time.Time{}, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if ms, err := n.Int64(); err == nil && ms > 0 {
			return time.UnixMilli(ms).UTC(), true
		}
		return time.Time{}, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, false
	}
	if ms, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil && ms > 0 {
		return time.UnixMilli(ms).UTC(), true
	}
	if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(s)); err == nil {
		return ts, true
	}
	return time.Time{}, false
}

func parseBox(box string, typ json.RawMessage) string {
	if box != "" {
		return strings.ToLower(strings.TrimSpace(box))
	}
	if len(typ) == 0 {
		return ""
	}
	var n int64
	if err := json.Unmarshal(typ, &n); err == nil {
		return boxByType[n]
	}
	var s string
	if err := json.Unmarshal(typ, &s); err == nil {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return boxByType[n]
		}
		return strings.ToLower(strings.TrimSpace(s))
	}
	return ""
}
