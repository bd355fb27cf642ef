package domain

import "time"

// RawMessage is a transactional text message as handed over by the message source.
type RawMessage struct {
	Sender    string    `json:"sender"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}
