package webhook

import (
	"encoding/json"
	"fmt"
)

// Provider webhook envelope. Every level below the top is optional on the
// wire; pointers and empty slices stand in for absent nesting.

type Envelope struct {
	PayloadType string        `json:"payload_type,omitempty"`
	MetaData    *ProviderData `json:"metaData"`
}

type ProviderData struct {
	Entry []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value *Value `json:"value"`
}

type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         *Metadata `json:"metadata"`
	Contacts         []Contact `json:"contacts"`
	Messages         []Message `json:"messages"`
	Statuses         []Status  `json:"statuses"`
}

// Metadata identifies the business line the payload was delivered for.
type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type Contact struct {
	Profile *Profile `json:"profile"`
	WaID    string   `json:"wa_id"`
}

type Profile struct {
	Name string `json:"name"`
}

type Message struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *Text  `json:"text"`
}

type Text struct {
	Body string `json:"body"`
}

type Status struct {
	ID          string `json:"id"`
	MetaMsgID   string `json:"meta_msg_id"`
	RecipientID string `json:"recipient_id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
}

// ParsePayload decodes one raw payload into an envelope.
func ParsePayload(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}
	return &env, nil
}

// changeValue walks metaData.entry[0].changes[0].value and returns nil if
// any level along the path is absent.
func (e *Envelope) changeValue() *Value {
	if e == nil || e.MetaData == nil || len(e.MetaData.Entry) == 0 {
		return nil
	}
	entry := e.MetaData.Entry[0]
	if len(entry.Changes) == 0 {
		return nil
	}
	return entry.Changes[0].Value
}
