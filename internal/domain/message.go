package domain

import "time"

type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Message is one chat message keyed by the provider-assigned message id.
// Only Status is mutated after creation; everything else is write-once.
type Message struct {
	ID          int64         `db:"id" json:"-"`
	MessageID   string        `db:"message_id" json:"id"`
	MetaMsgID   string        `db:"meta_msg_id" json:"meta_msg_id"`
	WaID        string        `db:"wa_id" json:"wa_id"`
	From        string        `db:"sender" json:"from"`
	To          string        `db:"recipient" json:"to"`
	Text        string        `db:"text" json:"text"`
	Type        string        `db:"type" json:"type"`
	Timestamp   int64         `db:"timestamp" json:"timestamp"`
	Status      MessageStatus `db:"status" json:"status"`
	ContactName string        `db:"contact_name" json:"contact_name"`
	Direction   Direction     `db:"direction" json:"direction"`
	CreatedAt   time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updatedAt"`
}

// Contact is the directory entry for one conversation participant.
type Contact struct {
	ID              int64     `db:"id" json:"-"`
	WaID            string    `db:"wa_id" json:"wa_id"`
	Name            string    `db:"name" json:"name"`
	LastMessageTime int64     `db:"last_message_time" json:"last_message_time"`
	LastMessage     string    `db:"last_message" json:"last_message"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

// IncomingMessage is one inbound message extracted from a webhook payload,
// with every provider fallback already applied.
type IncomingMessage struct {
	MessageID      string
	From           string
	BusinessNumber string
	WaID           string
	ContactName    string
	Text           string
	Type           string
	Timestamp      int64
}

// StatusUpdate references a message by either its own id or the correlated
// meta_msg_id some provider status events carry instead.
type StatusUpdate struct {
	MessageID string
	MetaMsgID string
	Status    MessageStatus
}

// DroppedMessage records a message rejected during normalization
// (currently only unparsable timestamps). The rest of the batch proceeds.
type DroppedMessage struct {
	MessageID string
	Reason    string
}

// NormalizedBatch is the store-agnostic result of parsing one raw payload.
type NormalizedBatch struct {
	Messages []IncomingMessage
	Statuses []StatusUpdate
	Dropped  []DroppedMessage
}

// Empty reports whether the batch carries nothing to reconcile.
func (b *NormalizedBatch) Empty() bool {
	return b == nil || (len(b.Messages) == 0 && len(b.Statuses) == 0)
}

// Event names match the socket protocol the frontend listens on.
const (
	EventNewMessage   = "new_message"
	EventStatusUpdate = "message_status_update"
)

// Event is one domain event produced by a reconciliation pass. The engine
// never publishes; callers hand events to whatever transport they have.
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"payload"`
}

// StatusUpdatePayload is the wire payload of a message_status_update event.
type StatusUpdatePayload struct {
	MessageID string        `json:"messageId"`
	MetaMsgID string        `json:"meta_msg_id"`
	Status    MessageStatus `json:"status"`
}
