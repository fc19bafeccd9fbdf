package webhook

import (
	"fmt"
	"strconv"

	"github.com/CoderRaushan/whatsapp-web-clone/internal/domain"
)

const (
	fallbackContactName = "Unknown"
	fallbackMessageType = "text"
)

// Normalize turns one raw envelope into a store-agnostic batch. It returns
// nil when the payload does not carry a recognized change, which callers
// treat as "nothing to do" rather than an error.
//
// A message whose timestamp cannot be parsed is rejected individually and
// recorded in Dropped; it never aborts the rest of the batch.
func Normalize(env *Envelope) *domain.NormalizedBatch {
	value := env.changeValue()
	if value == nil {
		return nil
	}

	batch := &domain.NormalizedBatch{}

	var businessNumber string
	if value.Metadata != nil {
		businessNumber = value.Metadata.DisplayPhoneNumber
	}

	for _, msg := range value.Messages {
		name := fallbackContactName
		waID := msg.From

		// The provider sends at most one contact block per change; it
		// describes the conversation participant for every message in it.
		if len(value.Contacts) > 0 {
			contact := value.Contacts[0]
			if contact.Profile != nil && contact.Profile.Name != "" {
				name = contact.Profile.Name
			}
			if contact.WaID != "" {
				waID = contact.WaID
			}
		}

		timestamp, err := strconv.ParseInt(msg.Timestamp, 10, 64)
		if err != nil {
			batch.Dropped = append(batch.Dropped, domain.DroppedMessage{
				MessageID: msg.ID,
				Reason:    fmt.Sprintf("invalid timestamp %q", msg.Timestamp),
			})
			continue
		}

		kind := msg.Type
		if kind == "" {
			kind = fallbackMessageType
		}

		var body string
		if msg.Text != nil {
			body = msg.Text.Body
		}

		batch.Messages = append(batch.Messages, domain.IncomingMessage{
			MessageID:      msg.ID,
			From:           msg.From,
			BusinessNumber: businessNumber,
			WaID:           waID,
			ContactName:    name,
			Text:           body,
			Type:           kind,
			Timestamp:      timestamp,
		})
	}

	for _, st := range value.Statuses {
		batch.Statuses = append(batch.Statuses, domain.StatusUpdate{
			MessageID: st.ID,
			MetaMsgID: st.MetaMsgID,
			Status:    domain.MessageStatus(st.Status),
		})
	}

	return batch
}
