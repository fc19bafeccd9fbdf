package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/CoderRaushan/whatsapp-web-clone/internal/domain"
	"github.com/CoderRaushan/whatsapp-web-clone/internal/webhook"
)

//
// Test fakes – only for this file.
//

type upsertCall struct {
	waID            string
	name            string
	lastMessageTime int64
	lastMessage     string
}

type fakeContactRepo struct {
	upserts   []upsertCall
	contacts  map[string]*domain.Contact
	upsertErr error
}

func (r *fakeContactRepo) Upsert(ctx context.Context, waID, name string, lastMessageTime int64, lastMessage string) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.upserts = append(r.upserts, upsertCall{waID, name, lastMessageTime, lastMessage})
	if r.contacts == nil {
		r.contacts = make(map[string]*domain.Contact)
	}
	r.contacts[waID] = &domain.Contact{
		WaID:            waID,
		Name:            name,
		LastMessageTime: lastMessageTime,
		LastMessage:     lastMessage,
	}
	return nil
}

func (r *fakeContactRepo) GetAll(ctx context.Context) ([]domain.Contact, error) {
	var all []domain.Contact
	for _, c := range r.contacts {
		all = append(all, *c)
	}
	return all, nil
}

func (r *fakeContactRepo) GetByWaID(ctx context.Context, waID string) (*domain.Contact, error) {
	if c, ok := r.contacts[waID]; ok {
		return c, nil
	}
	return nil, nil
}

type fakeMessageRepo struct {
	stored    []*domain.Message
	insertErr error
	updateErr error
}

func (r *fakeMessageRepo) find(messageID, metaMsgID string) *domain.Message {
	for _, m := range r.stored {
		if m.MessageID == messageID || (metaMsgID != "" && m.MetaMsgID == metaMsgID) || (messageID != "" && m.MetaMsgID == messageID) {
			return m
		}
	}
	return nil
}

func (r *fakeMessageRepo) InsertIfAbsent(ctx context.Context, msg *domain.Message) (bool, error) {
	if r.insertErr != nil {
		return false, r.insertErr
	}
	for _, m := range r.stored {
		if m.MessageID == msg.MessageID {
			return false, nil
		}
	}
	copied := *msg
	r.stored = append(r.stored, &copied)
	return true, nil
}

func (r *fakeMessageRepo) GetByMessageID(ctx context.Context, messageID string) (*domain.Message, error) {
	for _, m := range r.stored {
		if m.MessageID == messageID {
			return m, nil
		}
	}
	return nil, nil
}

func (r *fakeMessageRepo) UpdateStatus(ctx context.Context, messageID, metaMsgID string, status domain.MessageStatus) (*domain.Message, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	m := r.find(messageID, metaMsgID)
	if m == nil {
		return nil, nil
	}
	m.Status = status
	return m, nil
}

func (r *fakeMessageRepo) GetConversation(ctx context.Context, waID string) ([]domain.Message, error) {
	var out []domain.Message
	for _, m := range r.stored {
		if m.WaID == waID || m.From == waID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func incoming(id, from, business string, ts int64) domain.IncomingMessage {
	return domain.IncomingMessage{
		MessageID:      id,
		From:           from,
		BusinessNumber: business,
		WaID:           from,
		ContactName:    "Ravi Kumar",
		Text:           "hi",
		Type:           "text",
		Timestamp:      ts,
	}
}

//
// Tests
//

func TestProcessBatch_IdempotentMessageInsert(t *testing.T) {
	ctx := context.Background()
	contacts := &fakeContactRepo{}
	messages := &fakeMessageRepo{}
	svc := NewProcessorService(contacts, messages)

	batch := &domain.NormalizedBatch{
		Messages: []domain.IncomingMessage{incoming("wamid.1", "2000", "1000", 1700000000)},
	}

	first, err := svc.ProcessBatch(ctx, batch)
	if err != nil {
		t.Fatalf("first pass returned error: %v", err)
	}
	second, err := svc.ProcessBatch(ctx, batch)
	if err != nil {
		t.Fatalf("second pass returned error: %v", err)
	}

	if len(messages.stored) != 1 {
		t.Fatalf("expected exactly 1 stored message, got %d", len(messages.stored))
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 event from first pass, got %d", len(first))
	}
	if first[0].Name != domain.EventNewMessage {
		t.Errorf("expected %s event, got %s", domain.EventNewMessage, first[0].Name)
	}
	if len(second) != 0 {
		t.Fatalf("expected 0 events from duplicate pass, got %d", len(second))
	}
}

func TestProcessBatch_Directionality(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name      string
		from      string
		direction domain.Direction
		to        string
	}{
		{"sender is the business line", "1000", domain.DirectionOutbound, "1000"},
		{"any other sender", "2000", domain.DirectionInbound, "1000"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			messages := &fakeMessageRepo{}
			svc := NewProcessorService(&fakeContactRepo{}, messages)

			in := incoming("wamid.dir", tc.from, "1000", 1700000000)
			if _, err := svc.ProcessBatch(ctx, &domain.NormalizedBatch{Messages: []domain.IncomingMessage{in}}); err != nil {
				t.Fatalf("ProcessBatch returned error: %v", err)
			}

			stored := messages.stored[0]
			if stored.Direction != tc.direction {
				t.Errorf("expected direction %s, got %s", tc.direction, stored.Direction)
			}
			if stored.To != tc.to {
				t.Errorf("expected recipient %s, got %s", tc.to, stored.To)
			}
			if stored.Status != domain.StatusSent {
				t.Errorf("expected status %s, got %s", domain.StatusSent, stored.Status)
			}
		})
	}
}

func TestProcessBatch_StatusResolvesByEitherKey(t *testing.T) {
	ctx := context.Background()
	messages := &fakeMessageRepo{
		stored: []*domain.Message{
			{MessageID: "m1", MetaMsgID: "x9", Status: domain.StatusSent},
		},
	}
	svc := NewProcessorService(&fakeContactRepo{}, messages)

	// Match on message_id even though the correlated id differs.
	events, err := svc.ProcessBatch(ctx, &domain.NormalizedBatch{
		Statuses: []domain.StatusUpdate{{MessageID: "m1", Status: domain.StatusDelivered}},
	})
	if err != nil {
		t.Fatalf("ProcessBatch returned error: %v", err)
	}
	if len(events) != 1 || events[0].Name != domain.EventStatusUpdate {
		t.Fatalf("expected 1 status event, got %+v", events)
	}
	if messages.stored[0].Status != domain.StatusDelivered {
		t.Fatalf("expected status delivered, got %s", messages.stored[0].Status)
	}

	// Match on the correlated id alone.
	events, err = svc.ProcessBatch(ctx, &domain.NormalizedBatch{
		Statuses: []domain.StatusUpdate{{MetaMsgID: "x9", Status: domain.StatusRead}},
	})
	if err != nil {
		t.Fatalf("ProcessBatch returned error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if messages.stored[0].Status != domain.StatusRead {
		t.Fatalf("expected status read, got %s", messages.stored[0].Status)
	}

	payload, ok := events[0].Payload.(domain.StatusUpdatePayload)
	if !ok {
		t.Fatalf("expected StatusUpdatePayload, got %T", events[0].Payload)
	}
	if payload.MetaMsgID != "x9" || payload.Status != domain.StatusRead {
		t.Fatalf("unexpected event payload: %+v", payload)
	}
}

func TestProcessPayload_MissingPathIsNoOp(t *testing.T) {
	ctx := context.Background()
	contacts := &fakeContactRepo{}
	messages := &fakeMessageRepo{}
	svc := NewProcessorService(contacts, messages)

	events, err := svc.ProcessPayload(ctx, &webhook.Envelope{})
	if err != nil {
		t.Fatalf("ProcessPayload returned error: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected 0 events, got %d", len(events))
	}
	if len(contacts.upserts) != 0 || len(messages.stored) != 0 {
		t.Fatalf("expected zero store mutations")
	}
}

func TestProcessBatch_ContactUpsertAlwaysRuns(t *testing.T) {
	ctx := context.Background()
	contacts := &fakeContactRepo{}
	messages := &fakeMessageRepo{}
	svc := NewProcessorService(contacts, messages)

	first := incoming("wamid.dup", "P", "1000", 100)
	first.WaID = "P"
	first.ContactName = "Alice"

	second := first
	second.ContactName = "Alicia"
	second.Timestamp = 200

	if _, err := svc.ProcessBatch(ctx, &domain.NormalizedBatch{Messages: []domain.IncomingMessage{first}}); err != nil {
		t.Fatalf("first pass returned error: %v", err)
	}
	events, err := svc.ProcessBatch(ctx, &domain.NormalizedBatch{Messages: []domain.IncomingMessage{second}})
	if err != nil {
		t.Fatalf("second pass returned error: %v", err)
	}

	// Duplicate message id: no new message, no event...
	if len(messages.stored) != 1 {
		t.Fatalf("expected 1 stored message, got %d", len(messages.stored))
	}
	if len(events) != 0 {
		t.Fatalf("expected 0 events, got %d", len(events))
	}

	// ...but the directory entry still reflects the second arrival.
	if len(contacts.upserts) != 2 {
		t.Fatalf("expected 2 contact upserts, got %d", len(contacts.upserts))
	}
	entry := contacts.contacts["P"]
	if entry.Name != "Alicia" {
		t.Errorf("expected contact name %q, got %q", "Alicia", entry.Name)
	}
	if entry.LastMessageTime != 200 {
		t.Errorf("expected last_message_time 200, got %d", entry.LastMessageTime)
	}
}

func TestProcessBatch_StatusTargetNotFound(t *testing.T) {
	ctx := context.Background()
	svc := NewProcessorService(&fakeContactRepo{}, &fakeMessageRepo{})

	events, err := svc.ProcessBatch(ctx, &domain.NormalizedBatch{
		Statuses: []domain.StatusUpdate{{MessageID: "missing", Status: domain.StatusDelivered}},
	})
	if err != nil {
		t.Fatalf("expected no error for unmatched status, got %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected 0 events, got %d", len(events))
	}
}

func TestProcessBatch_StatusReapplyEmitsAgain(t *testing.T) {
	ctx := context.Background()
	messages := &fakeMessageRepo{
		stored: []*domain.Message{
			{MessageID: "wamid.1", MetaMsgID: "wamid.1", Status: domain.StatusSent},
		},
	}
	svc := NewProcessorService(&fakeContactRepo{}, messages)

	batch := &domain.NormalizedBatch{
		Statuses: []domain.StatusUpdate{{MessageID: "wamid.1", Status: domain.StatusDelivered}},
	}

	// Status application is deliberately not deduplicated: the event log
	// shows every transition attempt.
	for i := 0; i < 2; i++ {
		events, err := svc.ProcessBatch(ctx, batch)
		if err != nil {
			t.Fatalf("pass %d returned error: %v", i+1, err)
		}
		if len(events) != 1 {
			t.Fatalf("pass %d: expected 1 event, got %d", i+1, len(events))
		}
	}

	if messages.stored[0].Status != domain.StatusDelivered {
		t.Fatalf("expected status delivered, got %s", messages.stored[0].Status)
	}
}

func TestProcessBatch_StorageErrorPropagates(t *testing.T) {
	ctx := context.Background()
	messages := &fakeMessageRepo{insertErr: fmt.Errorf("connection reset")}
	contacts := &fakeContactRepo{}
	svc := NewProcessorService(contacts, messages)

	_, err := svc.ProcessBatch(ctx, &domain.NormalizedBatch{
		Messages: []domain.IncomingMessage{incoming("wamid.1", "2000", "1000", 1700000000)},
	})
	if err == nil {
		t.Fatalf("expected storage error to propagate")
	}

	// The contact upsert for the failing item already ran; partial
	// application is expected behavior.
	if len(contacts.upserts) != 1 {
		t.Fatalf("expected 1 contact upsert before the failure, got %d", len(contacts.upserts))
	}
}

func TestProcessBatch_EventsBeforeFailureAreReturned(t *testing.T) {
	ctx := context.Background()
	messages := &fakeMessageRepo{}
	contacts := &fakeContactRepo{}
	svc := NewProcessorService(contacts, messages)

	ok := incoming("wamid.ok", "2000", "1000", 1700000000)
	if _, err := svc.ProcessBatch(ctx, &domain.NormalizedBatch{Messages: []domain.IncomingMessage{ok}}); err != nil {
		t.Fatalf("setup pass returned error: %v", err)
	}

	messages.updateErr = fmt.Errorf("connection reset")

	events, err := svc.ProcessBatch(ctx, &domain.NormalizedBatch{
		Messages: []domain.IncomingMessage{incoming("wamid.2", "2000", "1000", 1700000001)},
		Statuses: []domain.StatusUpdate{{MessageID: "wamid.ok", Status: domain.StatusDelivered}},
	})
	if err == nil {
		t.Fatalf("expected error from status update")
	}
	if len(events) != 1 || events[0].Name != domain.EventNewMessage {
		t.Fatalf("expected the message event gathered before the failure, got %+v", events)
	}
}

func TestProcessPayload_EndToEndMessage(t *testing.T) {
	ctx := context.Background()
	contacts := &fakeContactRepo{}
	messages := &fakeMessageRepo{}
	svc := NewProcessorService(contacts, messages)

	env := &webhook.Envelope{
		MetaData: &webhook.ProviderData{
			Entry: []webhook.Entry{{
				Changes: []webhook.Change{{
					Field: "messages",
					Value: &webhook.Value{
						Metadata: &webhook.Metadata{DisplayPhoneNumber: "1000"},
						Messages: []webhook.Message{{
							From:      "2000",
							ID:        "wamid.1",
							Timestamp: "1700000000",
							Text:      &webhook.Text{Body: "hi"},
						}},
					},
				}},
			}},
		},
	}

	events, err := svc.ProcessPayload(ctx, env)
	if err != nil {
		t.Fatalf("ProcessPayload returned error: %v", err)
	}

	if len(contacts.upserts) != 1 || contacts.upserts[0].waID != "2000" {
		t.Fatalf("expected 1 contact upsert for 2000, got %+v", contacts.upserts)
	}
	if contacts.upserts[0].lastMessage != "hi" {
		t.Errorf("expected preview %q, got %q", "hi", contacts.upserts[0].lastMessage)
	}

	if len(messages.stored) != 1 {
		t.Fatalf("expected 1 stored message, got %d", len(messages.stored))
	}
	stored := messages.stored[0]
	if stored.Direction != domain.DirectionInbound {
		t.Errorf("expected inbound, got %s", stored.Direction)
	}
	if stored.Status != domain.StatusSent {
		t.Errorf("expected status sent, got %s", stored.Status)
	}

	if len(events) != 1 || events[0].Name != domain.EventNewMessage {
		t.Fatalf("expected 1 new_message event, got %+v", events)
	}
	payload, ok := events[0].Payload.(*domain.Message)
	if !ok {
		t.Fatalf("expected *domain.Message payload, got %T", events[0].Payload)
	}
	if payload.MessageID != "wamid.1" {
		t.Errorf("expected stored record in the event, got %+v", payload)
	}
}

func TestProcessPayload_EndToEndStatus(t *testing.T) {
	ctx := context.Background()
	messages := &fakeMessageRepo{
		stored: []*domain.Message{
			{MessageID: "wamid.1", MetaMsgID: "wamid.1", Status: domain.StatusSent},
		},
	}
	svc := NewProcessorService(&fakeContactRepo{}, messages)

	env := &webhook.Envelope{
		MetaData: &webhook.ProviderData{
			Entry: []webhook.Entry{{
				Changes: []webhook.Change{{
					Field: "statuses",
					Value: &webhook.Value{
						Statuses: []webhook.Status{{ID: "wamid.1", Status: "delivered"}},
					},
				}},
			}},
		},
	}

	events, err := svc.ProcessPayload(ctx, env)
	if err != nil {
		t.Fatalf("ProcessPayload returned error: %v", err)
	}
	if len(events) != 1 || events[0].Name != domain.EventStatusUpdate {
		t.Fatalf("expected 1 status event, got %+v", events)
	}
	if messages.stored[0].Status != domain.StatusDelivered {
		t.Fatalf("expected delivered, got %s", messages.stored[0].Status)
	}
}

func TestProcessBatch_DroppedMessagesAreSkipped(t *testing.T) {
	ctx := context.Background()
	contacts := &fakeContactRepo{}
	messages := &fakeMessageRepo{}
	svc := NewProcessorService(contacts, messages)

	events, err := svc.ProcessBatch(ctx, &domain.NormalizedBatch{
		Dropped: []domain.DroppedMessage{{MessageID: "wamid.bad", Reason: `invalid timestamp "x"`}},
	})
	if err != nil {
		t.Fatalf("ProcessBatch returned error: %v", err)
	}
	if len(events) != 0 || len(contacts.upserts) != 0 || len(messages.stored) != 0 {
		t.Fatalf("expected dropped-only batch to mutate nothing")
	}
}
