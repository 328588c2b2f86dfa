package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stampedhq/onboard/internal/storage"
	"github.com/stampedhq/onboard/pkg/models"
)

func uploadRequest(recipient string) models.NotificationRequest {
	return models.NotificationRequest{
		RecipientID: recipient,
		Title:       "New Document Uploaded",
		Message:     "Client uploaded proof of_address - lease.pdf",
		Type:        models.NotificationInfo,
		ActionURL:   "/compliance/documents",
		Metadata:    models.NotificationMetadata{DocumentID: "doc-1", ClientID: "client-1"},
	}
}

func TestInbox_AddListAndUnread(t *testing.T) {
	tick := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	now := func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}
	in := NewInbox(nil, now, zerolog.Nop())
	ctx := context.Background()

	first, err := in.AddNotification(ctx, uploadRequest("emp-001"))
	if err != nil {
		t.Fatalf("adding: %v", err)
	}
	if first.ID == "" || first.Read {
		t.Errorf("unexpected notification %+v", first)
	}
	second, _ := in.AddNotification(ctx, uploadRequest("emp-001"))
	_, _ = in.AddNotification(ctx, uploadRequest("emp-002"))

	list := in.List("emp-001")
	if len(list) != 2 {
		t.Fatalf("expected 2 notifications for emp-001, got %d", len(list))
	}
	if list[0].ID != second.ID {
		t.Error("expected newest notification first")
	}
	if n := in.UnreadCount("emp-001"); n != 2 {
		t.Errorf("UnreadCount = %d, want 2", n)
	}

	if err := in.MarkAsRead(first.ID); err != nil {
		t.Fatalf("marking read: %v", err)
	}
	if n := in.UnreadCount("emp-001"); n != 1 {
		t.Errorf("UnreadCount after read = %d, want 1", n)
	}
	if err := in.MarkAsRead("notif-missing"); !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("expected ErrNotificationNotFound, got %v", err)
	}
}

func TestInbox_DefaultsTypeToInfo(t *testing.T) {
	in := NewInbox(nil, nil, zerolog.Nop())
	req := uploadRequest("emp-001")
	req.Type = ""
	n, err := in.AddNotification(context.Background(), req)
	if err != nil {
		t.Fatalf("adding: %v", err)
	}
	if n.Type != models.NotificationInfo {
		t.Errorf("type = %q, want info", n.Type)
	}
}

func TestInbox_Persists(t *testing.T) {
	store := storage.NewCollectionStore(storage.NewMemorySubstrate(), zerolog.Nop())
	in := NewInbox(store, nil, zerolog.Nop())
	n, err := in.AddNotification(context.Background(), uploadRequest("emp-003"))
	if err != nil {
		t.Fatalf("adding: %v", err)
	}

	reopened := NewInbox(store, nil, zerolog.Nop())
	list := reopened.List("emp-003")
	if len(list) != 1 || list[0].ID != n.ID || list[0].Metadata.DocumentID != "doc-1" {
		t.Errorf("unexpected restored notifications %+v", list)
	}
}

type failingSink struct{ err error }

func (f failingSink) AddNotification(context.Context, models.NotificationRequest) (*models.Notification, error) {
	return nil, f.err
}

func TestFanout_DeliversToAllAndJoinsErrors(t *testing.T) {
	boom := errors.New("webhook down")
	in := NewInbox(nil, nil, zerolog.Nop())
	sink := Fanout(failingSink{err: boom}, nil, in)

	n, err := sink.AddNotification(context.Background(), uploadRequest("emp-001"))
	if !errors.Is(err, boom) {
		t.Errorf("expected joined error to wrap %v, got %v", boom, err)
	}
	if n == nil || n.RecipientID != "emp-001" {
		t.Errorf("expected inbox notification despite failure, got %+v", n)
	}
	if len(in.List("emp-001")) != 1 {
		t.Error("inbox did not receive the notification")
	}
}
