package notify

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/mmynk/bandmates/internal/models"
)

var fixedNow = time.Date(2026, 3, 14, 20, 30, 0, 0, time.UTC)

func setupDispatcher(t *testing.T) (*Dispatcher, *memoryStore, *recordingChannel) {
	t.Helper()
	store := newMemoryStore()
	channel := &recordingChannel{failFor: map[string]bool{}}
	d := NewDispatcher(store, channel, nil, func() time.Time { return fixedNow })
	return d, store, channel
}

func addDevice(store *memoryStore, userID, token string, app models.Application) {
	store.RegisterDevice(context.Background(), &models.Device{
		ID:          "dev-" + token,
		UserID:      userID,
		Application: app,
		Token:       token,
	})
}

func TestSend(t *testing.T) {
	defer goleak.VerifyNone(t)

	d, store, channel := setupDispatcher(t)
	addDevice(store, "alice", "alice-phone", models.ApplicationMusician)
	addDevice(store, "alice", "alice-tablet", models.ApplicationMusician)
	addDevice(store, "alice", "alice-audience", models.ApplicationAudience)
	addDevice(store, "bob", "bob-phone", models.ApplicationMusician)

	n, err := d.Send(context.Background(), &models.Notification{
		UserID:      "alice",
		Subject:     "Hello",
		Body:        "World",
		Type:        models.NotificationTypeGeneral,
		Application: models.ApplicationMusician,
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	sort.Strings(channel.devices)
	if len(channel.devices) != 2 || channel.devices[0] != "alice-phone" || channel.devices[1] != "alice-tablet" {
		t.Errorf("delivered to %v, want alice's two musician devices", channel.devices)
	}
	for _, msg := range channel.messages {
		if msg.Data["type"] != "general" {
			t.Errorf("message type = %q, want general", msg.Data["type"])
		}
	}
	if n.ID == 0 {
		t.Error("expected notification ID to be assigned")
	}
	if !n.Timestamp.Equal(fixedNow) || n.Timestamp.Location() != time.UTC {
		t.Errorf("timestamp = %v, want %v UTC", n.Timestamp, fixedNow)
	}
	if store.count() != 1 {
		t.Errorf("persisted %d notifications, want 1", store.count())
	}
}

func TestSend_NoDevicesStillPersists(t *testing.T) {
	d, store, channel := setupDispatcher(t)

	_, err := d.Send(context.Background(), &models.Notification{
		UserID:      "nobody",
		Subject:     "Hi",
		Application: models.ApplicationAudience,
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if len(channel.devices) != 0 {
		t.Errorf("expected no deliveries, got %v", channel.devices)
	}
	if store.count() != 1 {
		t.Errorf("persisted %d notifications, want 1", store.count())
	}
}

func TestSend_PartialFailureIsNotFatal(t *testing.T) {
	defer goleak.VerifyNone(t)

	d, store, channel := setupDispatcher(t)
	addDevice(store, "alice", "broken", models.ApplicationMusician)
	addDevice(store, "alice", "working", models.ApplicationMusician)
	addDevice(store, "alice", "also-broken", models.ApplicationMusician)
	channel.failFor["broken"] = true
	channel.failFor["also-broken"] = true

	_, err := d.Send(context.Background(), &models.Notification{
		UserID:      "alice",
		Subject:     "Hi",
		Application: models.ApplicationMusician,
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if len(channel.devices) != 3 {
		t.Errorf("attempted %d devices, want 3", len(channel.devices))
	}
	if store.count() != 1 {
		t.Errorf("persisted %d notifications, want 1", store.count())
	}
}

func TestSend_AllDevicesFailStillPersists(t *testing.T) {
	d, store, channel := setupDispatcher(t)
	addDevice(store, "alice", "broken", models.ApplicationMusician)
	channel.failFor["broken"] = true

	if _, err := d.Send(context.Background(), &models.Notification{
		UserID:      "alice",
		Application: models.ApplicationMusician,
	}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if store.count() != 1 {
		t.Errorf("persisted %d notifications, want 1", store.count())
	}
}

func TestSend_DeviceLookupFailure(t *testing.T) {
	d, store, _ := setupDispatcher(t)
	store.deviceErr = errors.New("db down")

	_, err := d.Send(context.Background(), &models.Notification{
		UserID:      "alice",
		Application: models.ApplicationMusician,
	})
	if err == nil {
		t.Fatal("expected error when devices cannot be listed")
	}
	if store.count() != 0 {
		t.Errorf("persisted %d notifications, want 0", store.count())
	}
}

func TestSend_Invalid(t *testing.T) {
	d, _, _ := setupDispatcher(t)

	tests := []struct {
		name string
		n    *models.Notification
	}{
		{"nil", nil},
		{"missing user", &models.Notification{Application: models.ApplicationMusician}},
		{"unknown application", &models.Notification{UserID: "alice", Application: "desktop"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := d.Send(context.Background(), tt.n); !errors.Is(err, ErrInvalidNotification) {
				t.Errorf("Send() error = %v, want ErrInvalidNotification", err)
			}
		})
	}
}

func TestSendMultiple(t *testing.T) {
	defer goleak.VerifyNone(t)

	d, store, channel := setupDispatcher(t)
	addDevice(store, "alice", "alice-phone", models.ApplicationMusician)
	addDevice(store, "bob", "bob-phone", models.ApplicationMusician)
	addDevice(store, "bob", "bob-broken", models.ApplicationMusician)
	channel.failFor["bob-broken"] = true

	ns := []*models.Notification{
		{UserID: "alice", Subject: "1", Application: models.ApplicationMusician},
		{UserID: "bob", Subject: "2", Application: models.ApplicationMusician},
		{UserID: "carol", Subject: "3", Application: models.ApplicationMusician},
	}

	if err := d.SendMultiple(context.Background(), ns); err != nil {
		t.Fatalf("SendMultiple failed: %v", err)
	}

	if len(channel.devices) != 3 {
		t.Errorf("attempted %d devices, want 3", len(channel.devices))
	}
	if store.count() != 3 {
		t.Errorf("persisted %d notifications, want 3", store.count())
	}
	if store.createCalls != 1 {
		t.Errorf("store called %d times, want one batch", store.createCalls)
	}
	for _, n := range ns {
		if n.Timestamp.IsZero() {
			t.Errorf("notification %q has no timestamp", n.Subject)
		}
	}
}

func TestSendToTopic(t *testing.T) {
	d, store, channel := setupDispatcher(t)
	store.Subscribe(context.Background(), "alice", models.ApplicationAudience)
	store.Subscribe(context.Background(), "bob", models.ApplicationAudience)
	store.Subscribe(context.Background(), "carol", models.ApplicationMusician)

	copies, err := d.SendToTopic(context.Background(), &models.Notification{
		Subject:     "New show",
		Body:        "Tonight",
		Type:        models.NotificationTypePerformance,
		Application: models.ApplicationAudience,
	})
	if err != nil {
		t.Fatalf("SendToTopic failed: %v", err)
	}

	if len(channel.topics) != 1 || channel.topics[0] != "audience" {
		t.Errorf("topics = %v, want [audience]", channel.topics)
	}
	if len(channel.devices) != 0 {
		t.Errorf("topic send should not touch devices, got %v", channel.devices)
	}
	if copies != 2 || store.count() != 2 {
		t.Errorf("copies = %d, stored = %d, want 2", copies, store.count())
	}

	page, _, _ := store.ListNotificationsByUser(context.Background(), "bob", models.ApplicationAudience, 0, 10)
	if len(page) != 1 || page[0].Subject != "New show" {
		t.Errorf("bob's inbox = %+v, want the broadcast copy", page)
	}
}

func TestSendToTopic_DeliveryFailureStoresNothing(t *testing.T) {
	d, store, channel := setupDispatcher(t)
	store.Subscribe(context.Background(), "alice", models.ApplicationAudience)
	channel.topicErr = errDeliveryFailed

	_, err := d.SendToTopic(context.Background(), &models.Notification{
		Subject:     "New show",
		Application: models.ApplicationAudience,
	})
	if !errors.Is(err, errDeliveryFailed) {
		t.Fatalf("SendToTopic() error = %v, want delivery failure", err)
	}
	if store.count() != 0 {
		t.Errorf("persisted %d copies, want 0", store.count())
	}
}

func TestInbox(t *testing.T) {
	d, _, _ := setupDispatcher(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := d.Send(ctx, &models.Notification{UserID: "alice", Application: models.ApplicationMusician}); err != nil {
			t.Fatalf("Send failed: %v", err)
		}
	}
	d.Send(ctx, &models.Notification{UserID: "alice", Application: models.ApplicationAudience})

	page, total, err := d.ListForUser(ctx, "alice", models.ApplicationMusician, 1, 2)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if total != 5 || len(page) != 2 {
		t.Fatalf("page = %d items of %d, want 2 of 5", len(page), total)
	}
	if page[0].ID != 4 || page[1].ID != 3 {
		t.Errorf("page IDs = %d,%d, want 4,3 (newest first)", page[0].ID, page[1].ID)
	}

	if err := d.MarkAllAsRead(ctx, "alice", models.ApplicationMusician, 3); err != nil {
		t.Fatalf("MarkAllAsRead failed: %v", err)
	}
	unread, _ := d.UnreadCount(ctx, "alice", models.ApplicationMusician)
	if unread != 2 {
		t.Errorf("unread = %d, want 2", unread)
	}

	d.MarkAllAsRead(ctx, "alice", models.ApplicationMusician, 0)
	unread, _ = d.UnreadCount(ctx, "alice", models.ApplicationMusician)
	if unread != 0 {
		t.Errorf("unread after mark all = %d, want 0", unread)
	}
	unread, _ = d.UnreadCount(ctx, "alice", models.ApplicationAudience)
	if unread != 1 {
		t.Errorf("audience unread = %d, want 1", unread)
	}
}
