package notify

import (
	"context"
	"testing"

	"github.com/mmynk/bandmates/internal/models"
)

func TestSendAddedToBand(t *testing.T) {
	d, store, _ := setupDispatcher(t)
	user := &models.User{ID: "alice"}
	band := &models.Band{Name: "The Quarrymen"}

	if err := d.SendAddedToBand(context.Background(), user, band); err != nil {
		t.Fatalf("SendAddedToBand failed: %v", err)
	}

	n := store.notifications[0]
	if n.UserID != "alice" || n.Subject != "You were added to The Quarrymen" || n.Body != "You are now a member of The Quarrymen." {
		t.Errorf("unexpected notification: %+v", n)
	}
	if n.Type != models.NotificationTypeBand || n.Application != models.ApplicationMusician {
		t.Errorf("type/application = %s/%s, want band/musician", n.Type, n.Application)
	}
}

func TestSendRemovedFromBand(t *testing.T) {
	d, store, _ := setupDispatcher(t)
	member := &models.Member{UserID: "bob", Share: 20}
	band := &models.Band{Name: "Wings"}

	if err := d.SendRemovedFromBand(context.Background(), member, band); err != nil {
		t.Fatalf("SendRemovedFromBand failed: %v", err)
	}

	n := store.notifications[0]
	if n.UserID != "bob" || n.Subject != "You were removed from Wings" || n.Body != "You are no longer a member of Wings." {
		t.Errorf("unexpected notification: %+v", n)
	}
}

func TestSendPhilanthropistRequestResolution(t *testing.T) {
	tests := []struct {
		name        string
		request     models.PatronRequest
		wantCount   int
		wantSubject string
		wantBody    string
	}{
		{
			name:        "accepted",
			request:     models.PatronRequest{UserID: "alice", Status: models.PatronRequestAccepted},
			wantCount:   1,
			wantSubject: "Your philanthropist request was accepted.",
			wantBody:    "You can start sending tips to more artists now.",
		},
		{
			name:        "rejected carries the reason",
			request:     models.PatronRequest{UserID: "alice", Status: models.PatronRequestRejected, RejectionReason: "Missing documents"},
			wantCount:   1,
			wantSubject: "Your philanthropist request was rejected.",
			wantBody:    "Missing documents",
		},
		{
			name:      "pending is silent",
			request:   models.PatronRequest{UserID: "alice", Status: models.PatronRequestPending},
			wantCount: 0,
		},
		{
			name:      "unknown status is silent",
			request:   models.PatronRequest{UserID: "alice", Status: "archived"},
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, store, channel := setupDispatcher(t)
			addDevice(store, "alice", "alice-phone", models.ApplicationAudience)

			if err := d.SendPhilanthropistRequestResolution(context.Background(), &tt.request); err != nil {
				t.Fatalf("SendPhilanthropistRequestResolution failed: %v", err)
			}

			if store.count() != tt.wantCount {
				t.Fatalf("persisted %d notifications, want %d", store.count(), tt.wantCount)
			}
			if tt.wantCount == 0 {
				if len(channel.devices) != 0 {
					t.Errorf("expected no deliveries, got %v", channel.devices)
				}
				return
			}
			n := store.notifications[0]
			if n.Subject != tt.wantSubject || n.Body != tt.wantBody {
				t.Errorf("notification = %q / %q, want %q / %q", n.Subject, n.Body, tt.wantSubject, tt.wantBody)
			}
			if n.Type != models.NotificationTypePhilanthropist || n.Application != models.ApplicationAudience {
				t.Errorf("type/application = %s/%s, want philanthropist/audience", n.Type, n.Application)
			}
		})
	}
}

func TestAnnouncePerformance(t *testing.T) {
	d, store, channel := setupDispatcher(t)
	addDevice(store, "alice", "alice-phone", models.ApplicationMusician)
	store.Subscribe(context.Background(), "fan", models.ApplicationAudience)

	band := &models.Band{
		Name: "Wings",
		Members: []*models.Member{
			{UserID: "alice", Role: models.RoleOwner, Share: 100},
			{UserID: "bob", Role: models.RoleMember},
		},
	}

	if err := d.AnnouncePerformance(context.Background(), band); err != nil {
		t.Fatalf("AnnouncePerformance failed: %v", err)
	}

	if len(channel.devices) != 1 || len(channel.topics) != 1 || channel.topics[0] != "audience" {
		t.Errorf("devices = %v, topics = %v", channel.devices, channel.topics)
	}
	if store.count() != 3 {
		t.Errorf("persisted %d notifications, want 2 member records and 1 audience copy", store.count())
	}
	fan, _, _ := store.ListNotificationsByUser(context.Background(), "fan", models.ApplicationAudience, 0, 10)
	if len(fan) != 1 || fan[0].Subject != "Wings is performing now" {
		t.Errorf("fan inbox = %+v", fan)
	}
}
