package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmynk/bandmates/internal/models"
)

// SendAddedToBand tells user they joined band.
func (d *Dispatcher) SendAddedToBand(ctx context.Context, user *models.User, band *models.Band) error {
	_, err := d.Send(ctx, &models.Notification{
		UserID:      user.ID,
		Subject:     fmt.Sprintf("You were added to %s", band.Name),
		Body:        fmt.Sprintf("You are now a member of %s.", band.Name),
		Type:        models.NotificationTypeBand,
		Application: models.ApplicationMusician,
	})
	return err
}

// SendRemovedFromBand tells a former member they left band.
// member is the detached membership, no longer part of band.Members.
func (d *Dispatcher) SendRemovedFromBand(ctx context.Context, member *models.Member, band *models.Band) error {
	_, err := d.Send(ctx, &models.Notification{
		UserID:      member.UserID,
		Subject:     fmt.Sprintf("You were removed from %s", band.Name),
		Body:        fmt.Sprintf("You are no longer a member of %s.", band.Name),
		Type:        models.NotificationTypeBand,
		Application: models.ApplicationMusician,
	})
	return err
}

// SendPhilanthropistRequestResolution tells the requester how their request ended.
// Requests that are not accepted or rejected produce no notification.
func (d *Dispatcher) SendPhilanthropistRequestResolution(ctx context.Context, request *models.PatronRequest) error {
	n := &models.Notification{
		UserID:      request.UserID,
		Type:        models.NotificationTypePhilanthropist,
		Application: models.ApplicationAudience,
	}

	switch request.Status {
	case models.PatronRequestAccepted:
		n.Subject = "Your philanthropist request was accepted."
		n.Body = "You can start sending tips to more artists now."
	case models.PatronRequestRejected:
		n.Subject = "Your philanthropist request was rejected."
		n.Body = request.RejectionReason
	default:
		slog.Debug("Skipping non-terminal patron request", "request_id", request.ID, "status", request.Status)
		return nil
	}

	_, err := d.Send(ctx, n)
	return err
}

// AnnouncePerformance tells every band member that the band is on stage and
// broadcasts the news to the audience topic.
func (d *Dispatcher) AnnouncePerformance(ctx context.Context, band *models.Band) error {
	members := make([]*models.Notification, 0, len(band.Members))
	for _, m := range band.Members {
		members = append(members, &models.Notification{
			UserID:      m.UserID,
			Subject:     fmt.Sprintf("%s is on stage", band.Name),
			Body:        fmt.Sprintf("Your band %s started a performance.", band.Name),
			Type:        models.NotificationTypePerformance,
			Application: models.ApplicationMusician,
		})
	}
	memberErr := d.SendMultiple(ctx, members)

	_, topicErr := d.SendToTopic(ctx, &models.Notification{
		Subject:     fmt.Sprintf("%s is performing now", band.Name),
		Body:        fmt.Sprintf("Tune in to %s live.", band.Name),
		Type:        models.NotificationTypePerformance,
		Application: models.ApplicationAudience,
	})

	return errors.Join(memberErr, topicErr)
}
