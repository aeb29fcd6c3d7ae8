package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/Juanes7222/AppNotify/internal/metrics"
	"github.com/Juanes7222/AppNotify/internal/model"
	"github.com/Juanes7222/AppNotify/internal/reminder"
	eventrepo "github.com/Juanes7222/AppNotify/internal/repository/event"
	notifrepo "github.com/Juanes7222/AppNotify/internal/repository/notification"
)

// Generate creates one pending notification per reminder interval of event
// for the given subscription. Intervals whose fire time lies more than
// CreationGrace in the past are skipped. Records inserted before a store
// error are kept and returned together with the error.
func (s *Service) Generate(ctx context.Context, event model.Event, sub model.Subscription, userID uuid.UUID) ([]model.Notification, error) {
	now := s.now().UTC()
	created := make([]model.Notification, 0, len(event.ReminderIntervals))

	for i, iv := range event.ReminderIntervals {
		if !reminder.Known(iv.Unit) {
			zlog.Logger.Warn().
				Str("event_id", event.ID.String()).
				Int("interval", i).
				Str("unit", iv.Unit).
				Msg("unknown reminder unit, firing at event time")
		}

		fireAt := reminder.Resolve(event.EventDate, iv)

		if late := now.Sub(fireAt); late > CreationGrace {
			zlog.Logger.Warn().
				Str("event_id", event.ID.String()).
				Str("subscription_id", sub.ID.String()).
				Int("interval", i).
				Time("fire_at", fireAt).
				Dur("late", late).
				Msg("reminder time already passed, skipping")
			metrics.NotificationsSkipped.Inc()
			continue
		}

		n := model.Notification{
			ID:             uuid.New(),
			EventID:        event.ID,
			SubscriptionID: sub.ID,
			ContactID:      sub.ContactID,
			UserID:         userID,
			ScheduledAt:    fireAt,
			Status:         model.StatusPending,
			CreatedAt:      now,
		}

		if err := s.repo.CreateNotification(ctx, n); err != nil {
			return created, fmt.Errorf("create notification: %w", err)
		}

		s.cacheStatus(ctx, n.ID, n.Status)
		metrics.NotificationsCreated.Inc()

		created = append(created, n)
	}

	return created, nil
}

// Regenerate drops the pending notifications of an event and rebuilds them
// from its current date and reminder intervals for every subscription.
// A deleted event leaves nothing to rebuild and is not an error.
func (s *Service) Regenerate(ctx context.Context, eventID, userID uuid.UUID) error {
	deleted, err := s.repo.DeletePendingByEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("delete pending notifications: %w", err)
	}

	event, err := s.events.GetEventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, eventrepo.ErrEventNotFound) {
			zlog.Logger.Info().Str("event_id", eventID.String()).Msg("event gone, nothing to regenerate")
			return nil
		}

		return fmt.Errorf("get event: %w", err)
	}

	subs, err := s.events.GetSubscriptionsByEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("get subscriptions: %w", err)
	}

	total := 0
	for _, sub := range subs {
		created, err := s.Generate(ctx, event, sub, userID)
		total += len(created)
		if err != nil {
			return err
		}
	}

	zlog.Logger.Info().
		Str("event_id", eventID.String()).
		Int64("deleted", deleted).
		Int("created", total).
		Msg("notifications regenerated")

	return nil
}

// OnEventUpdated regenerates notifications only when the edit touched the
// event date or its reminder intervals.
func (s *Service) OnEventUpdated(ctx context.Context, before, after model.Event, userID uuid.UUID) error {
	if !before.ScheduleChanged(after) {
		return nil
	}

	return s.Regenerate(ctx, after.ID, userID)
}

// DeleteForEvent removes every notification of an event.
func (s *Service) DeleteForEvent(ctx context.Context, eventID uuid.UUID) (int64, error) {
	return s.deleteBy(ctx, notifrepo.ByEvent, eventID)
}

// DeleteForSubscription removes every notification of a subscription.
func (s *Service) DeleteForSubscription(ctx context.Context, subscriptionID uuid.UUID) (int64, error) {
	return s.deleteBy(ctx, notifrepo.BySubscription, subscriptionID)
}

// DeleteForContact removes every notification addressed to a contact.
func (s *Service) DeleteForContact(ctx context.Context, contactID uuid.UUID) (int64, error) {
	return s.deleteBy(ctx, notifrepo.ByContact, contactID)
}

func (s *Service) deleteBy(ctx context.Context, ref notifrepo.Reference, id uuid.UUID) (int64, error) {
	n, err := s.repo.DeleteByReference(ctx, ref, id)
	if err != nil {
		return 0, fmt.Errorf("delete notifications: %w", err)
	}

	return n, nil
}
