package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/Juanes7222/AppNotify/internal/metrics"
	"github.com/Juanes7222/AppNotify/internal/model"
	"github.com/Juanes7222/AppNotify/internal/rabbitmq/queue"
	contactrepo "github.com/Juanes7222/AppNotify/internal/repository/contact"
	eventrepo "github.com/Juanes7222/AppNotify/internal/repository/event"
	notifrepo "github.com/Juanes7222/AppNotify/internal/repository/notification"
)

// SweepResult summarises one sweep tick.
type SweepResult struct {
	Due     int // notifications returned by the due query
	Sent    int
	Failed  int
	Skipped int // claimed elsewhere or no longer pending
	Errors  int // left pending because of a store error
}

// Sweep delivers up to one batch of due notifications. Each notification is
// handled independently: a failure on one never stops the others. An error
// is returned when the due query fails or when ctx ends mid-batch; in the
// latter case the partial result is returned with it.
func (s *Service) Sweep(ctx context.Context) (SweepResult, error) {
	now := s.now().UTC()

	due, err := s.repo.GetDueNotifications(ctx, now, now.Add(-s.opts.ClaimTTL), s.opts.BatchSize)
	if err != nil {
		metrics.SweepRuns.WithLabelValues("error").Inc()
		zlog.Logger.Error().Err(err).Msg("failed to query due notifications")
		return SweepResult{}, fmt.Errorf("get due notifications: %w", err)
	}

	res := SweepResult{Due: len(due)}

	for _, n := range due {
		if ctx.Err() != nil {
			metrics.SweepRuns.WithLabelValues("cancelled").Inc()
			zlog.Logger.Warn().Int("due", res.Due).Int("sent", res.Sent).Msg("sweep cancelled")
			return res, fmt.Errorf("sweep cancelled: %w", ctx.Err())
		}

		out, err := s.deliver(ctx, n, false)
		switch {
		case errors.Is(err, ErrAlreadyClaimed), errors.Is(err, notifrepo.ErrNotPending):
			res.Skipped++
		case err != nil:
			res.Errors++
			zlog.Logger.Error().Err(err).Str("id", n.ID.String()).Msg("failed to deliver notification")
		case out.Status == model.StatusSent:
			res.Sent++
		default:
			res.Failed++
		}
	}

	metrics.SweepRuns.WithLabelValues("ok").Inc()

	if res.Due > 0 {
		zlog.Logger.Info().
			Int("due", res.Due).
			Int("sent", res.Sent).
			Int("failed", res.Failed).
			Int("skipped", res.Skipped).
			Int("errors", res.Errors).
			Msg("sweep finished")
	}

	return res, nil
}

// SendNow delivers a pending notification immediately using the test
// template. Sent and failed notifications are rejected with ErrNotPending.
func (s *Service) SendNow(ctx context.Context, id, userID uuid.UUID) (model.Notification, error) {
	n, err := s.repo.GetNotificationByID(ctx, id, userID)
	if err != nil {
		return model.Notification{}, fmt.Errorf("get notification: %w", err)
	}

	if n.Status != model.StatusPending {
		return n, notifrepo.ErrNotPending
	}

	return s.deliver(ctx, n, true)
}

// SendTestEmail sends the mail check message to the user's own address and
// returns that address.
func (s *Service) SendTestEmail(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := s.contacts.GetUserByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("get user: %w", err)
	}

	if user.Email == "" {
		return "", fmt.Errorf("user %s has no email address", userID)
	}

	subject, body, err := s.renderer.MailCheck(user, s.now())
	if err != nil {
		return "", err
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.opts.SendTimeout)
	defer cancel()

	if err := s.sender.Send(sendCtx, user.Email, subject, body); err != nil {
		return "", fmt.Errorf("send test email: %w", err)
	}

	zlog.Logger.Info().Str("user_id", userID.String()).Msg("test email sent")

	return user.Email, nil
}

// deliver claims n, renders and sends it, and records the outcome. A
// returned error means n was left pending.
func (s *Service) deliver(ctx context.Context, n model.Notification, test bool) (model.Notification, error) {
	now := s.now().UTC()

	ok, err := s.repo.Claim(ctx, n.ID, now, now.Add(-s.opts.ClaimTTL))
	if err != nil {
		return n, fmt.Errorf("claim notification: %w", err)
	}
	if !ok {
		return n, ErrAlreadyClaimed
	}

	event, err := s.events.GetEventByID(ctx, n.EventID)
	if err != nil && !errors.Is(err, eventrepo.ErrEventNotFound) {
		return n, fmt.Errorf("get event: %w", err)
	}
	eventFound := err == nil

	contact, err := s.contacts.GetContactByID(ctx, n.ContactID)
	if err != nil && !errors.Is(err, contactrepo.ErrContactNotFound) {
		return n, fmt.Errorf("get contact: %w", err)
	}
	contactFound := err == nil

	if !eventFound || !contactFound {
		zlog.Logger.Warn().
			Str("id", n.ID.String()).
			Bool("event_found", eventFound).
			Bool("contact_found", contactFound).
			Msg("notification references are gone")
		return s.fail(ctx, n, model.ReasonMissingReference, test)
	}

	timezone := ""
	if user, err := s.contacts.GetUserByID(ctx, n.UserID); err != nil {
		zlog.Logger.Warn().Err(err).Str("user_id", n.UserID.String()).Msg("owner not found, using default timezone")
	} else {
		timezone = user.Timezone
	}

	renderFn := s.renderer.Reminder
	if test {
		renderFn = s.renderer.TestReminder
	}

	subject, body, err := renderFn(event, contact, timezone)
	if err != nil {
		return s.fail(ctx, n, err.Error(), test)
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.opts.SendTimeout)
	defer cancel()

	timer := metrics.StartSendTimer()
	err = s.sender.Send(sendCtx, contact.Email, subject, body)
	timer.ObserveDuration()

	if err != nil {
		zlog.Logger.Warn().Err(err).Str("id", n.ID.String()).Str("to", contact.Email).Msg("failed to send notification")
		return s.fail(ctx, n, err.Error(), test)
	}

	sentAt := s.now().UTC()
	if err := s.repo.MarkSent(ctx, n.ID, sentAt); err != nil {
		return n, fmt.Errorf("mark sent: %w", err)
	}

	n.Status = model.StatusSent
	n.SentAt = &sentAt
	n.ErrorMessage = nil

	zlog.Logger.Info().Str("id", n.ID.String()).Str("to", contact.Email).Bool("test", test).Msg("notification sent")
	s.recordOutcome(ctx, n, test)

	return n, nil
}

func (s *Service) fail(ctx context.Context, n model.Notification, reason string, test bool) (model.Notification, error) {
	if err := s.repo.MarkFailed(ctx, n.ID, reason); err != nil {
		return n, fmt.Errorf("mark failed: %w", err)
	}

	n.Status = model.StatusFailed
	n.SentAt = nil
	n.ErrorMessage = &reason

	s.recordOutcome(ctx, n, test)

	return n, nil
}

// recordOutcome refreshes the status cache and publishes the outcome. Both
// are best effort.
func (s *Service) recordOutcome(ctx context.Context, n model.Notification, test bool) {
	metrics.ObserveDelivery(n.Status)
	s.cacheStatus(ctx, n.ID, n.Status)

	if s.publisher == nil {
		return
	}

	msg := queue.OutcomeMessage{
		ID:             n.ID,
		EventID:        n.EventID,
		SubscriptionID: n.SubscriptionID,
		ContactID:      n.ContactID,
		UserID:         n.UserID,
		Status:         n.Status,
		ScheduledAt:    n.ScheduledAt,
		SentAt:         n.SentAt,
		Test:           test,
	}
	if n.ErrorMessage != nil {
		msg.Error = *n.ErrorMessage
	}

	if err := s.publisher.Publish(ctx, msg); err != nil {
		zlog.Logger.Error().Err(err).Str("id", n.ID.String()).Msg("failed to publish outcome")
	}
}
