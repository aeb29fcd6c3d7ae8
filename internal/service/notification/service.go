package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/Juanes7222/AppNotify/internal/model"
	"github.com/Juanes7222/AppNotify/internal/rabbitmq/queue"
	"github.com/Juanes7222/AppNotify/internal/render"
	notifrepo "github.com/Juanes7222/AppNotify/internal/repository/notification"
)

//go:generate mockgen -source=service.go -destination=../../mocks/service/notification/mock.go -package=mocks

const (
	// CreationGrace is how late a fire time may be and still produce a notification.
	CreationGrace = 60 * time.Second

	DefaultBatchSize   = 100
	DefaultClaimTTL    = 2 * time.Minute
	DefaultSendTimeout = 30 * time.Second
	DefaultListLimit   = 100
)

var ErrAlreadyClaimed = errors.New("notification is being delivered")

type notificationRepository interface {
	CreateNotification(ctx context.Context, n model.Notification) error
	DeletePendingByEvent(ctx context.Context, eventID uuid.UUID) (int64, error)
	DeleteByReference(ctx context.Context, ref notifrepo.Reference, id uuid.UUID) (int64, error)
	GetDueNotifications(ctx context.Context, now, claimCutoff time.Time, limit int) ([]model.Notification, error)
	Claim(ctx context.Context, id uuid.UUID, now, claimCutoff time.Time) (bool, error)
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	GetNotificationByID(ctx context.Context, id, userID uuid.UUID) (model.Notification, error)
	GetNotificationStatusByID(ctx context.Context, id uuid.UUID) (string, error)
	ListByUser(ctx context.Context, userID uuid.UUID, status string, limit int) ([]model.NotificationView, error)
	CountByStatus(ctx context.Context, userID uuid.UUID) (model.Stats, error)
}

type eventRepository interface {
	GetEventByID(ctx context.Context, id uuid.UUID) (model.Event, error)
	GetSubscriptionsByEvent(ctx context.Context, eventID uuid.UUID) ([]model.Subscription, error)
}

type contactRepository interface {
	GetContactByID(ctx context.Context, id uuid.UUID) (model.Contact, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error)
}

// Sender delivers a rendered HTML email.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type cache interface {
	SetWithRetry(ctx context.Context, strategy retry.Strategy, key string, value interface{}) error
	GetWithRetry(ctx context.Context, strategy retry.Strategy, key string) (string, error)
}

type outcomePublisher interface {
	Publish(ctx context.Context, msg queue.OutcomeMessage) error
}

// Options tunes the sweep and delivery path. Zero values use the defaults.
type Options struct {
	BatchSize   int
	ClaimTTL    time.Duration
	SendTimeout time.Duration
	Retry       retry.Strategy
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.ClaimTTL <= 0 {
		o.ClaimTTL = DefaultClaimTTL
	}
	if o.SendTimeout <= 0 {
		o.SendTimeout = DefaultSendTimeout
	}

	return o
}

// Service owns the notification lifecycle: creation, regeneration after an
// event edit, and delivery.
type Service struct {
	repo      notificationRepository
	events    eventRepository
	contacts  contactRepository
	sender    Sender
	cache     cache
	publisher outcomePublisher
	renderer  *render.Renderer
	opts      Options
	now       func() time.Time
}

// NewService creates a Service.
func NewService(
	repo notificationRepository,
	events eventRepository,
	contacts contactRepository,
	sender Sender,
	cache cache,
	renderer *render.Renderer,
	opts Options,
) *Service {
	return &Service{
		repo:      repo,
		events:    events,
		contacts:  contacts,
		sender:    sender,
		cache:     cache,
		renderer:  renderer,
		opts:      opts.withDefaults(),
		now:       time.Now,
	}
}

// WithPublisher enables publishing of delivery outcomes.
func (s *Service) WithPublisher(p outcomePublisher) *Service {
	s.publisher = p
	return s
}

// WithClock replaces the clock used for creation gating and timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// List returns a user's notifications enriched with event and contact
// details. An empty status lists all; a non-positive limit uses DefaultListLimit.
func (s *Service) List(ctx context.Context, userID uuid.UUID, status string, limit int) ([]model.NotificationView, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	views, err := s.repo.ListByUser(ctx, userID, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	return views, nil
}

// Stats returns the user's notification counts by status.
func (s *Service) Stats(ctx context.Context, userID uuid.UUID) (model.Stats, error) {
	stats, err := s.repo.CountByStatus(ctx, userID)
	if err != nil {
		return model.Stats{}, fmt.Errorf("count notifications: %w", err)
	}

	return stats, nil
}

// GetNotificationStatusByID returns the status of a notification, reading
// through the cache.
func (s *Service) GetNotificationStatusByID(ctx context.Context, strategy retry.Strategy, id uuid.UUID) (string, error) {
	status, err := s.cache.GetWithRetry(ctx, strategy, id.String())
	if err == nil {
		return status, nil
	}

	if !errors.Is(err, redis.Nil) {
		zlog.Logger.Warn().Err(err).Str("id", id.String()).Msg("failed to get notification status from cache")
	}

	status, err = s.repo.GetNotificationStatusByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get notification status: %w", err)
	}

	s.cacheStatus(ctx, id, status)

	return status, nil
}

func (s *Service) cacheStatus(ctx context.Context, id uuid.UUID, status string) {
	if err := s.cache.SetWithRetry(ctx, s.opts.Retry, id.String(), status); err != nil {
		zlog.Logger.Warn().Err(err).Str("id", id.String()).Msg("failed to cache notification status")
	}
}
