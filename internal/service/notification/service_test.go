package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"

	mocks "github.com/Juanes7222/AppNotify/internal/mocks/service/notification"
	"github.com/Juanes7222/AppNotify/internal/model"
	"github.com/Juanes7222/AppNotify/internal/render"
	contactrepo "github.com/Juanes7222/AppNotify/internal/repository/contact"
	eventrepo "github.com/Juanes7222/AppNotify/internal/repository/event"
	notifrepo "github.com/Juanes7222/AppNotify/internal/repository/notification"
)

var fixedNow = time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC)

type deps struct {
	repo      *mocks.MocknotificationRepository
	events    *mocks.MockeventRepository
	contacts  *mocks.MockcontactRepository
	sender    *mocks.MockSender
	cache     *mocks.Mockcache
	publisher *mocks.MockoutcomePublisher
}

func newTestService(t *testing.T) (*Service, deps) {
	t.Helper()

	ctrl := gomock.NewController(t)

	d := deps{
		repo:      mocks.NewMocknotificationRepository(ctrl),
		events:    mocks.NewMockeventRepository(ctrl),
		contacts:  mocks.NewMockcontactRepository(ctrl),
		sender:    mocks.NewMockSender(ctrl),
		cache:     mocks.NewMockcache(ctrl),
		publisher: mocks.NewMockoutcomePublisher(ctrl),
	}

	r, err := render.New("UTC")
	require.NoError(t, err)

	svc := NewService(d.repo, d.events, d.contacts, d.sender, d.cache, r, Options{}).
		WithPublisher(d.publisher).
		WithClock(func() time.Time { return fixedNow })

	return svc, d
}

func relative(value int, unit string) model.ReminderInterval {
	return model.ReminderInterval{Value: value, Unit: unit}
}

func custom(at time.Time) model.ReminderInterval {
	return model.ReminderInterval{Unit: model.UnitCustom, CustomDate: &at}
}

func TestService_Generate_SkipsPassedReminder(t *testing.T) {
	svc, _ := newTestService(t)

	event := model.Event{
		ID:                uuid.New(),
		EventDate:         fixedNow.Add(10 * time.Minute),
		ReminderIntervals: []model.ReminderInterval{relative(15, model.UnitMinutes)},
	}
	sub := model.Subscription{ID: uuid.New(), ContactID: uuid.New()}

	created, err := svc.Generate(context.Background(), event, sub, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestService_Generate_CreatesPending(t *testing.T) {
	svc, d := newTestService(t)

	userID := uuid.New()
	event := model.Event{
		ID:                uuid.New(),
		EventDate:         fixedNow.Add(time.Hour),
		ReminderIntervals: []model.ReminderInterval{relative(30, model.UnitMinutes)},
	}
	sub := model.Subscription{ID: uuid.New(), EventID: event.ID, ContactID: uuid.New()}

	var stored model.Notification
	d.repo.EXPECT().CreateNotification(gomock.Any(), gomock.AssignableToTypeOf(model.Notification{})).
		DoAndReturn(func(_ context.Context, n model.Notification) error {
			stored = n
			return nil
		})
	d.cache.EXPECT().SetWithRetry(gomock.Any(), gomock.Any(), gomock.Any(), model.StatusPending).Return(nil)

	created, err := svc.Generate(context.Background(), event, sub, userID)
	require.NoError(t, err)
	require.Len(t, created, 1)

	n := created[0]
	assert.Equal(t, stored, n)
	assert.NotEqual(t, uuid.Nil, n.ID)
	assert.Equal(t, event.ID, n.EventID)
	assert.Equal(t, sub.ID, n.SubscriptionID)
	assert.Equal(t, sub.ContactID, n.ContactID)
	assert.Equal(t, userID, n.UserID)
	assert.Equal(t, fixedNow.Add(30*time.Minute), n.ScheduledAt)
	assert.Equal(t, model.StatusPending, n.Status)
	assert.Nil(t, n.SentAt)
	assert.Nil(t, n.ErrorMessage)
	assert.Equal(t, fixedNow, n.CreatedAt)
}

func TestService_Generate_GraceBoundary(t *testing.T) {
	svc, d := newTestService(t)

	event := model.Event{
		ID:        uuid.New(),
		EventDate: fixedNow.Add(time.Hour),
		ReminderIntervals: []model.ReminderInterval{
			custom(fixedNow.Add(-60 * time.Second)),
			custom(fixedNow.Add(-61 * time.Second)),
		},
	}

	d.repo.EXPECT().CreateNotification(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	d.cache.EXPECT().SetWithRetry(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(1)

	created, err := svc.Generate(context.Background(), event, model.Subscription{ID: uuid.New()}, uuid.New())
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, fixedNow.Add(-60*time.Second), created[0].ScheduledAt)
}

func TestService_Generate_UnknownUnitFiresAtEventTime(t *testing.T) {
	svc, d := newTestService(t)

	event := model.Event{
		ID:                uuid.New(),
		EventDate:         fixedNow.Add(2 * time.Hour),
		ReminderIntervals: []model.ReminderInterval{relative(3, "fortnights")},
	}

	d.repo.EXPECT().CreateNotification(gomock.Any(), gomock.Any()).Return(nil)
	d.cache.EXPECT().SetWithRetry(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	created, err := svc.Generate(context.Background(), event, model.Subscription{ID: uuid.New()}, uuid.New())
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, event.EventDate, created[0].ScheduledAt)
}

func TestService_Generate_StoreErrorAborts(t *testing.T) {
	svc, d := newTestService(t)

	event := model.Event{
		ID:        uuid.New(),
		EventDate: fixedNow.Add(48 * time.Hour),
		ReminderIntervals: []model.ReminderInterval{
			relative(1, model.UnitDays),
			relative(2, model.UnitHours),
			relative(30, model.UnitMinutes),
		},
	}

	gomock.InOrder(
		d.repo.EXPECT().CreateNotification(gomock.Any(), gomock.Any()).Return(nil),
		d.repo.EXPECT().CreateNotification(gomock.Any(), gomock.Any()).Return(errors.New("connection reset")),
	)
	d.cache.EXPECT().SetWithRetry(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	created, err := svc.Generate(context.Background(), event, model.Subscription{ID: uuid.New()}, uuid.New())
	assert.ErrorContains(t, err, "connection reset")
	require.Len(t, created, 1)
	assert.Equal(t, fixedNow.Add(24*time.Hour), created[0].ScheduledAt)
}

func TestService_Generate_CacheFailureIsIgnored(t *testing.T) {
	svc, d := newTestService(t)

	event := model.Event{
		ID:                uuid.New(),
		EventDate:         fixedNow.Add(time.Hour),
		ReminderIntervals: []model.ReminderInterval{relative(1, model.UnitHours)},
	}

	d.repo.EXPECT().CreateNotification(gomock.Any(), gomock.Any()).Return(nil)
	d.cache.EXPECT().SetWithRetry(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	created, err := svc.Generate(context.Background(), event, model.Subscription{ID: uuid.New()}, uuid.New())
	require.NoError(t, err)
	assert.Len(t, created, 1)
}

func TestService_Regenerate_Idempotent(t *testing.T) {
	svc, d := newTestService(t)

	userID := uuid.New()
	event := model.Event{
		ID:        uuid.New(),
		EventDate: fixedNow.Add(72 * time.Hour),
		ReminderIntervals: []model.ReminderInterval{
			relative(1, model.UnitDays),
			relative(1, model.UnitWeeks),
			relative(15, model.UnitMinutes),
		},
	}
	subs := []model.Subscription{
		{ID: uuid.New(), EventID: event.ID, ContactID: uuid.New()},
		{ID: uuid.New(), EventID: event.ID, ContactID: uuid.New()},
	}

	type key struct {
		sub uuid.UUID
		at  time.Time
	}
	runs := make([]map[key]int, 0, 2)
	current := map[key]int{}

	gomock.InOrder(
		d.repo.EXPECT().DeletePendingByEvent(gomock.Any(), event.ID).Return(int64(0), nil),
		d.repo.EXPECT().DeletePendingByEvent(gomock.Any(), event.ID).Return(int64(4), nil),
	)
	d.events.EXPECT().GetEventByID(gomock.Any(), event.ID).Return(event, nil).Times(2)
	d.events.EXPECT().GetSubscriptionsByEvent(gomock.Any(), event.ID).Return(subs, nil).Times(2)
	d.repo.EXPECT().CreateNotification(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n model.Notification) error {
			current[key{n.SubscriptionID, n.ScheduledAt}]++
			return nil
		}).Times(8)
	d.cache.EXPECT().SetWithRetry(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(8)

	for i := 0; i < 2; i++ {
		require.NoError(t, svc.Regenerate(context.Background(), event.ID, userID))
		runs = append(runs, current)
		current = map[key]int{}
	}

	// The one-week reminder is already in the past; the other two remain.
	assert.Len(t, runs[0], 4)
	assert.Equal(t, runs[0], runs[1])
	assert.Equal(t, 1, runs[0][key{subs[0].ID, fixedNow.Add(48 * time.Hour)}])
	assert.Equal(t, 1, runs[0][key{subs[1].ID, fixedNow.Add(72*time.Hour - 15*time.Minute)}])
}

func TestService_Regenerate_EventGone(t *testing.T) {
	svc, d := newTestService(t)

	eventID := uuid.New()

	d.repo.EXPECT().DeletePendingByEvent(gomock.Any(), eventID).Return(int64(2), nil)
	d.events.EXPECT().GetEventByID(gomock.Any(), eventID).Return(model.Event{}, eventrepo.ErrEventNotFound)

	assert.NoError(t, svc.Regenerate(context.Background(), eventID, uuid.New()))
}

func TestService_Regenerate_DeleteError(t *testing.T) {
	svc, d := newTestService(t)

	eventID := uuid.New()
	d.repo.EXPECT().DeletePendingByEvent(gomock.Any(), eventID).Return(int64(0), errors.New("db error"))

	assert.ErrorContains(t, svc.Regenerate(context.Background(), eventID, uuid.New()), "db error")
}

func TestService_OnEventUpdated(t *testing.T) {
	svc, d := newTestService(t)

	before := model.Event{
		ID:                uuid.New(),
		Title:             "Standup",
		EventDate:         fixedNow.Add(time.Hour),
		ReminderIntervals: []model.ReminderInterval{relative(10, model.UnitMinutes)},
	}

	renamed := before
	renamed.Title = "Daily"
	require.NoError(t, svc.OnEventUpdated(context.Background(), before, renamed, uuid.New()))

	moved := before
	moved.EventDate = before.EventDate.Add(time.Hour)

	d.repo.EXPECT().DeletePendingByEvent(gomock.Any(), before.ID).Return(int64(1), nil)
	d.events.EXPECT().GetEventByID(gomock.Any(), before.ID).Return(moved, nil)
	d.events.EXPECT().GetSubscriptionsByEvent(gomock.Any(), before.ID).Return(nil, nil)

	require.NoError(t, svc.OnEventUpdated(context.Background(), before, moved, uuid.New()))
}

func TestService_DeleteForReferences(t *testing.T) {
	svc, d := newTestService(t)

	id := uuid.New()

	d.repo.EXPECT().DeleteByReference(gomock.Any(), notifrepo.ByEvent, id).Return(int64(3), nil)
	d.repo.EXPECT().DeleteByReference(gomock.Any(), notifrepo.BySubscription, id).Return(int64(2), nil)
	d.repo.EXPECT().DeleteByReference(gomock.Any(), notifrepo.ByContact, id).Return(int64(0), errors.New("db error"))

	n, err := svc.DeleteForEvent(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = svc.DeleteForSubscription(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = svc.DeleteForContact(context.Background(), id)
	assert.Error(t, err)
}

func TestService_List_DefaultLimit(t *testing.T) {
	svc, d := newTestService(t)

	userID := uuid.New()
	views := []model.NotificationView{{EventTitle: "Standup"}}

	d.repo.EXPECT().ListByUser(gomock.Any(), userID, model.StatusSent, DefaultListLimit).Return(views, nil)

	got, err := svc.List(context.Background(), userID, model.StatusSent, 0)
	require.NoError(t, err)
	assert.Equal(t, views, got)
}

func TestService_Stats(t *testing.T) {
	svc, d := newTestService(t)

	userID := uuid.New()
	d.repo.EXPECT().CountByStatus(gomock.Any(), userID).Return(model.Stats{Pending: 2, Sent: 5, Failed: 1}, nil)

	stats, err := svc.Stats(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, model.Stats{Pending: 2, Sent: 5, Failed: 1}, stats)
}

func TestService_GetNotificationStatusByID_CacheHit(t *testing.T) {
	svc, d := newTestService(t)

	id := uuid.New()
	strategy := retry.Strategy{}

	d.cache.EXPECT().GetWithRetry(gomock.Any(), strategy, id.String()).Return(model.StatusPending, nil)

	status, err := svc.GetNotificationStatusByID(context.Background(), strategy, id)
	assert.NoError(t, err)
	assert.Equal(t, model.StatusPending, status)
}

func TestService_GetNotificationStatusByID_CacheMiss(t *testing.T) {
	svc, d := newTestService(t)

	id := uuid.New()
	strategy := retry.Strategy{}

	d.cache.EXPECT().GetWithRetry(gomock.Any(), strategy, id.String()).Return("", redis.Nil)
	d.repo.EXPECT().GetNotificationStatusByID(gomock.Any(), id).Return(model.StatusSent, nil)
	d.cache.EXPECT().SetWithRetry(gomock.Any(), gomock.Any(), id.String(), model.StatusSent).Return(nil)

	status, err := svc.GetNotificationStatusByID(context.Background(), strategy, id)
	assert.NoError(t, err)
	assert.Equal(t, model.StatusSent, status)
}

func TestService_GetNotificationStatusByID_CacheErrorFallsBack(t *testing.T) {
	svc, d := newTestService(t)

	id := uuid.New()
	strategy := retry.Strategy{}

	d.cache.EXPECT().GetWithRetry(gomock.Any(), strategy, id.String()).Return("", errors.New("redis down"))
	d.repo.EXPECT().GetNotificationStatusByID(gomock.Any(), id).Return("", notifrepo.ErrNotificationNotFound)

	_, err := svc.GetNotificationStatusByID(context.Background(), strategy, id)
	assert.ErrorIs(t, err, notifrepo.ErrNotificationNotFound)
}

func TestService_SendTestEmail(t *testing.T) {
	svc, d := newTestService(t)

	userID := uuid.New()
	user := model.User{ID: userID, Email: "owner@example.com", DisplayName: "Owner"}

	d.contacts.EXPECT().GetUserByID(gomock.Any(), userID).Return(user, nil)
	d.sender.EXPECT().Send(gomock.Any(), "owner@example.com", "Correo de Prueba - RemindSender", gomock.Any()).Return(nil)

	to, err := svc.SendTestEmail(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", to)
}

func TestService_SendTestEmail_UserNotFound(t *testing.T) {
	svc, d := newTestService(t)

	userID := uuid.New()
	d.contacts.EXPECT().GetUserByID(gomock.Any(), userID).Return(model.User{}, contactrepo.ErrUserNotFound)

	_, err := svc.SendTestEmail(context.Background(), userID)
	assert.ErrorIs(t, err, contactrepo.ErrUserNotFound)
}

func TestService_SendTestEmail_SendError(t *testing.T) {
	svc, d := newTestService(t)

	userID := uuid.New()
	d.contacts.EXPECT().GetUserByID(gomock.Any(), userID).Return(model.User{Email: "owner@example.com"}, nil)
	d.sender.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("535 auth"))

	_, err := svc.SendTestEmail(context.Background(), userID)
	assert.ErrorContains(t, err, "535 auth")
}

func TestOptions_WithDefaults(t *testing.T) {
	o := Options{}.withDefaults()

	assert.Equal(t, DefaultBatchSize, o.BatchSize)
	assert.Equal(t, DefaultClaimTTL, o.ClaimTTL)
	assert.Equal(t, DefaultSendTimeout, o.SendTimeout)

	o = Options{BatchSize: 10}.withDefaults()
	assert.Equal(t, 10, o.BatchSize)
}
