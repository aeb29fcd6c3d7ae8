package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mocks "github.com/Juanes7222/AppNotify/internal/mocks/worker"
	"github.com/Juanes7222/AppNotify/internal/service/notification"
)

func TestSweeper_Tick(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMocksweepService(ctrl)
	s := NewSweeper(svc, time.Minute)

	svc.EXPECT().Sweep(gomock.Any()).Return(notification.SweepResult{Due: 2, Sent: 2}, nil)
	s.Tick(context.Background())

	svc.EXPECT().Sweep(gomock.Any()).Return(notification.SweepResult{}, errors.New("db down"))
	s.Tick(context.Background())
}

func TestNewSweeper_MinimumInterval(t *testing.T) {
	s := NewSweeper(nil, 10*time.Millisecond)
	assert.Equal(t, time.Second, s.interval)
}

func TestSweeper_StartRunsTicks(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMocksweepService(ctrl)
	s := NewSweeper(svc, time.Second)

	var calls atomic.Int32
	svc.EXPECT().Sweep(gomock.Any()).DoAndReturn(func(context.Context) (notification.SweepResult, error) {
		calls.Add(1)
		return notification.SweepResult{}, nil
	}).MinTimes(1)

	require.NoError(t, s.Start(context.Background()))
	assert.Error(t, s.Start(context.Background()))

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func TestSweeper_StopTimesOutAndCancelsTick(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMocksweepService(ctrl)
	s := NewSweeper(svc, time.Second)

	started := make(chan struct{})
	cancelled := make(chan struct{})

	svc.EXPECT().Sweep(gomock.Any()).DoAndReturn(func(ctx context.Context) (notification.SweepResult, error) {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return notification.SweepResult{}, ctx.Err()
	})

	require.NoError(t, s.Start(context.Background()))

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("sweep did not start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := s.Stop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("running tick was not cancelled")
	}
}

func TestSweeper_StopWithoutStart(t *testing.T) {
	s := NewSweeper(nil, time.Minute)
	assert.NoError(t, s.Stop(context.Background()))
}
