package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/wb-go/wbf/zlog"

	"github.com/Juanes7222/AppNotify/internal/service/notification"
)

//go:generate mockgen -source=sweeper.go -destination=../mocks/worker/mock.go -package=mocks

type sweepService interface {
	Sweep(ctx context.Context) (notification.SweepResult, error)
}

// Sweeper runs the delivery sweep on a fixed interval. Ticks never overlap:
// a tick that is still running when the next one is due causes that next
// tick to be skipped.
type Sweeper struct {
	service  sweepService
	interval time.Duration

	mu     sync.Mutex
	c      *cron.Cron
	cancel context.CancelFunc
}

// NewSweeper creates a Sweeper. cron cannot schedule below one second, so
// shorter intervals run every second.
func NewSweeper(s sweepService, interval time.Duration) *Sweeper {
	if interval < time.Second {
		interval = time.Second
	}

	return &Sweeper{service: s, interval: interval}
}

// Start schedules the sweep. The first tick runs one interval after Start.
// Ticks run with a context derived from ctx.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.c != nil {
		return fmt.Errorf("sweeper already started")
	}

	runCtx, cancel := context.WithCancel(ctx)

	logger := cronLogger{}
	c := cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))

	if _, err := c.AddFunc("@every "+s.interval.String(), func() { s.Tick(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("schedule sweep: %w", err)
	}

	c.Start()
	s.c = c
	s.cancel = cancel

	zlog.Logger.Info().Dur("interval", s.interval).Msg("sweeper started")

	return nil
}

// Tick runs one sweep and logs its outcome.
func (s *Sweeper) Tick(ctx context.Context) {
	res, err := s.service.Sweep(ctx)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("sweep tick abandoned")
		return
	}

	zlog.Logger.Debug().
		Int("due", res.Due).
		Int("sent", res.Sent).
		Int("failed", res.Failed).
		Msg("sweep tick finished")
}

// Stop stops scheduling new ticks and waits for a running tick to finish.
// If ctx ends first, the running tick's context is cancelled and ctx.Err()
// is returned.
func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	c, cancel := s.c, s.cancel
	s.c, s.cancel = nil, nil
	s.mu.Unlock()

	if c == nil {
		return nil
	}
	defer cancel()

	select {
	case <-c.Stop().Done():
		zlog.Logger.Info().Msg("sweeper stopped")
		return nil
	case <-ctx.Done():
		zlog.Logger.Warn().Msg("sweeper stop timed out, cancelling running tick")
		return ctx.Err()
	}
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	zlog.Logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	zlog.Logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
