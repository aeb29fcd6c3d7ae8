package main

import (
	"context"
	"fmt"

	_ "github.com/lib/pq"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/rabbitmq"
	"github.com/wb-go/wbf/redis"
	"github.com/wb-go/wbf/zlog"

	"github.com/Juanes7222/AppNotify/internal/config"
	"github.com/Juanes7222/AppNotify/internal/rabbitmq/queue"
	"github.com/Juanes7222/AppNotify/internal/render"
	contactrepo "github.com/Juanes7222/AppNotify/internal/repository/contact"
	eventrepo "github.com/Juanes7222/AppNotify/internal/repository/event"
	notifrepo "github.com/Juanes7222/AppNotify/internal/repository/notification"
	notifsvc "github.com/Juanes7222/AppNotify/internal/service/notification"
	"github.com/Juanes7222/AppNotify/pkg/email"
)

// app holds the wired dependencies shared by every command.
type app struct {
	cfg     *config.Config
	db      *dbpg.DB
	service *notifsvc.Service
	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	db, err := openDB(cfg.Database)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, func() error { return closeDB(db) })

	rdb := redis.New(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.Database)
	if err := rdb.Ping(ctx).Err(); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.closers = append(a.closers, rdb.Close)

	sender, err := newSender(cfg.Email)
	if err != nil {
		a.Close()
		return nil, err
	}

	renderer, err := render.New(cfg.Render.DefaultTimezone)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.service = notifsvc.NewService(
		notifrepo.NewRepository(db),
		eventrepo.NewRepository(db),
		contactrepo.NewRepository(db),
		sender,
		rdb,
		renderer,
		notifsvc.Options{
			BatchSize:   cfg.Sweep.BatchSize,
			ClaimTTL:    cfg.Sweep.ClaimTTL,
			SendTimeout: cfg.Email.Timeout,
			Retry:       cfg.Retry,
		},
	)

	if cfg.RabbitMQ.Enabled {
		q, conn, err := openOutcomeQueue(cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, conn.Close, q.Close)
		a.service.WithPublisher(q)
	}

	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to close resource")
		}
	}
	a.closers = nil
}

func openDB(cfg config.Database) (*dbpg.DB, error) {
	opts := &dbpg.Options{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}

	slaveDSNs := make([]string, 0, len(cfg.Slaves))
	for _, s := range cfg.Slaves {
		slaveDSNs = append(slaveDSNs, s.DSN())
	}

	db, err := dbpg.New(cfg.Master.DSN(), slaveDSNs, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func closeDB(db *dbpg.DB) error {
	if err := db.Master.Close(); err != nil {
		return fmt.Errorf("close master DB: %w", err)
	}

	for i, s := range db.Slaves {
		if err := s.Close(); err != nil {
			return fmt.Errorf("close slave DB %d: %w", i, err)
		}
	}

	return nil
}

func newSender(cfg config.Email) (notifsvc.Sender, error) {
	switch cfg.Provider {
	case config.ProviderResend:
		return email.NewResendClient(cfg.ResendAPIKey, cfg.From, cfg.ResendBaseURL, cfg.Timeout)
	default:
		c := email.NewClient(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password, cfg.From, cfg.Timeout)
		if cfg.Username == "" || cfg.Password == "" {
			zlog.Logger.Warn().Msg("SMTP credentials not configured, emails will fail")
		}
		return c, nil
	}
}

func openOutcomeQueue(cfg *config.Config) (*queue.OutcomeQueue, *rabbitmq.Connection, error) {
	conn, err := queue.Connect(cfg.RabbitMQ)
	if err != nil {
		return nil, nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q, err := queue.NewOutcomeQueue(ch, cfg.RabbitMQ, cfg.Retry)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, err
	}

	go func() {
		if err, ok := <-conn.NotifyClose(make(chan *amqp.Error, 1)); ok {
			zlog.Logger.Error().Err(err).Msg("rabbitmq connection closed")
		}
	}()

	return q, conn, nil
}
