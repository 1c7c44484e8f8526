package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"gigbook/internal/events"
	"gigbook/internal/instances"
	"gigbook/shared/go/config"
)

// syncTimeout bounds a single scheduled or startup sync run.
const syncTimeout = 5 * time.Minute

// newSynchronizer builds the instance synchronizer. Redis serializes syncs
// across processes when configured; otherwise an in-process mutex is used.
// The returned cleanup closes any clients it opened.
func newSynchronizer(ctx context.Context, cfg *config.Config, settings *config.Settings, st instances.Store) (*instances.Synchronizer, func(), error) {
	opts := []instances.Option{
		instances.WithHorizonDays(settings.HorizonDays),
		instances.WithLogger(log.Logger.With().Str("component", "instances").Logger()),
	}
	cleanup := func() {}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		opts = append(opts, instances.WithLocker(instances.NewRedisLocker(client)))
		cleanup = func() { _ = client.Close() }
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Using Redis sync locks")
	} else {
		log.Info().Msg("REDIS_ADDR not set, using in-process sync locks")
	}

	if cfg.Events.URL != "" {
		opts = append(opts, instances.WithPublisher(events.NewPublisher(cfg.Events.URL)))
		log.Info().Str("queue", events.ShowsGeneratedQueue).Msg("Publishing show events")
	}

	return instances.NewSynchronizer(st, opts...), cleanup, nil
}

// runSync generates upcoming instances for every active gig. The
// synchronizer logs the summary itself.
func runSync(ctx context.Context, syncer *instances.Synchronizer) {
	ctx, cancel := context.WithTimeout(ctx, syncTimeout)
	defer cancel()

	if _, err := syncer.SyncAll(ctx); err != nil {
		log.Error().Err(err).Msg("Instance sync failed")
	}
}

// startScheduler runs runSync on spec until the returned stop function is called.
func startScheduler(ctx context.Context, spec string, syncer *instances.Synchronizer) (func(), error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { runSync(ctx, syncer) }); err != nil {
		return nil, fmt.Errorf("schedule sync %q: %w", spec, err)
	}
	c.Start()
	log.Info().Str("schedule", spec).Msg("Instance sync scheduled")

	return func() {
		<-c.Stop().Done()
	}, nil
}
