// Package redis contains the persistence layer backed by a Redis-compatible key-value store.
package redis

import (
	"context"
	"log/slog"
	"time"

	"keyauth/config"
	"keyauth/internal/domain/lifecycle"
	"keyauth/internal/errors"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

const (
	poolMonitorInterval = 5 * time.Second
	noRetries           = -1
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// New builds the store from config and ties its connection to the application lifecycle.
func New(params Params) (*UserStore, error) {
	client, err := NewClient(params.Config.Redis)
	if err != nil {
		return nil, err
	}

	store := NewUserStore(client, params.Logger)
	monitorCtx, cancelMonitor := context.WithCancel(context.Background())

	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := store.Connect(ctx); err != nil {
				return err
			}

			go monitorPool(monitorCtx, params.Logger, client, poolMonitorInterval)

			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancelMonitor()

			ctx, cancel := context.WithTimeout(stopCtx, lifecycle.DefaultTimeout)
			defer cancel()

			store.Shutdown(ctx)

			return nil
		},
	})

	return store, nil
}

// NewClient creates a go-redis client. A configured URL takes precedence over the discrete fields.
// Commands are never retried by the client; a failure surfaces on the first attempt.
func NewClient(cfg *config.RedisConfig) (*goredis.Client, error) {
	if cfg == nil {
		return nil, errors.New("redis config is required")
	}

	if cfg.URL != "" {
		opts, err := goredis.ParseURL(cfg.URL)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse redis url")
		}

		opts.MaxRetries = noRetries

		return goredis.NewClient(opts), nil
	}

	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}

	return goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
		MaxRetries:   noRetries,
	}), nil
}

func monitorPool(ctx context.Context, logger *slog.Logger, client *goredis.Client, interval time.Duration) {
	if logger == nil || client == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := client.PoolStats()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cur := client.PoolStats()
			timeoutDelta := cur.Timeouts - prev.Timeouts
			missDelta := cur.Misses - prev.Misses

			if timeoutDelta > 0 || missDelta > 0 {
				attrs := []slog.Attr{
					slog.Any("timeoutDelta", timeoutDelta),
					slog.Any("missDelta", missDelta),
					slog.Any("totalConns", cur.TotalConns),
					slog.Any("idleConns", cur.IdleConns),
					slog.Any("staleConns", cur.StaleConns),
				}
				if timeoutDelta > 0 {
					logger.LogAttrs(ctx, slog.LevelWarn, "Redis pool wait timed out", attrs...)
				} else {
					logger.LogAttrs(ctx, slog.LevelDebug, "Redis pool dialed new connections", attrs...)
				}
			}

			prev = cur
		}
	}
}
