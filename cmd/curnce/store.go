package main

import (
	"context"
	"fmt"
	"os"

	"github.com/curnce/curnce-client/internal/config"
	"github.com/curnce/curnce-client/session"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// openStore builds the configured session store. The returned func releases
// any connection it holds.
func openStore(ctx context.Context, cfg config.StoreConfig) (session.Store, func(), error) {
	switch cfg.GetSessionStore() {
	case config.StoreMemory:
		return session.NewMemoryStore(), func() {}, nil

	case config.StoreFile:
		store := session.NewFileStore(cfg.GetSessionFile(), cfg.GetSessionKey())
		log.Debug().Str("path", store.Path()).Bool("encrypted", cfg.GetSessionKey() != "").Msg("Using file session store")
		return store, func() {}, nil

	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.GetRedisAddr()})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.GetRedisAddr(), err)
		}

		id := cfg.GetSessionID()
		if id == "" {
			id = uuid.NewString()
			fmt.Fprintf(os.Stderr, "New session %s; set CURNCE_SESSION_ID=%s to reuse it.\n", id, id)
		}
		store := session.NewRedisStore(rdb, cfg.GetRedisPrefix(), id, cfg.GetSessionTTL())
		return store, func() {
			if err := rdb.Close(); err != nil {
				log.Err(err).Msg("Failed to close redis client")
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.GetSessionStore())
	}
}
