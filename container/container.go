// Package container wires the stateful resources the commands share: the
// session store backend and the services sitting on it. Commands build the
// stateless pipeline pieces themselves.
package container

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/multierr"

	"github.com/yusufsyaifudin/layang/config"
	"github.com/yusufsyaifudin/layang/internal/svc/tablesvc"
	"github.com/yusufsyaifudin/layang/pkg/cache"
)

type Container struct {
	sessionCache cache.Cache
	tableSvc     tablesvc.Service
	redisClient  redis.UniversalClient
}

// Setup builds the session store from config. Type inmemory needs nothing,
// type redis dials and pings the server before anything else runs.
func Setup(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{}

	switch cfg.SessionStore.Type {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.SessionStore.Address,
			Password: cfg.SessionStore.Password,
			DB:       cfg.SessionStore.DB,
		})

		err := client.Ping(ctx).Err()
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("cannot reach redis %s: %w", cfg.SessionStore.Address, err)
		}

		redisCache, err := cache.NewRedis(cache.RedisConfig{DB: client})
		if err != nil {
			_ = client.Close()
			return nil, err
		}

		c.redisClient = client
		c.sessionCache = redisCache

	case "inmemory", "":
		mem, err := cache.NewInMemory()
		if err != nil {
			return nil, err
		}

		c.sessionCache = mem

	default:
		return nil, fmt.Errorf("unknown session store type %s", cfg.SessionStore.Type)
	}

	tableSvc, err := tablesvc.New(tablesvc.DefaultServiceConfig{
		Cache: c.sessionCache,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot setup table service: %w", err)
	}

	c.tableSvc = tableSvc
	return c, nil
}

func (c *Container) TableService() tablesvc.Service {
	return c.tableSvc
}

func (c *Container) SessionCache() cache.Cache {
	return c.sessionCache
}

func (c *Container) Close() error {
	var err error
	if c.redisClient != nil {
		err = multierr.Append(err, c.redisClient.Close())
	}
	return err
}
