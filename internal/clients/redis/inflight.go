package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/examiner-backend/internal/pkg/logger"
)

// InflightGuard is a best-effort cross-process marker that one worker is
// grading a given key. Storage uniqueness stays the authority.
type InflightGuard interface {
	Acquire(ctx context.Context, key string) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
	// Wait blocks until key is released, expires, or ctx ends.
	Wait(ctx context.Context, key string) error
	Close() error
}

type Options struct {
	Addr      string
	Password  string
	DB        int
	Prefix    string
	TTL       time.Duration
	PollEvery time.Duration
}

type inflightGuard struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
	poll   time.Duration
}

// Deletes the key only while it still holds the caller's token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func NewInflightGuard(log *logger.Logger, opts Options) (InflightGuard, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.Addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	if opts.Prefix == "" {
		opts.Prefix = "examiner:inflight:"
	}
	if opts.TTL <= 0 {
		opts.TTL = 2 * time.Minute
	}
	if opts.PollEvery <= 0 {
		opts.PollEvery = 250 * time.Millisecond
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &inflightGuard{
		log:    log.With("service", "RedisInflightGuard"),
		rdb:    rdb,
		prefix: opts.Prefix,
		ttl:    opts.TTL,
		poll:   opts.PollEvery,
	}, nil
}

func (g *inflightGuard) Acquire(ctx context.Context, key string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := g.rdb.SetNX(ctx, g.prefix+key, token, g.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (g *inflightGuard) Release(ctx context.Context, key, token string) error {
	if token == "" {
		return nil
	}
	if err := releaseScript.Run(ctx, g.rdb, []string{g.prefix + key}, token).Err(); err != nil && err != goredis.Nil {
		return fmt.Errorf("redis release: %w", err)
	}
	return nil
}

func (g *inflightGuard) Wait(ctx context.Context, key string) error {
	deadline := time.NewTimer(g.ttl)
	defer deadline.Stop()
	tick := time.NewTicker(g.poll)
	defer tick.Stop()
	for {
		n, err := g.rdb.Exists(ctx, g.prefix+key).Result()
		if err != nil {
			return fmt.Errorf("redis exists: %w", err)
		}
		if n == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			g.log.Warn("In-flight guard wait timed out", "key", key, "ttl", g.ttl.String())
			return nil
		case <-tick.C:
		}
	}
}

func (g *inflightGuard) Close() error {
	return g.rdb.Close()
}
