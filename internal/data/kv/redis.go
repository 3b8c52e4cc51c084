package kv

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/souling-backend/internal/platform/logger"
)

const redisScanPageSize = 100

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type redisEngine struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

// NewRedis dials and pings the server. Each record is its own key; creation
// order is kept in a per-collection list.
func NewRedis(ctx context.Context, cfg RedisConfig, log *logger.Logger) (Engine, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = "souling"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisEngine{
		log:    log.With("repo", "RedisEngine"),
		rdb:    rdb,
		prefix: prefix,
	}, nil
}

func (r *redisEngine) recordKey(collection, id string) string {
	return r.prefix + ":" + collection + ":r:" + id
}

func (r *redisEngine) orderKey(collection string) string {
	return r.prefix + ":" + collection + ":order"
}

func (r *redisEngine) Insert(ctx context.Context, collection, id string, data []byte) error {
	key := r.recordKey(collection, id)
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := r.rdb.Watch(ctx, func(tx *goredis.Tx) error {
			n, err := tx.Exists(ctx, key).Result()
			if err != nil {
				return err
			}
			if n > 0 {
				return ErrDuplicateID
			}
			_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
				p.Set(ctx, key, data, 0)
				p.RPush(ctx, r.orderKey(collection), id)
				return nil
			})
			return err
		}, key)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, ErrDuplicateID) {
			return fmt.Errorf("insert %s/%s: %w", collection, id, err)
		}
		return err
	}
	return ErrConflict
}

func (r *redisEngine) Get(ctx context.Context, collection, id string) ([]byte, error) {
	b, err := r.rdb.Get(ctx, r.recordKey(collection, id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return b, nil
}

func (r *redisEngine) Scan(ctx context.Context, collection string) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		var start int64
		for {
			ids, err := r.rdb.LRange(ctx, r.orderKey(collection), start, start+redisScanPageSize-1).Result()
			if err != nil {
				yield(Record{}, fmt.Errorf("scan %s: %w", collection, err))
				return
			}
			if len(ids) == 0 {
				return
			}
			keys := make([]string, len(ids))
			for i, id := range ids {
				keys[i] = r.recordKey(collection, id)
			}
			vals, err := r.rdb.MGet(ctx, keys...).Result()
			if err != nil {
				yield(Record{}, fmt.Errorf("scan %s: %w", collection, err))
				return
			}
			for i, v := range vals {
				s, ok := v.(string)
				if !ok {
					// removed between LRANGE and MGET
					continue
				}
				if !yield(Record{ID: ids[i], Data: []byte(s)}, nil) {
					return
				}
			}
			if len(ids) < redisScanPageSize {
				return
			}
			start += int64(len(ids))
		}
	}
}

func (r *redisEngine) Update(ctx context.Context, collection, id string, fn MutateFunc) ([]byte, error) {
	key := r.recordKey(collection, id)
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		var next []byte
		err := r.rdb.Watch(ctx, func(tx *goredis.Tx) error {
			current, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, goredis.Nil) {
				return ErrNotFound
			}
			if err != nil {
				return err
			}
			next, err = fn(current)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
				p.Set(ctx, key, next, 0)
				return nil
			})
			return err
		}, key)
		if errors.Is(err, goredis.TxFailedErr) {
			r.log.Debug("optimistic update lost race, retrying", "collection", collection, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, err
		}
		return next, nil
	}
	return nil, ErrConflict
}

func (r *redisEngine) Delete(ctx context.Context, collection, id string) error {
	_, err := r.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, r.recordKey(collection, id))
		p.LRem(ctx, r.orderKey(collection), 0, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (r *redisEngine) Close() error {
	return r.rdb.Close()
}
