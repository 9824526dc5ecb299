package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/rodrigogk87/crowdfunding/internal/config"
)

// RedisDB go-redis 实现，所有 key 加上前缀
type RedisDB struct {
	rdb    *redis.Client
	prefix string
}

// OpenRedis 连接 redis 并检查可用性
func OpenRedis(cfg config.StorageConfig) (*RedisDB, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	return &RedisDB{rdb: rdb, prefix: cfg.Prefix}, nil
}

func (r *RedisDB) key(k []byte) string {
	return r.prefix + string(k)
}

func (r *RedisDB) Get(key []byte) ([]byte, error) {
	value, err := r.rdb.Get(context.Background(), r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return value, err
}

func (r *RedisDB) Has(key []byte) (bool, error) {
	n, err := r.rdb.Exists(context.Background(), r.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisDB) Put(key, value []byte) error {
	return r.rdb.Set(context.Background(), r.key(key), value, 0).Err()
}

func (r *RedisDB) Delete(key []byte) error {
	return r.rdb.Del(context.Background(), r.key(key)).Err()
}

// Write 通过 MULTI/EXEC 原子提交
func (r *RedisDB) Write(batch *Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	ctx := context.Background()
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, op := range batch.ops {
			if op.delete {
				pipe.Del(ctx, r.key(op.key))
			} else {
				pipe.Set(ctx, r.key(op.key), op.value, 0)
			}
		}
		return nil
	})
	return err
}

func (r *RedisDB) Close() error {
	return r.rdb.Close()
}
