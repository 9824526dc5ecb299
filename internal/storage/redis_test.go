package storage

import (
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodrigogk87/crowdfunding/internal/config"
)

// redisConfig 优先使用 REDIS_ADDR 指定的实例，否则启动进程内 redis
func redisConfig(t *testing.T) (config.StorageConfig, *miniredis.Miniredis) {
	t.Helper()
	cfg := config.StorageConfig{Backend: "redis", Prefix: "cf-test:"}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.RedisAddr = addr
		return cfg, nil
	}
	s := miniredis.RunT(t)
	cfg.RedisAddr = s.Addr()
	return cfg, s
}

func TestRedisDB(t *testing.T) {
	cfg, s := redisConfig(t)

	db, err := Open(cfg)
	require.NoError(t, err)
	defer db.Close()
	t.Cleanup(func() {
		for _, k := range []string{"a", "b", "c"} {
			_ = db.Delete([]byte(k))
		}
	})

	exerciseDatabase(t, db)

	if s != nil {
		// key 带前缀
		assert.True(t, s.Exists("cf-test:c"))
		assert.False(t, s.Exists("c"))
	}
}

func TestRedisBatchWrite(t *testing.T) {
	cfg, _ := redisConfig(t)

	db, err := OpenRedis(cfg)
	require.NoError(t, err)
	defer db.Close()
	t.Cleanup(func() {
		_ = db.Delete([]byte("head"))
		_ = db.Delete([]byte("acct"))
	})

	require.NoError(t, db.Put([]byte("stale"), []byte("x")))

	batch := NewBatch()
	batch.Put([]byte("head"), []byte("h1"))
	batch.Put([]byte("acct"), []byte("a1"))
	batch.Delete([]byte("stale"))
	require.NoError(t, db.Write(batch))

	value, err := db.Get([]byte("head"))
	require.NoError(t, err)
	assert.Equal(t, []byte("h1"), value)
	value, err = db.Get([]byte("acct"))
	require.NoError(t, err)
	assert.Equal(t, []byte("a1"), value)
	_, err = db.Get([]byte("stale"))
	assert.ErrorIs(t, err, ErrNotFound)

	// 空批次不访问 redis
	require.NoError(t, db.Write(NewBatch()))
}

func TestOpenRedisUnreachable(t *testing.T) {
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()

	_, err := OpenRedis(config.StorageConfig{RedisAddr: addr})
	assert.Error(t, err)
}
