package storage

import (
	"errors"
	"fmt"

	"github.com/rodrigogk87/crowdfunding/internal/config"
)

// ErrNotFound key 不存在
var ErrNotFound = errors.New("storage: not found")

// Database 账本使用的键值存储
type Database interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	// Write 原子地提交一批写操作
	Write(batch *Batch) error
	Close() error
}

type batchOp struct {
	key    []byte
	value  []byte
	delete bool
}

// Batch 一组待原子提交的写操作
type Batch struct {
	ops []batchOp
}

// NewBatch 创建空批次
func NewBatch() *Batch {
	return &Batch{}
}

// Put 写入
func (b *Batch) Put(key, value []byte) {
	b.ops = append(b.ops, batchOp{key: copyBytes(key), value: copyBytes(value)})
}

// Delete 删除
func (b *Batch) Delete(key []byte) {
	b.ops = append(b.ops, batchOp{key: copyBytes(key), delete: true})
}

// Len 操作数
func (b *Batch) Len() int {
	return len(b.ops)
}

// Reset 清空批次
func (b *Batch) Reset() {
	b.ops = b.ops[:0]
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}

// Open 根据配置打开存储
func Open(cfg config.StorageConfig) (Database, error) {
	switch cfg.Backend {
	case "", "leveldb":
		return OpenLevelDB(cfg.Path)
	case "memory":
		return NewMemoryDB()
	case "redis":
		return OpenRedis(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q, supported: leveldb, memory, redis", cfg.Backend)
	}
}
