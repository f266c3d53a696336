package keystore

import (
	"context"
	"sync"
)

// Storage 本地持久化键值存储接口（字节存储，按字符串键寻址）
type Storage interface {
	// Get 读取记录；记录不存在时返回 (nil, nil)
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入记录（覆盖已有记录）
	Set(ctx context.Context, key string, value []byte) error

	// Delete 删除记录；记录不存在时不报错
	Delete(ctx context.Context, key string) error
}

// MemoryStorage 内存存储实现（测试与开发用）
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryStorage 创建内存存储实例
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{records: make(map[string][]byte)}
}

func (s *MemoryStorage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), value...), nil
}

func (s *MemoryStorage) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = append([]byte(nil), value...)
	return nil
}

// Keys 返回当前全部记录键（测试用）
func (s *MemoryStorage) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.records))
	for key := range s.records {
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}
