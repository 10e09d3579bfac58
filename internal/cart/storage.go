package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrStorageMiss = errors.New("cart storage miss")

// カートの永続化先。キーは SchemaKey で作る。
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// 保存形式を変えたら上げる。古いバージョンのデータは読み捨てる。
const SchemaVersion = 1

func SchemaKey(sessionID string) string {
	return fmt.Sprintf("cart:v%d:%s", SchemaVersion, sessionID)
}

// テスト・単一プロセス用
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: map[string][]byte{}}
}

func (m *MemoryStorage) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.data[key]
	if !ok {
		return nil, ErrStorageMiss
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (m *MemoryStorage) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b := make([]byte, len(data))
	copy(b, data)
	m.data[key] = b
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}
