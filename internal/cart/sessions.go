package cart

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Sessions はリクエストごとにセッションの Store を開く。
// 主ストレージで失敗したセッションはプロセス内のメモリへ切り替わり、
// 以降のリクエストもメモリから読む。
type Sessions struct {
	primary  Storage
	fallback *MemoryStorage
	logger   *zap.Logger

	mu       sync.Mutex
	degraded map[string]struct{}
}

func NewSessions(primary Storage, logger *zap.Logger) *Sessions {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sessions{
		primary:  primary,
		fallback: NewMemoryStorage(),
		logger:   logger,
		degraded: map[string]struct{}{},
	}
}

func (m *Sessions) Open(ctx context.Context, sessionID string) *Store {
	if m.primary == nil || m.IsDegraded(sessionID) {
		s := newStore(sessionID, m.fallback, m.logger)
		s.degraded = true
		s.load(ctx)
		return s
	}

	s := newStore(sessionID, m.primary, m.logger)
	s.fallback = m.fallback
	s.onDegrade = func() { m.markDegraded(sessionID) }
	s.load(ctx)
	return s
}

func (m *Sessions) IsDegraded(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.degraded[sessionID]
	return ok
}

func (m *Sessions) markDegraded(sessionID string) {
	m.mu.Lock()
	m.degraded[sessionID] = struct{}{}
	m.mu.Unlock()
}
