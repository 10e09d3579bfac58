// Package cart holds the per-session shopping cart.
//
// A Store is opened for one browsing session, mutated by a single writer and
// written through to the injected Storage after every change. When the storage
// is unavailable the store keeps working in memory for the rest of the session.
package cart

import (
	"context"
	"encoding/json"
	"errors"

	"storefront/internal/domain/model"

	"go.uber.org/zap"
)

var ErrInvalidQuantity = errors.New("quantity must be >= 1")

type persistedCart struct {
	Version int              `json:"version"`
	Items   []model.CartItem `json:"items"`
}

type Store struct {
	sessionID string
	storage   Storage // nil ならメモリのみ
	fallback  Storage // 失敗時の切り替え先
	onDegrade func()
	logger    *zap.Logger

	items    []model.CartItem
	degraded bool
}

// Open はセッションのカートを読み込む。読めなければ空から始める。
func Open(ctx context.Context, sessionID string, storage Storage, logger *zap.Logger) *Store {
	s := newStore(sessionID, storage, logger)
	if storage == nil {
		s.degraded = true
		return s
	}
	s.load(ctx)
	return s
}

func newStore(sessionID string, storage Storage, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		sessionID: sessionID,
		storage:   storage,
		logger:    logger.With(zap.String("cart_session", sessionID)),
		items:     []model.CartItem{},
	}
}

func (s *Store) load(ctx context.Context) {
	raw, err := s.storage.Load(ctx, SchemaKey(s.sessionID))
	if errors.Is(err, ErrStorageMiss) {
		return
	}
	if err != nil {
		s.degrade(ctx, err)
		return
	}

	var pc persistedCart
	if err := json.Unmarshal(raw, &pc); err != nil || pc.Version != SchemaVersion {
		//形式が違うものは捨てる
		s.logger.Info("discarding cart with unknown schema", zap.Int("version", pc.Version), zap.Error(err))
		return
	}
	s.items = normalize(pc.Items)
}

// Add は同じ (product, variant) があれば数量を加算、なければ末尾に追加。
// 在庫チェックはしない（在庫はチェックアウト時に確認する）。
func (s *Store) Add(ctx context.Context, item model.CartItem) error {
	if item.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if i := s.indexOf(item.ProductID, item.VariantID); i >= 0 {
		s.items[i].Quantity += item.Quantity
	} else {
		s.items = append(s.items, item)
	}
	s.persist(ctx)
	return nil
}

// Remove は該当明細を消す。無ければ何もしない。
func (s *Store) Remove(ctx context.Context, productID, variantID string) {
	i := s.indexOf(productID, variantID)
	if i < 0 {
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.persist(ctx)
}

// UpdateQuantity は qty <= 0 なら Remove と同じ。
func (s *Store) UpdateQuantity(ctx context.Context, productID, variantID string, qty int64) {
	if qty <= 0 {
		s.Remove(ctx, productID, variantID)
		return
	}
	i := s.indexOf(productID, variantID)
	if i < 0 {
		return
	}
	s.items[i].Quantity = qty
	s.persist(ctx)
}

func (s *Store) Clear(ctx context.Context) {
	s.items = []model.CartItem{}
	if s.storage == nil {
		return
	}
	if err := s.storage.Delete(ctx, SchemaKey(s.sessionID)); err != nil {
		s.degrade(ctx, err)
	}
}

func (s *Store) Items() []model.CartItem {
	out := make([]model.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Total() int64 {
	var total int64
	for _, it := range s.items {
		total += it.LineTotal()
	}
	return total
}

func (s *Store) ItemCount() int64 {
	var n int64
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

func (s *Store) IsInCart(productID, variantID string) bool {
	return s.indexOf(productID, variantID) >= 0
}

func (s *Store) IsEmpty() bool {
	return len(s.items) == 0
}

// 永続化に失敗しても落とさない。以降はメモリのみ。
func (s *Store) Degraded() bool {
	return s.degraded
}

func (s *Store) indexOf(productID, variantID string) int {
	for i, it := range s.items {
		if it.SameLine(productID, variantID) {
			return i
		}
	}
	return -1
}

func (s *Store) persist(ctx context.Context) {
	if s.storage == nil {
		return
	}
	if err := s.save(ctx); err != nil {
		s.degrade(ctx, err)
	}
}

func (s *Store) save(ctx context.Context) error {
	raw, err := json.Marshal(persistedCart{Version: SchemaVersion, Items: s.items})
	if err != nil {
		return err
	}
	return s.storage.Save(ctx, SchemaKey(s.sessionID), raw)
}

// 以降は fallback（無ければメモリのみ）に書く
func (s *Store) degrade(ctx context.Context, err error) {
	s.logger.Warn("cart persistence failed, continuing in memory", zap.Error(err))
	s.degraded = true
	s.storage, s.fallback = s.fallback, nil
	if s.onDegrade != nil {
		s.onDegrade()
	}
	if s.storage == nil {
		return
	}
	if err := s.save(ctx); err != nil {
		s.logger.Warn("cart fallback save failed", zap.Error(err))
		s.storage = nil
	}
}

// 保存データの重複・数量0を正規化する
func normalize(items []model.CartItem) []model.CartItem {
	out := make([]model.CartItem, 0, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			continue
		}
		merged := false
		for i := range out {
			if out[i].SameLine(it.ProductID, it.VariantID) {
				out[i].Quantity += it.Quantity
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, it)
		}
	}
	return out
}
