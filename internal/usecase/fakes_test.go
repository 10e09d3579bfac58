package usecase_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/stretchr/testify/mock"
)

// =====================
// clock / id
// =====================

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%08x-aaaa-4bbb-8ccc-%012x", g.n, g.n)
}

// =====================
// 注文ストア（メモリ）
// =====================

type memOrders struct {
	mu       sync.Mutex
	byID     map[string]model.Order
	seq      int
	patches  int
	createFn func(model.Order) error
}

func newMemOrders() *memOrders {
	return &memOrders{byID: map[string]model.Order{}}
}

func (m *memOrders) Create(_ context.Context, o model.Order) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createFn != nil {
		if err := m.createFn(o); err != nil {
			return "", err
		}
	}
	m.seq++
	o.ID = fmt.Sprintf("doc-%d", m.seq)
	m.byID[o.ID] = o
	return o.ID, nil
}

func (m *memOrders) put(o model.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[o.ID] = o
}

func (m *memOrders) get(id string) model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id]
}

func (m *memOrders) FindByID(_ context.Context, id string) (model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (m *memOrders) FindByOrderID(_ context.Context, orderID string) (model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.byID {
		if o.OrderID == orderID {
			return o, nil
		}
	}
	return model.Order{}, repo.ErrNotFound
}

func (m *memOrders) Patch(_ context.Context, id string, p model.OrderPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return repo.ErrNotFound
	}
	if p.ExpectStatus != nil && o.Status != *p.ExpectStatus {
		return repo.ErrStatusConflict
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.PaymentStatus != nil {
		o.Payment = *p.PaymentStatus
	}
	if p.Priority != nil {
		o.Priority = *p.Priority
	}
	if p.PaymentSessionID != nil {
		o.PaymentSessionID = *p.PaymentSessionID
	}
	if p.PaymentCustomerID != nil {
		o.PaymentCustomerID = *p.PaymentCustomerID
	}
	if p.PaymentIntentID != nil {
		o.PaymentIntentID = *p.PaymentIntentID
	}
	o.UpdatedAt = p.UpdatedAt
	m.byID[id] = o
	m.patches++
	return nil
}

func (m *memOrders) ListAdmin(_ context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Order{}
	for _, o := range m.byID {
		if f.Status == "" || string(o.Status) == f.Status {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (m *memOrders) ListCompletedBefore(_ context.Context, cutoff time.Time, limit int) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Order{}
	for _, o := range m.byID {
		if o.Status == model.OrderStatusCompleted && o.CreatedAt.Before(cutoff) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memOrders) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

// =====================
// カタログ（メモリ）
// =====================

type memCatalog struct {
	products map[string]model.Product
	variants map[string]model.Variant
}

func newMemCatalog() *memCatalog {
	return &memCatalog{products: map[string]model.Product{}, variants: map[string]model.Variant{}}
}

func (c *memCatalog) add(p model.Product, vs ...model.Variant) {
	for _, v := range vs {
		v.ProductID = p.ID
		c.variants[v.ID] = v
		p.Variants = append(p.Variants, v)
	}
	c.products[p.ID] = p
}

func (c *memCatalog) ListPublic(_ context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	out := []model.Product{}
	for _, p := range c.products {
		if p.IsActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (c *memCatalog) FindBySlug(_ context.Context, slug string) (model.Product, error) {
	for _, p := range c.products {
		if p.Slug == slug && p.IsActive {
			return p, nil
		}
	}
	return model.Product{}, repo.ErrNotFound
}

func (c *memCatalog) FindByID(_ context.Context, id string) (model.Product, error) {
	p, ok := c.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	p.Variants = nil
	return p, nil
}

func (c *memCatalog) ListVariants(_ context.Context, productID string) ([]model.Variant, error) {
	return c.products[productID].Variants, nil
}

func (c *memCatalog) FindVariant(_ context.Context, productID, variantID string) (model.Variant, error) {
	v, ok := c.variants[variantID]
	if !ok || v.ProductID != productID {
		return model.Variant{}, repo.ErrNotFound
	}
	return v, nil
}

// =====================
// 在庫・監査ログ
// =====================

type memInventory struct {
	mu        sync.Mutex
	stock     map[string]int64
	movements []model.InventoryMovement
}

func newMemInventory(stock map[string]int64) *memInventory {
	return &memInventory{stock: stock}
}

func (m *memInventory) ApplyMovement(_ context.Context, mv model.InventoryMovement) (model.InventoryMovement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.stock[mv.VariantID]
	if !ok {
		return model.InventoryMovement{}, repo.ErrNotFound
	}
	next := cur + mv.QtyDelta
	if next < 0 {
		next = 0
	}
	mv.PreviousStock, mv.NewStock = cur, next
	m.stock[mv.VariantID] = next
	m.movements = append(m.movements, mv)
	return mv, nil
}

func (m *memInventory) SetStock(_ context.Context, variantID string, newStock int64, reason model.MovementReason) (model.InventoryMovement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.stock[variantID]
	if !ok {
		return model.InventoryMovement{}, repo.ErrNotFound
	}
	mv := model.InventoryMovement{VariantID: variantID, QtyDelta: newStock - cur, Reason: reason, PreviousStock: cur, NewStock: newStock}
	m.stock[variantID] = newStock
	m.movements = append(m.movements, mv)
	return mv, nil
}

func (m *memInventory) ListStock(_ context.Context) ([]repo.InventoryRow, error) {
	rows := []repo.InventoryRow{}
	for id, s := range m.stock {
		rows = append(rows, repo.InventoryRow{VariantID: id, Stock: s})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].VariantID < rows[j].VariantID })
	return rows, nil
}

func (m *memInventory) ListRecentMovements(_ context.Context, limit int) ([]model.InventoryMovement, error) {
	return m.movements, nil
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, f)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

// =====================
// 決済・イベント・メール
// =====================

type PaymentGatewayMock struct{ mock.Mock }

func (m *PaymentGatewayMock) CreateSession(ctx context.Context, o model.Order) (model.PaymentSession, error) {
	args := m.Called(ctx, o)
	s, _ := args.Get(0).(model.PaymentSession)
	return s, args.Error(1)
}

func (m *PaymentGatewayMock) ParseWebhook(payload []byte, signature string) (model.PaymentEvent, error) {
	args := m.Called(payload, signature)
	ev, _ := args.Get(0).(model.PaymentEvent)
	return ev, args.Error(1)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.OrderStatusChanged
	err    error
}

func (p *recordingPublisher) PublishOrderStatusChanged(_ context.Context, ev model.OrderStatusChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (n *recordingNotifier) SendReceipt(_ context.Context, o model.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, o.OrderID)
	return n.err
}
