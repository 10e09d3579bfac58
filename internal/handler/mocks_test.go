package handler

import (
	"context"

	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
)

// テスト用：固定のカートセッションを入れる
func fixedSession(sid string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.CtxCartSessionID, sid)
			return next(c)
		}
	}
}

type CheckoutMock struct{ mock.Mock }

func (m *CheckoutMock) Checkout(ctx context.Context, in usecase.CheckoutInput) (usecase.CheckoutOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(usecase.CheckoutOutput)
	return out, args.Error(1)
}

type OrderMock struct{ mock.Mock }

func (m *OrderMock) GetOrder(ctx context.Context, orderID string) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

type WebhookMock struct{ mock.Mock }

func (m *WebhookMock) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	args := m.Called(ctx, payload, signature)
	return args.Error(0)
}

type CartMock struct{ mock.Mock }

func (m *CartMock) GetCart(ctx context.Context, sid string) usecase.CartOutput {
	args := m.Called(ctx, sid)
	out, _ := args.Get(0).(usecase.CartOutput)
	return out
}

func (m *CartMock) Items(ctx context.Context, sid string) []model.CartItem {
	args := m.Called(ctx, sid)
	items, _ := args.Get(0).([]model.CartItem)
	return items
}

func (m *CartMock) AddItem(ctx context.Context, sid string, in usecase.AddCartItemInput) (usecase.CartOutput, error) {
	args := m.Called(ctx, sid, in)
	out, _ := args.Get(0).(usecase.CartOutput)
	return out, args.Error(1)
}

func (m *CartMock) QuickAdd(ctx context.Context, sid string, productID string) (usecase.CartOutput, error) {
	args := m.Called(ctx, sid, productID)
	out, _ := args.Get(0).(usecase.CartOutput)
	return out, args.Error(1)
}

func (m *CartMock) UpdateQuantity(ctx context.Context, sid, productID, variantID string, qty int64) (usecase.CartOutput, error) {
	args := m.Called(ctx, sid, productID, variantID, qty)
	out, _ := args.Get(0).(usecase.CartOutput)
	return out, args.Error(1)
}

func (m *CartMock) RemoveItem(ctx context.Context, sid, productID, variantID string) usecase.CartOutput {
	args := m.Called(ctx, sid, productID, variantID)
	out, _ := args.Get(0).(usecase.CartOutput)
	return out
}

func (m *CartMock) Clear(ctx context.Context, sid string) usecase.CartOutput {
	args := m.Called(ctx, sid)
	out, _ := args.Get(0).(usecase.CartOutput)
	return out
}

type AdminOrderMock struct{ mock.Mock }

func (m *AdminOrderMock) List(ctx context.Context, f repository.AdminOrderListFilter) (usecase.AdminOrderListOutput, error) {
	args := m.Called(ctx, f)
	out, _ := args.Get(0).(usecase.AdminOrderListOutput)
	return out, args.Error(1)
}

func (m *AdminOrderMock) UpdateStatus(ctx context.Context, actor, orderID, status string) (model.Order, error) {
	args := m.Called(ctx, actor, orderID, status)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *AdminOrderMock) UpdatePriority(ctx context.Context, actor, orderID, priority string) (model.Order, error) {
	args := m.Called(ctx, actor, orderID, priority)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

type RetentionMock struct{ mock.Mock }

func (m *RetentionMock) Sweep(ctx context.Context, actor string) (usecase.SweepResult, error) {
	args := m.Called(ctx, actor)
	out, _ := args.Get(0).(usecase.SweepResult)
	return out, args.Error(1)
}

type InventoryMock struct{ mock.Mock }

func (m *InventoryMock) SetStock(ctx context.Context, actor, variantID string, in usecase.SetStockInput) (model.InventoryMovement, error) {
	args := m.Called(ctx, actor, variantID, in)
	mv, _ := args.Get(0).(model.InventoryMovement)
	return mv, args.Error(1)
}

func (m *InventoryMock) Report(ctx context.Context, lowStock *int64) (usecase.InventoryReport, error) {
	args := m.Called(ctx, lowStock)
	out, _ := args.Get(0).(usecase.InventoryReport)
	return out, args.Error(1)
}

type ReviewMock struct{ mock.Mock }

func (m *ReviewMock) Submit(ctx context.Context, slug string, in usecase.ReviewInput) (model.Review, error) {
	args := m.Called(ctx, slug, in)
	r, _ := args.Get(0).(model.Review)
	return r, args.Error(1)
}

func (m *ReviewMock) ListApproved(ctx context.Context, slug string) ([]model.Review, error) {
	args := m.Called(ctx, slug)
	rs, _ := args.Get(0).([]model.Review)
	return rs, args.Error(1)
}

func (m *ReviewMock) AdminList(ctx context.Context, status string, limit int) ([]model.Review, error) {
	args := m.Called(ctx, status, limit)
	rs, _ := args.Get(0).([]model.Review)
	return rs, args.Error(1)
}

func (m *ReviewMock) Moderate(ctx context.Context, actor string, id int64, status string) (model.Review, error) {
	args := m.Called(ctx, actor, id, status)
	r, _ := args.Get(0).(model.Review)
	return r, args.Error(1)
}

type AuditLogMock struct{ mock.Mock }

func (m *AuditLogMock) List(ctx context.Context, f repository.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, f)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

type ProductMock struct{ mock.Mock }

func (m *ProductMock) ListPublicProducts(ctx context.Context, in usecase.ListProductsInput) (usecase.ProductListOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(usecase.ProductListOutput)
	return out, args.Error(1)
}

func (m *ProductMock) GetProductDetail(ctx context.Context, slug string) (usecase.ProductDetailOutput, error) {
	args := m.Called(ctx, slug)
	out, _ := args.Get(0).(usecase.ProductDetailOutput)
	return out, args.Error(1)
}
