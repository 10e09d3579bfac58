package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

type AdminOrderUsecase struct {
	orders    repo.OrderRepository
	auditRepo repo.AuditLogRepository
	events    EventPublisher
	clock     Clock
	logger    *zap.Logger
}

func NewAdminOrderUsecase(orders repo.OrderRepository, auditRepo repo.AuditLogRepository, events EventPublisher, clock Clock, logger *zap.Logger) *AdminOrderUsecase {
	return &AdminOrderUsecase{orders: orders, auditRepo: auditRepo, events: events, clock: clock, logger: logger}
}

type AdminOrderListOutput struct {
	Items []model.Order `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (AdminOrderListOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Status != "" {
		if _, ok := model.ParseOrderStatus(f.Status); !ok {
			return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "from must be <= to")
	}

	items, total, err := u.orders.ListAdmin(ctx, f)
	if err != nil {
		return AdminOrderListOutput{}, internalError(err)
	}
	return AdminOrderListOutput{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

// 管理者が付けられるのは completed と cancelled だけ。
// processing は決済 webhook からしか付かない。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actor string, orderID string, status string) (model.Order, error) {
	to, ok := model.ParseOrderStatus(strings.TrimSpace(status))
	if !ok || (to != model.OrderStatusCompleted && to != model.OrderStatusCancelled) {
		return model.Order{}, ValidationError("status")
	}

	o, err := u.find(ctx, orderID)
	if err != nil {
		return model.Order{}, err
	}

	// すでに同じなら何もしない（200）
	if o.Status == to {
		return o, nil
	}
	// 終端ガード
	if !o.Status.CanTransitionTo(to) {
		return model.Order{}, InvalidTransitionError(string(o.Status), string(to))
	}

	from := o.Status
	now := u.clock.Now()
	err = u.orders.Patch(ctx, o.ID, model.OrderPatch{ExpectStatus: &from, Status: &to, UpdatedAt: now})
	if errors.Is(err, repo.ErrStatusConflict) {
		return model.Order{}, InvalidTransitionError(string(from), string(to))
	}
	if err != nil {
		return model.Order{}, internalError(err)
	}
	o.Status = to
	o.UpdatedAt = now

	// 監査ログ（UPDATE_ORDER_STATUS）
	if err := u.writeAudit(ctx, actor, model.AuditActionUpdateOrderStatus, o.OrderID,
		map[string]any{"status": from}, map[string]any{"status": to}); err != nil {
		return model.Order{}, err
	}

	if err := u.events.PublishOrderStatusChanged(ctx, model.NewOrderStatusChanged(o, "admin", now)); err != nil {
		u.logger.Warn("publish order event failed", zap.String("order_id", o.OrderID), zap.Error(err))
	}
	return o, nil
}

func (u *AdminOrderUsecase) UpdatePriority(ctx context.Context, actor string, orderID string, priority string) (model.Order, error) {
	p, ok := model.ParseOrderPriority(strings.TrimSpace(priority))
	if !ok {
		return model.Order{}, ValidationError("priority")
	}

	o, err := u.find(ctx, orderID)
	if err != nil {
		return model.Order{}, err
	}
	if o.Priority == p {
		return o, nil
	}

	before := o.Priority
	now := u.clock.Now()
	if err := u.orders.Patch(ctx, o.ID, model.OrderPatch{Priority: &p, UpdatedAt: now}); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Order{}, NotFoundError("order")
		}
		return model.Order{}, internalError(err)
	}
	o.Priority = p
	o.UpdatedAt = now

	if err := u.writeAudit(ctx, actor, model.AuditActionUpdateOrderPriority, o.OrderID,
		map[string]any{"priority": before}, map[string]any{"priority": p}); err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (u *AdminOrderUsecase) find(ctx context.Context, orderID string) (model.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return model.Order{}, ValidationError("order_id")
	}
	o, err := u.orders.FindByOrderID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NotFoundError("order")
	}
	if err != nil {
		return model.Order{}, internalError(err)
	}
	return o, nil
}

func (u *AdminOrderUsecase) writeAudit(ctx context.Context, actor string, action model.AuditAction, orderID string, before, after map[string]any) error {
	b, _ := json.Marshal(before)
	a, _ := json.Marshal(after)
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		Actor:        actor,
		Action:       action,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   orderID,
		BeforeJSON:   string(b),
		AfterJSON:    string(a),
		CreatedAt:    u.clock.Now(),
	}); err != nil {
		return internalError(err)
	}
	return nil
}
