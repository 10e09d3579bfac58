package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

const defaultLowStock int64 = 5

type InventoryUsecase struct {
	inventory repo.InventoryRepository
	audit     repo.AuditLogRepository
	clock     Clock
	logger    *zap.Logger
}

func NewInventoryUsecase(inventory repo.InventoryRepository, audit repo.AuditLogRepository, clock Clock, logger *zap.Logger) *InventoryUsecase {
	return &InventoryUsecase{inventory: inventory, audit: audit, clock: clock, logger: logger}
}

// 支払い済みになった注文の在庫を減らす。失敗してもログだけ。
func (u *InventoryUsecase) RecordOrderPaid(ctx context.Context, o model.Order) {
	for _, it := range o.Items {
		m, err := u.inventory.ApplyMovement(ctx, model.InventoryMovement{
			VariantID: it.VariantID,
			QtyDelta:  -it.Quantity,
			Reason:    model.MovementReasonOrderPaid,
			OrderID:   o.OrderID,
			At:        u.clock.Now(),
		})
		if err != nil {
			u.logger.Error("inventory movement failed",
				zap.String("order_id", o.OrderID), zap.String("variant_id", it.VariantID), zap.Error(err))
			continue
		}
		if m.PreviousStock < it.Quantity {
			u.logger.Warn("oversold variant",
				zap.String("order_id", o.OrderID),
				zap.String("variant_id", it.VariantID),
				zap.Int64("previous_stock", m.PreviousStock),
				zap.Int64("quantity", it.Quantity))
		}
	}
}

type SetStockInput struct {
	Stock  int64
	Reason string
}

// 在庫の現在値を設定し、監査ログを残す
func (u *InventoryUsecase) SetStock(ctx context.Context, actor string, variantID string, in SetStockInput) (model.InventoryMovement, error) {
	var fields []string
	if strings.TrimSpace(variantID) == "" {
		fields = append(fields, "variant_id")
	}
	if in.Stock < 0 {
		fields = append(fields, "stock")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" || len(reason) > 255 {
		fields = append(fields, "reason")
	}
	if len(fields) > 0 {
		return model.InventoryMovement{}, ValidationError(fields...)
	}

	m, err := u.inventory.SetStock(ctx, variantID, in.Stock, model.MovementReasonManualAdjustment)
	if errors.Is(err, repo.ErrNotFound) {
		return model.InventoryMovement{}, NotFoundError("variant")
	}
	if err != nil {
		return model.InventoryMovement{}, internalError(err)
	}

	//監査ログを作成（在庫更新）
	before, _ := json.Marshal(map[string]any{"stock": m.PreviousStock})
	after, _ := json.Marshal(map[string]any{"stock": m.NewStock, "reason": reason})
	if err := u.audit.Create(ctx, model.AuditLog{
		Actor:        actor,
		Action:       model.AuditActionUpdateStock,
		ResourceType: model.AuditResourceVariant,
		ResourceID:   variantID,
		BeforeJSON:   string(before),
		AfterJSON:    string(after),
		CreatedAt:    u.clock.Now(),
	}); err != nil {
		return model.InventoryMovement{}, internalError(err)
	}
	return m, nil
}

type InventoryReportRow struct {
	repo.InventoryRow
	LowStock bool `json:"low_stock"`
}

type InventoryReport struct {
	Threshold       int64                     `json:"low_stock_threshold"`
	Items           []InventoryReportRow      `json:"items"`
	LowStockCount   int                       `json:"low_stock_count"`
	RecentMovements []model.InventoryMovement `json:"recent_movements"`
}

func (u *InventoryUsecase) Report(ctx context.Context, lowStock *int64) (InventoryReport, error) {
	threshold := defaultLowStock
	if lowStock != nil {
		if *lowStock < 0 {
			return InventoryReport{}, ValidationError("low_stock")
		}
		threshold = *lowStock
	}

	rows, err := u.inventory.ListStock(ctx)
	if err != nil {
		return InventoryReport{}, internalError(err)
	}
	moves, err := u.inventory.ListRecentMovements(ctx, 50)
	if err != nil {
		return InventoryReport{}, internalError(err)
	}

	out := InventoryReport{
		Threshold:       threshold,
		Items:           make([]InventoryReportRow, 0, len(rows)),
		RecentMovements: moves,
	}
	for _, r := range rows {
		low := r.Stock <= threshold
		if low {
			out.LowStockCount++
		}
		out.Items = append(out.Items, InventoryReportRow{InventoryRow: r, LowStock: low})
	}
	return out, nil
}
