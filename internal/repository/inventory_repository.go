package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 在庫レポートの1行
type InventoryRow struct {
	VariantID   string `json:"variant_id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	SKU         string `json:"sku"`
	Size        string `json:"size"`
	Color       string `json:"color"`
	Stock       int64  `json:"stock"`
}

type InventoryRepository interface {
	// 在庫を delta だけ動かし履歴を残す（0未満にはしない）。動かした結果を返す。
	ApplyMovement(ctx context.Context, m model.InventoryMovement) (model.InventoryMovement, error)

	// 在庫の現在値を設定し履歴を残す
	SetStock(ctx context.Context, variantID string, newStock int64, reason model.MovementReason) (model.InventoryMovement, error)

	ListStock(ctx context.Context) ([]InventoryRow, error)
	ListRecentMovements(ctx context.Context, limit int) ([]model.InventoryMovement, error)
}
